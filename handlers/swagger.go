package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers Swagger/OpenAPI endpoints for the contact API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>portfolio-api - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "portfolio-api", "version": "1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "ContactInput": {
        "type": "object",
        "required": ["name", "email", "message"],
        "properties": {
          "name": { "type": "string", "minLength": 1, "maxLength": 100, "pattern": "^[a-zA-Z0-9\\s\\-'.,@_]+$" },
          "email": { "type": "string", "format": "email" },
          "message": { "type": "string", "minLength": 1, "maxLength": 1000 }
        }
      },
      "Contact": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "name": { "type": "string" },
          "email": { "type": "string" },
          "message": { "type": "string" },
          "isRead": { "type": "boolean" },
          "createdAt": { "type": "string", "format": "date-time" }
        }
      },
      "FieldError": { "type": "object", "properties": { "field": { "type": "string" }, "message": { "type": "string" } } },
      "Failure": { "type": "object", "properties": { "success": { "type": "boolean" }, "message": { "type": "string" } } }
    }
  },
  "paths": {
    "/api/contact": {
      "post": {
        "summary": "Submit the contact form",
        "requestBody": { "required": true, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ContactInput" } } } },
        "responses": {
          "201": { "description": "stored; data carries id and submittedAt" },
          "400": { "description": "validation failed; errors lists every failing field" },
          "429": { "description": "too many submissions from this address; see Retry-After" },
          "500": { "description": "server error", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Failure" } } } }
        }
      },
      "get": {
        "summary": "List submissions, newest first",
        "security": [{ "bearer": [] }],
        "parameters": [
          { "name": "page", "in": "query", "schema": { "type": "integer", "minimum": 1, "default": 1 } },
          { "name": "limit", "in": "query", "schema": { "type": "integer", "minimum": 1, "maximum": 100, "default": 10 } },
          { "name": "isRead", "in": "query", "schema": { "type": "boolean" } }
        ],
        "responses": {
          "200": { "description": "data holds the page, pagination holds current, pages and total" },
          "400": { "description": "invalid isRead" },
          "401": { "description": "missing or invalid admin token" },
          "403": { "description": "token lacks the admin role" }
        }
      }
    },
    "/api/contact/{id}/read": {
      "patch": {
        "summary": "Mark a submission as read",
        "security": [{ "bearer": [] }],
        "parameters": [{ "name": "id", "in": "path", "required": true, "schema": { "type": "string" } }],
        "responses": {
          "200": { "description": "updated record", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Contact" } } } },
          "404": { "description": "Contact not found" }
        }
      }
    },
    "/api/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "running" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition format" } } } }
  }
}`
