package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/internal/contact/service"
	"github.com/gin-gonic/gin"
)

const (
	msgCreated     = "Contact form submitted successfully! Thank you for reaching out."
	msgInvalid     = "Validation failed"
	msgRateLimited = "Too many contact form submissions, please try again later."
	msgNotFound    = "Contact not found"
	msgMarkedRead  = "Contact marked as read"
	msgServerError = "Internal server error. Please try again later."
)

// RegisterContactRoutes mounts the contact endpoints on rg. The adminGate
// handlers, if any, guard the listing and mark-read routes.
func RegisterContactRoutes(rg *gin.RouterGroup, svc service.Service, adminGate ...gin.HandlerFunc) {
	h := &contactHandler{svc: svc}
	rg.POST("/contact", h.submit)

	admin := rg.Group("/contact")
	admin.Use(adminGate...)
	admin.GET("", h.list)
	admin.PATCH("/:id/read", h.markRead)
}

type contactHandler struct {
	svc service.Service
}

func (h *contactHandler) submit(c *gin.Context) {
	var p contact.Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		// unreadable bodies are validated as if every field were empty
		p = contact.Payload{}
	}
	meta := contact.RequestMeta{IPAddress: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}

	r, err := h.svc.Submit(c.Request.Context(), p, meta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": msgCreated,
		"data":    gin.H{"id": r.ID, "submittedAt": r.SubmittedAt},
	})
}

func (h *contactHandler) list(c *gin.Context) {
	var f contact.ListFilter
	if raw, ok := c.GetQuery("isRead"); ok {
		if raw != "true" && raw != "false" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "isRead must be true or false"})
			return
		}
		v := raw == "true"
		f.IsRead = &v
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", service.DefaultPageSize)

	res, err := h.svc.List(c.Request.Context(), f, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    res.Items,
		"pagination": gin.H{
			"current": res.Page,
			"pages":   res.Pages,
			"total":   res.Total,
		},
	})
}

func (h *contactHandler) markRead(c *gin.Context) {
	rec, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgMarkedRead, "data": rec})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// writeError maps service errors to status codes and the response envelope.
func writeError(c *gin.Context, err error) {
	var verr *contact.ValidationError
	var rerr *contact.RateLimitError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgInvalid, "errors": verr.Fields})
	case errors.As(err, &rerr):
		secs := int(math.Ceil(rerr.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(secs))
		c.Header("RateLimit-Limit", strconv.Itoa(rerr.Limit))
		c.Header("RateLimit-Remaining", "0")
		c.Header("RateLimit-Reset", strconv.Itoa(secs))
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": msgRateLimited})
	case errors.Is(err, contact.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": msgNotFound})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
	}
}
