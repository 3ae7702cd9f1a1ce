package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/folio-labs/portfolio-api/handlers"
	"github.com/folio-labs/portfolio-api/internal/admin"
	"github.com/folio-labs/portfolio-api/internal/bootstrap"
	"github.com/folio-labs/portfolio-api/internal/config"
	"github.com/folio-labs/portfolio-api/internal/contact/repository"
	"github.com/folio-labs/portfolio-api/internal/contact/service"
	"github.com/folio-labs/portfolio-api/pkg/metrics"
	"github.com/folio-labs/portfolio-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "test", FrontendURL: "https://folio.example.com"},
		RateLimit: config.RateLimitConfig{GlobalRPS: 100, GlobalBurst: 100},
		Admin:     config.AdminConfig{JWTSecret: testSecret},
	}
	gate, err := bootstrap.AdminGate(context.Background(), cfg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), 2, 15*time.Minute)
	r, err := newRouter(router{
		cfg:       cfg,
		svc:       service.New(repository.NewMemoryRepo(), limiter),
		health:    handlers.NewHealth("test", version, nil),
		adminGate: gate,
		gatherer:  reg,
	})
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://folio.example.com")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestServer_ContactFlow(t *testing.T) {
	r := testServer(t)

	w := do(r, http.MethodPost, "/api/contact", `{"name":"Ada","email":" Ada@Example.COM ","message":"Hello"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "https://folio.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(r, http.MethodGet, "/api/contact", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	iss, err := admin.NewIssuer(testSecret)
	require.NoError(t, err)
	tok, err := iss.Mint("owner", time.Minute)
	require.NoError(t, err)

	w = do(r, http.MethodGet, "/api/contact?isRead=false", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "ada@example.com", body.Data[0].Email)

	w = do(r, http.MethodPatch, "/api/contact/"+body.Data[0].ID+"/read", "", tok)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/contact?isRead=false", "", tok)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Empty(t, body.Data)
}

func TestServer_RateLimitAndMetrics(t *testing.T) {
	r := testServer(t)
	payload := `{"name":"Ada","email":"ada@example.com","message":"Hello"}`
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/contact", payload, "").Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/contact", payload, "").Code)

	w := do(r, http.MethodPost, "/api/contact", payload, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	w = do(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "portfolio_contact_submissions_total")
	require.Contains(t, w.Body.String(), `portfolio_rate_limit_rejected_total{limiter="memory"}`)
}

func TestServer_Misc(t *testing.T) {
	r := testServer(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/health", "", "").Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "", "").Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/swagger/doc.json", "", "").Code)

	w := do(r, http.MethodGet, "/api/unknown", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"success":false,"message":"API endpoint not found"}`, w.Body.String())
}
