package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadyCheck reports whether one dependency is usable.
type ReadyCheck func(ctx context.Context) error

// Health serves the liveness, readiness and service-info endpoints.
type Health struct {
	Environment string
	Version     string
	Checks      map[string]ReadyCheck

	started time.Time
	now     func() time.Time
}

func NewHealth(env, version string, checks map[string]ReadyCheck) *Health {
	if checks == nil {
		checks = map[string]ReadyCheck{}
	}
	return &Health{Environment: env, Version: version, Checks: checks, started: time.Now(), now: time.Now}
}

// Register mounts /, /api/health, /ready and the JSON 404 fallback.
func (h *Health) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/api/health", h.health)
	r.GET("/ready", h.ready)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "API endpoint not found"})
	})
}

func (h *Health) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Portfolio Backend API",
		"version": h.Version,
		"endpoints": gin.H{
			"health":  "/api/health",
			"contact": "/api/contact",
			"docs":    "/swagger/index.html",
		},
	})
}

func (h *Health) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Portfolio API is running",
		"timestamp":   h.now().UTC().Format(time.RFC3339Nano),
		"environment": h.Environment,
	})
}

// ready returns 200 only when every registered dependency check passes.
func (h *Health) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	deps := map[string]bool{}
	for _, name := range names {
		err := h.Checks[name](ctx)
		deps[name] = err == nil
		if err != nil {
			ready = false
			_ = c.Error(err)
		}
	}

	uptime := time.Since(h.started).Round(time.Second).String()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
}
