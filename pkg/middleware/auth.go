package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ClaimsToken is a Token backed by an already decoded claim set.
type ClaimsToken map[string]interface{}

func (t ClaimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verifiers tries each verifier in order and returns the first success.
type Verifiers []Verifier

func (vs Verifiers) Verify(ctx context.Context, raw string) (Token, error) {
	if len(vs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	var errs []error
	for _, v := range vs {
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func unauthorized(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, http.StatusUnauthorized, "missing Authorization header")
			return
		}
		// Expect 'Bearer <token>'
		scheme, token, ok := strings.Cut(auth, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(c, http.StatusUnauthorized, "invalid Authorization header")
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			unauthorized(c, http.StatusUnauthorized, "invalid token")
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			unauthorized(c, http.StatusUnauthorized, "failed to parse claims")
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the verified claims carry role.
// It must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("claims")
		if !ok {
			unauthorized(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		claims, _ := v.(map[string]interface{})
		if got, _ := claims["role"].(string); got != role {
			unauthorized(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}
