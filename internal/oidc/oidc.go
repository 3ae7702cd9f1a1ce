package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/folio-labs/portfolio-api/internal/admin"
	"github.com/folio-labs/portfolio-api/pkg/middleware"
)

var ErrNotAdmin = errors.New("oidc: subject is not an administrator")

// IDToken is a minimal interface for token payloads that allows extracting claims
// It is satisfied by *oidc.IDToken and by test fakes.
type IDToken interface {
	Claims(v interface{}) error
}

type verifyFunc func(ctx context.Context, raw string) (IDToken, error)

// Verifier accepts ID tokens from an external provider whose subject or
// email is on the admin allow-list, and presents them as admin claims.
type Verifier struct {
	verify  verifyFunc
	allowed map[string]struct{}
}

// NewVerifier discovers the provider at issuer and verifies tokens issued for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string, subjects []string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return newVerifier(provider.Verifier(&oidc.Config{ClientID: clientID}), subjects), nil
}

func newVerifier(v *oidc.IDTokenVerifier, subjects []string) *Verifier {
	allowed := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		allowed[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return &Verifier{
		verify: func(ctx context.Context, raw string) (IDToken, error) {
			return v.Verify(ctx, raw)
		},
		allowed: allowed,
	}
}

// Verify verifies the raw ID token and returns admin claims for allow-listed subjects.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc claims: %w", err)
	}
	if !v.permits(claims.Subject, claims.Email, claims.EmailVerified) {
		return nil, ErrNotAdmin
	}
	return middleware.ClaimsToken{
		"sub":   claims.Subject,
		"email": claims.Email,
		"role":  admin.RoleAdmin,
	}, nil
}

func (v *Verifier) permits(sub, email string, emailVerified *bool) bool {
	if _, ok := v.allowed[strings.ToLower(sub)]; ok && sub != "" {
		return true
	}
	// an unverified email is not an identity
	if email == "" || emailVerified == nil || !*emailVerified {
		return false
	}
	_, ok := v.allowed[strings.ToLower(email)]
	return ok
}
