// Package admin mints and verifies the bearer tokens that guard the contact
// listing and mark-read routes.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folio-labs/portfolio-api/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// RoleAdmin is the role claim required by the admin routes.
	RoleAdmin = "admin"
	issuer    = "portfolio-api"
)

var ErrEmptySecret = errors.New("admin: signing secret is empty")

// Issuer signs and verifies HS256 admin tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

// Mint creates a signed admin token for subject
func (i *Issuer) Mint(subject string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": RoleAdmin,
		"iss":  issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(i.secret)
}

// Verify implements middleware.Verifier.
func (i *Issuer) Verify(_ context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("admin token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("admin token: unexpected claims type")
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, errors.New("admin token: missing exp")
	}
	return middleware.ClaimsToken(claims), nil
}
