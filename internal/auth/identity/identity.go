// Package identity verifies the caller's bearer token issued by the hosted identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pysugar/drive-nexus/internal/apperr"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 identity tokens signed with the provider's shared secret.
type Verifier struct {
	secret   []byte
	audience string
}

// NewVerifier creates a verifier. An empty audience disables the audience check.
func NewVerifier(secret, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), audience: audience}
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, apperr.New(apperr.Unauthenticated, "missing authorization header")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperr.Wrap(apperr.Unauthenticated, "identity token expired", err)
		}
		return Identity{}, apperr.Wrap(apperr.Unauthenticated, "invalid identity token", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, apperr.New(apperr.Unauthenticated, "invalid identity token")
	}
	if c.Subject == "" {
		return Identity{}, apperr.New(apperr.Unauthenticated, "identity token has no subject")
	}
	return Identity{UserID: c.Subject, Email: c.Email}, nil
}

// FromRequest extracts and verifies the Authorization bearer token.
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	raw, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Identity{}, err
	}
	return v.Verify(raw)
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperr.New(apperr.Unauthenticated, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.New(apperr.Unauthenticated, fmt.Sprintf("unsupported authorization scheme %q", scheme))
	}
	return strings.TrimSpace(token), nil
}

type ctxKey struct{}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}
