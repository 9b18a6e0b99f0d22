package identity

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pysugar/drive-nexus/internal/apperr"
)

const testSecret = "super-secret-jwt-token"

func sign(t *testing.T, secret string, method jwt.SigningMethod, c jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, c).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func validClaims() *claims {
	now := time.Now()
	return &claims{
		Email: "student@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8f14e45f-ceea-4e7a-a0a5-7f0b5f3b2a10",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerifier_FromRequest(t *testing.T) {
	v := NewVerifier(testSecret, "authenticated")
	token := sign(t, testSecret, jwt.SigningMethodHS256, validClaims())

	req := httptest.NewRequest("GET", "/drive-api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	id, err := v.FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest: %v", err)
	}
	if id.UserID != "8f14e45f-ceea-4e7a-a0a5-7f0b5f3b2a10" || id.Email != "student@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"anon"}

	noSubject := validClaims()
	noSubject.Subject = ""

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer "},
		{name: "garbage", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + sign(t, "other", jwt.SigningMethodHS256, validClaims())},
		{name: "wrong algorithm", header: "Bearer " + sign(t, testSecret, jwt.SigningMethodHS512, validClaims())},
		{name: "expired", header: "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, expired)},
		{name: "wrong audience", header: "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, wrongAud)},
		{name: "no subject", header: "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, noSubject)},
		{name: "no expiry", header: "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, noExpiry)},
	}

	v := NewVerifier(testSecret, "authenticated")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := v.FromRequest(req)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if kind := apperr.KindOf(err); kind != apperr.Unauthenticated {
				t.Fatalf("kind = %v, want Unauthenticated", kind)
			}
		})
	}
}

func TestVerifier_AudienceOptional(t *testing.T) {
	c := validClaims()
	c.Audience = nil
	token := sign(t, testSecret, jwt.SigningMethodHS256, c)

	if _, err := NewVerifier(testSecret, "").Verify(token); err != nil {
		t.Fatalf("Verify without audience check: %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context should carry no identity")
	}

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1"})
	id, ok := FromContext(ctx)
	if !ok || id.UserID != "u1" {
		t.Fatalf("FromContext() = %+v, %v", id, ok)
	}
}
