// internal/auth/auth_test.go
package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mosaic-cms/mosaic/internal/entity"
	"github.com/mosaic-cms/mosaic/internal/identity"
)

func issueToken(t *testing.T, issuer *identity.TokenIssuer) string {
	t.Helper()
	u := &identity.User{Base: entity.Base{ID: 9}, Email: "ada@example.com"}
	tok, err := issuer.Issue(u, []string{"member"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func TestRequirePassesVerifiedClaims(t *testing.T) {
	issuer := identity.NewTokenIssuer("auth-test-secret", time.Minute)

	var got *identity.TokenClaims
	h := Require(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, issuer))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.UserID != 9 || got.Email != "ada@example.com" {
		t.Fatalf("claims = %+v", got)
	}
	if id, ok := UserID(WithClaims(context.Background(), got)); !ok || id != 9 {
		t.Fatalf("UserID = %d, %v", id, ok)
	}
}

func TestRequireRejectsMissingHeader(t *testing.T) {
	issuer := identity.NewTokenIssuer("auth-test-secret", time.Minute)
	h := Require(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
	}
	if !strings.Contains(rec.Body.String(), "missing bearer token") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRequireRejectsForgedToken(t *testing.T) {
	issuer := identity.NewTokenIssuer("auth-test-secret", time.Minute)
	forger := identity.NewTokenIssuer("some-other-secret", time.Minute)

	h := Require(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, forger))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid or expired token") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestUserIDWithoutClaims(t *testing.T) {
	if id, ok := UserID(context.Background()); ok || id != 0 {
		t.Fatalf("UserID on empty context = %d, %v", id, ok)
	}
}
