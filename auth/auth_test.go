package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewJWTManager("0123456789abcdef0123456789abcdef", "invoice-api", time.Hour)
	tok, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	uid, err := m.Validate(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("got %q", uid)
	}
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("secret-a", "invoice-api", time.Hour)
	other := NewJWTManager("secret-b", "invoice-api", time.Hour)
	foreign, _ := other.Issue("user-1")
	wrongIssuer, _ := NewJWTManager("secret-a", "someone-else", time.Hour).Issue("user-1")

	expired := NewJWTManager("secret-a", "invoice-api", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue("user-1")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", Issuer: "invoice-api"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"other secret": foreign,
		"wrong issuer": wrongIssuer,
		"expired":      old,
		"alg none":     none,
	} {
		if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestOpaqueToken(t *testing.T) {
	raw, hash, err := NewOpaqueToken()
	if err != nil {
		t.Fatal(err)
	}
	if raw == "" || hash != HashToken(raw) || len(hash) != 64 {
		t.Fatalf("unexpected token pair %q %q", raw, hash)
	}
	raw2, _, _ := NewOpaqueToken()
	if raw == raw2 {
		t.Fatal("tokens should differ")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if BearerToken(r) != "" {
		t.Fatal("expected empty")
	}
	r.Header.Set("Authorization", "bearer abc")
	if BearerToken(r) != "abc" {
		t.Fatalf("got %q", BearerToken(r))
	}
	r.Header.Set("Authorization", "Basic abc")
	if BearerToken(r) != "" {
		t.Fatal("basic auth must be ignored")
	}
}

func TestMiddlewareAndRequireAuth(t *testing.T) {
	m := NewJWTManager("secret", "invoice-api", time.Hour)
	tok, _ := m.Issue("user-42")

	var seen string
	h := Middleware(m)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent || seen != "user-42" {
		t.Fatalf("authenticated: code=%d uid=%q", w.Code, seen)
	}

	SetUserVerifier(func(context.Context, string) bool { return false })
	defer SetUserVerifier(nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user: expected 401 got %d", w.Code)
	}
}
