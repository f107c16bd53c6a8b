package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestCartSessionMintsWhenMissing(t *testing.T) {
	var seen string
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected a minted uuid session, got %q", seen)
	}
	if got := resp.Header().Get("X-Cart-Session"); got != seen {
		t.Fatalf("response header %q does not match context session %q", got, seen)
	}
}

func TestCartSessionEchoesValidHeader(t *testing.T) {
	session := uuid.NewString()
	var seen string
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Cart-Session", session)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen != session {
		t.Fatalf("expected session %q carried through, got %q", session, seen)
	}
	if got := resp.Header().Get("X-Cart-Session"); got != session {
		t.Fatalf("unexpected echoed header %q", got)
	}
}

func TestCartSessionReplacesMalformedHeader(t *testing.T) {
	var seen string
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Cart-Session", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen == "not-a-uuid" {
		t.Fatal("malformed session should be replaced")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected a minted uuid session, got %q", seen)
	}
}
