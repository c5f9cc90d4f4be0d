package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenMaker("test-secret-test-secret-test-secret")

	tok, err := tm.New("admin", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	claims, err := tm.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("role = %q, want admin", claims.Role)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenMaker("secret-one-secret-one-secret-one").New("admin", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := NewTokenMaker("secret-two-secret-two-secret-two").Parse(tok); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenMaker("test-secret-test-secret-test-secret")

	tok, err := tm.New("admin", -time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tm.Parse(tok); err == nil {
		t.Fatalf("expected parse failure for expired token")
	}
}

func TestRequireMiddleware(t *testing.T) {
	tm := NewTokenMaker("test-secret-test-secret-test-secret")

	h := Require(tm)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clicks/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// Non-admin role.
	tok, err := tm.New("viewer", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/clicks/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("viewer role: status = %d, want 401", rec.Code)
	}

	// Valid admin token.
	tok, err = tm.New("admin", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/clicks/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin token: status = %d, want 200", rec.Code)
	}
}
