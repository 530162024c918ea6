// ABOUTME: Tests for HTTP authentication middleware
// ABOUTME: Covers token extraction, verification, and rejection responses

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func protectedHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestHTTPAuthMiddleware_ValidToken(t *testing.T) {
	verifier := NewStaticVerifier([]byte("test-token"))
	middleware := HTTPAuthMiddleware(verifier)

	var called bool
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	middleware(protectedHandler(&called)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !called {
		t.Error("expected wrapped handler to be called")
	}
}

func TestHTTPAuthMiddleware_Rejections(t *testing.T) {
	verifier := NewStaticVerifier([]byte("test-token"))
	middleware := HTTPAuthMiddleware(verifier)

	tests := []struct {
		name       string
		authHeader string
		wantError  string
	}{
		{"missing header", "", "missing authorization header"},
		{"not bearer", "Basic dXNlcjpwYXNz", "invalid authorization header format"},
		{"empty token", "Bearer ", "empty token"},
		{"wrong token", "Bearer wrong-token", "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middleware(protectedHandler(&called)).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
			if called {
				t.Error("wrapped handler should not be called")
			}
			if !strings.Contains(rec.Body.String(), tt.wantError) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantError)
			}
		})
	}
}

func TestHTTPAuthMiddleware_NoSecretLeakage(t *testing.T) {
	verifier := NewStaticVerifier([]byte("the-configured-secret"))
	middleware := HTTPAuthMiddleware(verifier)

	var called bool
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()

	middleware(protectedHandler(&called)).ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), "the-configured-secret") {
		t.Error("rejection body must not contain the configured secret")
	}
}

func TestExtractBearerToken(t *testing.T) {
	token, errMsg := extractBearerToken("Bearer abc123")
	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want %q", token, "abc123")
	}
}
