package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAPIKeyMiddleware_Disabled(t *testing.T) {
	for _, tc := range []struct {
		name string
		mode string
		key  string
	}{
		{"none mode", "none", "secret"},
		{"empty mode", "", "secret"},
		{"no key configured", "apikey", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := APIKeyMiddleware(tc.mode, "x-api-key", tc.key, okHandler())

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			if rr.Code != http.StatusOK {
				t.Errorf("status = %d, want pass-through 200", rr.Code)
			}
		})
	}
}

func TestAPIKeyMiddleware_Enforced(t *testing.T) {
	h := APIKeyMiddleware("apikey", "x-api-key", "secret", okHandler())

	for _, tc := range []struct {
		name     string
		sent     string
		wantCode int
	}{
		{"correct key", "secret", http.StatusOK},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.sent != "" {
				req.Header.Set("x-api-key", tc.sent)
			}

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			if tc.wantCode == http.StatusUnauthorized && !strings.Contains(rr.Body.String(), "invalid api key") {
				t.Errorf("body = %q, want JSON error", rr.Body.String())
			}
		})
	}
}

func TestAPIKeyMiddleware_HealthExempt(t *testing.T) {
	h := APIKeyMiddleware("apikey", "x-api-key", "secret", okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without credentials", rr.Code)
	}
}

func TestAPIKeyMiddleware_CustomHeader(t *testing.T) {
	h := APIKeyMiddleware("apikey", "authorization-key", "secret", okHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("authorization-key", "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with key in custom header", rr.Code)
	}
}
