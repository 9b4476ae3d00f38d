// internal/api/middleware/auth_test.go
package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/coinview/internal/api/response"
)

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	auth := APIKeyAuth("secret-key")
	wrapped := auth(handler)

	req := httptest.NewRequest("GET", "/api/v1/coins/bitcoin", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	auth := APIKeyAuth("secret-key")
	wrapped := auth(handler)

	req := httptest.NewRequest("GET", "/api/v1/coins/bitcoin", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	auth := APIKeyAuth("secret-key")
	wrapped := auth(handler)

	req := httptest.NewRequest("GET", "/api/v1/coins/bitcoin", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAPIKeyAuth_EmptyConfiguredKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	auth := APIKeyAuth("") // Empty = disabled
	wrapped := auth(handler)

	req := httptest.NewRequest("GET", "/api/v1/coins/bitcoin", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when auth disabled, got %d", w.Code)
	}
}

func TestAPIKeyAuth_BearerToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := APIKeyAuth("secret-key")(handler)

	req := httptest.NewRequest("GET", "/api/v1/coins/bitcoin", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with bearer token, got %d", w.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("got %v, want %v", order, want)
			break
		}
	}
}

func TestAPIKeyAuth_ErrorCode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := APIKeyAuth("secret-key")(handler)

	tests := []struct {
		name  string
		key   string
		cause string
	}{
		{"missing key", "", "api key missing"},
		{"wrong key", "wrong-key", "api key mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/coins/bitcoin", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			var resp response.ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error.Code != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED, got %s", resp.Error.Code)
			}
			if resp.Error.Cause != tt.cause {
				t.Errorf("expected cause %q, got %q", tt.cause, resp.Error.Cause)
			}
		})
	}
}
