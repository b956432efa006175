package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/radarip/radarip/internal/auth"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*auth.Claims, error) {
	if token == "good" {
		return &auth.Claims{Username: "admin"}, nil
	}
	return nil, errors.New("bad token")
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if seen == "" || w.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id %q, header %q", seen, w.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "0b7f6a3e-8a55-4f0e-9d59-5b0c1a2b3c4d")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "0b7f6a3e-8a55-4f0e-9d59-5b0c1a2b3c4d" {
		t.Errorf("incoming request id not kept, got %q", seen)
	}
}

func TestJWTAuth(t *testing.T) {
	var user string
	handler := JWTAuth(stubValidator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ = r.Context().Value(UsernameKey).(string)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"Bad token", "Bearer nope", http.StatusUnauthorized},
		{"Good token", "Bearer good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusUnauthorized {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatal(err)
				}
				if resp.Error.Code != "UNAUTHORIZED" {
					t.Errorf("code = %q", resp.Error.Code)
				}
			}
		})
	}

	if user != "admin" {
		t.Errorf("username in context = %q, want admin", user)
	}
}

func TestRecoveryAndLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := RequestID(Logger(logger)(Recovery(logger)(JWTAuth(stubValidator{})(panicking))))

	req := httptest.NewRequest("GET", "/api/v1/scans", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	out := logs.String()
	for _, want := range []string{"Panic recovered", "Request completed", "status=500", "user=admin"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
