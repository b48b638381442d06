package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/service"
)

type fakeValidator struct{}

func (fakeValidator) ValidateToken(token string) (*service.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &service.Claims{UserID: "user_1", Email: "a@x.io", Name: "A"}, nil
}

func TestAuthMiddleware(t *testing.T) {
	var gotEmail, gotID, gotName string
	h := AuthMiddleware(fakeValidator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = GetEmailFromContext(r.Context())
		gotID = GetUserIDFromContext(r.Context())
		gotName = GetNameFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	assert.Equal(t, "a@x.io", gotEmail)
	assert.Equal(t, "user_1", gotID)
	assert.Equal(t, "A", gotName)
}

func TestGetEmailFromContext_Empty(t *testing.T) {
	assert.Empty(t, GetEmailFromContext(context.Background()))
	assert.Equal(t, "b@x.io", GetEmailFromContext(WithEmail(context.Background(), "b@x.io")))
}

type fakeLimiter struct {
	counts map[string]int
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, int, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[key]++
	return f.counts[key] <= limit, f.counts[key], nil
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := &fakeLimiter{counts: map[string]int{}}
	h := RateLimit(rl, "proxy", 2, time.Minute, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/translate", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("1.2.3.4:1000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do("1.2.3.4:1001").Code)

	rec = do("1.2.3.4:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Другой IP
	assert.Equal(t, http.StatusOK, do("5.6.7.8:1000").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	RateLimit(nil, "proxy", 10, time.Minute, logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Ошибка Redis не блокирует запрос
	rec = httptest.NewRecorder()
	failing := &fakeLimiter{err: errors.New("redis down")}
	RateLimit(failing, "proxy", 10, time.Minute, logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
