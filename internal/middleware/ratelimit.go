package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aidar/taskflow/internal/ratelimit"
)

// RateLimit ограничивает число запросов с одного IP за окно.
// limit <= 0 или nil limiter отключают ограничение.
func RateLimit(rl ratelimit.Limiter, scope string, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil || limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)

			allowed, count, err := rl.Allow(r.Context(), key, limit, window)
			if err != nil {
				// Redis недоступен: пропускаем запрос
				logger.Error("Rate limit check failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			// Заголовки лимита
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, limit-count)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP возвращает IP клиента без порта
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
