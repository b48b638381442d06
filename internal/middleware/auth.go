package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aidar/taskflow/internal/service"
)

// ContextKey это кастомный тип для ключей контекста
type ContextKey string

const (
	// UserIDKey ключ контекста для ID пользователя
	UserIDKey ContextKey = "user_id"
	// EmailKey ключ контекста для email пользователя
	EmailKey ContextKey = "email"
	// NameKey ключ контекста для имени пользователя
	NameKey ContextKey = "name"
)

// TokenValidator проверяет JWT токен
type TokenValidator interface {
	ValidateToken(token string) (*service.Claims, error)
}

// AuthMiddleware создает middleware для валидации JWT токенов
func AuthMiddleware(auth TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			// Проверяем формат Bearer
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims, err := auth.ValidateToken(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			// Добавляем claims в контекст
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			ctx = context.WithValue(ctx, NameKey, claims.Name)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError пишет ошибку в формате ErrorResponse
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

// GetUserIDFromContext извлекает ID пользователя из контекста
func GetUserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetEmailFromContext извлекает email пользователя из контекста
func GetEmailFromContext(ctx context.Context) string {
	email, ok := ctx.Value(EmailKey).(string)
	if !ok {
		return ""
	}
	return email
}

// GetNameFromContext извлекает имя пользователя из контекста
func GetNameFromContext(ctx context.Context) string {
	name, ok := ctx.Value(NameKey).(string)
	if !ok {
		return ""
	}
	return name
}

// WithEmail кладет email в контекст (используется в тестах обработчиков)
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, EmailKey, email)
}
