package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/aidar/taskflow/internal/ai"
	"github.com/aidar/taskflow/internal/calendar"
	"github.com/aidar/taskflow/internal/domain"
)

// Сообщения об ошибках OpenAI для клиента
const (
	msgRateLimited = "OpenAI rate limit reached. Please try again in a few minutes."
	msgInvalidKey  = "Invalid OpenAI API key."
	msgNoOpenAIKey = "OpenAI API key not configured. Please add your API key in Settings."
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// statusByCode HTTP статус для кода доменной ошибки
var statusByCode = map[domain.ErrorCode]int{
	domain.CodeBadRequest:        http.StatusBadRequest,
	domain.CodeUnauthorized:      http.StatusUnauthorized,
	domain.CodeForbidden:         http.StatusForbidden,
	domain.CodeNotFound:          http.StatusNotFound,
	domain.CodeConflict:          http.StatusConflict,
	domain.CodeEmailRegistered:   http.StatusConflict,
	domain.CodeInvitationExpired: http.StatusGone,
	domain.CodePlanLimit:         http.StatusPaymentRequired,
	domain.CodeNotConfigured:     http.StatusPreconditionFailed,
}

// HandleError преобразует доменные ошибки и ошибки OpenAI в HTTP ответы
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *ai.APIError

	switch {
	case errors.Is(err, ai.ErrRateLimited):
		RespondWithError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", msgRateLimited)
	case errors.Is(err, ai.ErrInvalidKey):
		RespondWithError(w, r, http.StatusUnauthorized, "INVALID_API_KEY", msgInvalidKey)
	case errors.Is(err, ai.ErrNotConfigured):
		RespondWithError(w, r, http.StatusPreconditionFailed, string(domain.CodeNotConfigured), msgNoOpenAIKey)
	case errors.Is(err, calendar.ErrNoToken):
		RespondWithError(w, r, http.StatusPreconditionFailed, string(domain.CodeNotConfigured), "calendar is not connected")
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		RespondWithError(w, r, status, "UPSTREAM_ERROR", apiErr.Message)
	default:
		code := domain.MapErrorToCode(err)
		status, ok := statusByCode[code]
		if !ok {
			reportError(r, err)
			RespondWithError(w, r, http.StatusInternalServerError, string(domain.CodeInternal), "internal server error")
			return
		}
		RespondWithError(w, r, status, string(code), err.Error())
	}
}

// reportError логирует неожиданную ошибку и отправляет ее в Sentry
func reportError(r *http.Request, err error) {
	requestID := middleware.GetReqID(r.Context())
	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID, "error", err)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", "http")
		scope.SetExtra("method", r.Method)
		scope.SetExtra("path", r.URL.Path)
		scope.SetExtra("request_id", requestID)
		sentry.CaptureException(err)
	})
}
