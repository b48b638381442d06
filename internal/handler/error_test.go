package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/ai"
	"github.com/aidar/taskflow/internal/calendar"
	"github.com/aidar/taskflow/internal/domain"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", fmt.Errorf("%w: team name is required", domain.ErrValidation), http.StatusBadRequest, "BAD_REQUEST", "validation failed: team name is required"},
		{"duplicate email", domain.ErrEmailRegistered, http.StatusConflict, "EMAIL_REGISTERED", ""},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"foreign invitation", domain.ErrInvitationNotForUser, http.StatusForbidden, "FORBIDDEN", ""},
		{"missing task", domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"timer stopped", domain.ErrTimerNotRunning, http.StatusConflict, "CONFLICT", ""},
		{"expired invitation", domain.ErrInvitationExpired, http.StatusGone, "INVITATION_EXPIRED", ""},
		{"plan limit", domain.ErrPlanLimitReached, http.StatusPaymentRequired, "PLAN_LIMIT", ""},
		{"no credentials", domain.ErrNotConfigured, http.StatusPreconditionFailed, "NOT_CONFIGURED", ""},
		{"openai rate limit", fmt.Errorf("complete: %w", ai.ErrRateLimited), http.StatusTooManyRequests, "RATE_LIMITED", msgRateLimited},
		{"openai bad key", ai.ErrInvalidKey, http.StatusUnauthorized, "INVALID_API_KEY", msgInvalidKey},
		{"openai not configured", ai.ErrNotConfigured, http.StatusPreconditionFailed, "NOT_CONFIGURED", msgNoOpenAIKey},
		{"calendar token", calendar.ErrNoToken, http.StatusPreconditionFailed, "NOT_CONFIGURED", ""},
		{"upstream", &ai.APIError{StatusCode: http.StatusServiceUnavailable, Message: "overloaded"}, http.StatusServiceUnavailable, "UPSTREAM_ERROR", "overloaded"},
		{"upstream without status", &ai.APIError{Message: "broken"}, http.StatusBadGateway, "UPSTREAM_ERROR", "broken"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/tasks", nil)

			HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error.Message)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	err := validateStruct(&InviteRequest{Role: "owner"})
	require.Error(t, err)
	assert.Equal(t, "email is required, role must be one of: member admin", err.Error())

	err = validateStruct(&ReminderRequest{})
	require.Error(t, err)
	assert.Equal(t, "minutes is required", err.Error())

	assert.NoError(t, validateStruct(&CommentRequest{Text: "ok"}))
}
