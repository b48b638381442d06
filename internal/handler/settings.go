package handler

import (
	"net/http"

	"github.com/aidar/taskflow/internal/service"
)

// SettingsHandler обрабатывает ключи сторонних API пользователя
type SettingsHandler struct {
	credentialService *service.CredentialService
}

// NewSettingsHandler создает новый SettingsHandler
func NewSettingsHandler(credentialService *service.CredentialService) *SettingsHandler {
	return &SettingsHandler{
		credentialService: credentialService,
	}
}

// CredentialsRequest представляет тело запроса на изменение ключей.
// Отсутствующее поле не меняется, пустая строка удаляет ключ.
type CredentialsRequest struct {
	OpenAIKey        *string `json:"openai_api_key" validate:"omitempty,max=200"`
	CalendarAPIKey   *string `json:"calendar_api_key" validate:"omitempty,max=200"`
	CalendarClientID *string `json:"calendar_client_id" validate:"omitempty,max=200"`
}

// GetCredentials обрабатывает GET /settings/credentials
func (h *SettingsHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	status, err := h.credentialService.Status(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, status)
}

// UpdateCredentials обрабатывает PUT /settings/credentials
func (h *SettingsHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.credentialService.Update(r.Context(), currentEmail(r), service.CredentialUpdate{
		OpenAIKey:        req.OpenAIKey,
		CalendarAPIKey:   req.CalendarAPIKey,
		CalendarClientID: req.CalendarClientID,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, status)
}
