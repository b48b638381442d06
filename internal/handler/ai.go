package handler

import (
	"context"
	"net/http"

	"github.com/aidar/taskflow/internal/service"
)

// AIHandler обрабатывает AI эндпоинты приложения с ключом из настроек пользователя
type AIHandler struct {
	assistant *service.AssistantService
}

// NewAIHandler создает новый AIHandler
func NewAIHandler(assistant *service.AssistantService) *AIHandler {
	return &AIHandler{
		assistant: assistant,
	}
}

// TranslateRequest представляет тело запроса на перевод
type TranslateRequest struct {
	Text           string `json:"text" validate:"required"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage"`
}

// TextRequest представляет запрос с одним текстовым полем
type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

// TaskInfoRequest представляет запрос с названием и описанием задачи
type TaskInfoRequest struct {
	TaskName        string `json:"taskName" validate:"required"`
	TaskDescription string `json:"taskDescription"`
}

// ImageRequest представляет запрос OCR с изображением в data URL
type ImageRequest struct {
	Image string `json:"image" validate:"required"`
}

// TranslateResponse представляет ответ перевода
type TranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// TextResponse представляет текстовый ответ
type TextResponse struct {
	Text string `json:"text"`
}

// TasksResponse представляет извлеченные задачи
type TasksResponse struct {
	Tasks []service.ExtractedTask `json:"tasks"`
}

// withKey достает ключ OpenAI пользователя и вызывает fn
func (h *AIHandler) withKey(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, key string) (interface{}, error)) {
	key, err := h.assistant.KeyFor(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	resp, err := fn(r.Context(), key)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, resp)
}

// Languages обрабатывает GET /ai/languages
func (h *AIHandler) Languages(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, service.Languages())
}

// Translate обрабатывает POST /ai/translate
func (h *AIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		text, err := h.assistant.Translate(ctx, key, req.Text, req.TargetLanguage, req.SourceLanguage)
		return TranslateResponse{TranslatedText: text}, err
	})
}

// Enhance обрабатывает POST /ai/enhance
func (h *AIHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		text, err := h.assistant.Enhance(ctx, key, req.Text)
		return TextResponse{Text: text}, err
	})
}

// ExtractTasks обрабатывает POST /ai/extract
func (h *AIHandler) ExtractTasks(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		tasks, err := h.assistant.ExtractTasks(ctx, key, req.Text)
		return TasksResponse{Tasks: tasks}, err
	})
}

// Suggest обрабатывает POST /ai/suggest
func (h *AIHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		text, err := h.assistant.Suggest(ctx, key, req.Text)
		return TextResponse{Text: text}, err
	})
}

// CalendarEvent обрабатывает POST /ai/calendar-event
func (h *AIHandler) CalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req TaskInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		return h.assistant.CalendarEvent(ctx, key, req.TaskName, req.TaskDescription)
	})
}

// Analyze обрабатывает POST /ai/analyze
func (h *AIHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req TaskInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		return h.assistant.Analyze(ctx, key, req.TaskName, req.TaskDescription)
	})
}

// OCR обрабатывает POST /ai/ocr
func (h *AIHandler) OCR(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.withKey(w, r, func(ctx context.Context, key string) (interface{}, error) {
		text, err := h.assistant.OCR(ctx, key, req.Image)
		return TextResponse{Text: text}, err
	})
}
