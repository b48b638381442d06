package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aidar/taskflow/internal/ai"
	"github.com/aidar/taskflow/internal/service"
)

// ProxyHandler обрабатывает публичные маршруты /api/*, ключ OpenAI приходит в теле запроса.
// Ошибки отдаются в виде {"error": "..."}, как ждет клиент этих маршрутов.
type ProxyHandler struct {
	assistant *service.AssistantService
	logger    *slog.Logger
}

// NewProxyHandler создает новый ProxyHandler
func NewProxyHandler(assistant *service.AssistantService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		assistant: assistant,
		logger:    logger,
	}
}

// ProxyError ответ с ошибкой маршрутов /api/*
type ProxyError struct {
	Error string `json:"error"`
}

// proxyRequest общий формат тела запросов /api/*
type proxyRequest struct {
	Text            string `json:"text"`
	TargetLanguage  string `json:"targetLanguage"`
	SourceLanguage  string `json:"sourceLanguage"`
	Image           string `json:"image"`
	TaskName        string `json:"taskName"`
	TaskDescription string `json:"taskDescription"`
	APIKey          string `json:"apiKey"`
}

func respondProxyError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ProxyError{Error: message})
}

// decode проверяет метод и читает тело; пишет ответ и возвращает false при ошибке
func (h *ProxyHandler) decode(w http.ResponseWriter, r *http.Request, req *proxyRequest) bool {
	if r.Method != http.MethodPost {
		respondProxyError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(req); err != nil {
		respondProxyError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// fail переводит ошибку OpenAI в ответ
func (h *ProxyHandler) fail(w http.ResponseWriter, r *http.Request, route string, err error) {
	var apiErr *ai.APIError
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		respondProxyError(w, r, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, ai.ErrInvalidKey):
		respondProxyError(w, r, http.StatusUnauthorized, msgInvalidKey)
	case errors.As(err, &apiErr):
		respondProxyError(w, r, apiErr.StatusCode, apiErr.Message)
	default:
		h.logger.Error("Proxy request failed", "route", route, "error", err)
		respondProxyError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// Translate обрабатывает /api/translate
func (h *ProxyHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Text == "" || req.APIKey == "" {
		respondProxyError(w, r, http.StatusBadRequest, "Missing required fields: text and apiKey")
		return
	}

	text, err := h.assistant.Translate(r.Context(), req.APIKey, req.Text, req.TargetLanguage, req.SourceLanguage)
	if err != nil {
		h.fail(w, r, "translate", err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TranslateResponse{TranslatedText: text})
}

// OCR обрабатывает /api/ocr
func (h *ProxyHandler) OCR(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Image == "" || req.APIKey == "" {
		respondProxyError(w, r, http.StatusBadRequest, "Missing required fields: image and apiKey")
		return
	}

	text, err := h.assistant.OCR(r.Context(), req.APIKey, req.Image)
	if err != nil {
		h.fail(w, r, "ocr", err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TextResponse{Text: text})
}

// Analyze обрабатывает /api/analyze
func (h *ProxyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TaskName == "" || req.APIKey == "" {
		respondProxyError(w, r, http.StatusBadRequest, "Missing required fields: taskName and apiKey")
		return
	}

	analysis, err := h.assistant.Analyze(r.Context(), req.APIKey, req.TaskName, req.TaskDescription)
	if err != nil {
		h.fail(w, r, "analyze", err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, analysis)
}

// Calendar обрабатывает /api/calendar
func (h *ProxyHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TaskName == "" || req.APIKey == "" {
		respondProxyError(w, r, http.StatusBadRequest, "Missing required fields: taskName and apiKey")
		return
	}

	event, err := h.assistant.CalendarEvent(r.Context(), req.APIKey, req.TaskName, req.TaskDescription)
	if err != nil {
		h.fail(w, r, "calendar", err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, event)
}
