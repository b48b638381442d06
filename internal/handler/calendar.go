package handler

import (
	"net/http"
	"time"

	"github.com/aidar/taskflow/internal/service"
)

// CalendarHandler обрабатывает подключение Google Calendar и создание событий
type CalendarHandler struct {
	calendarService *service.CalendarService
}

// NewCalendarHandler создает новый CalendarHandler
func NewCalendarHandler(calendarService *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
	}
}

// ConnectResponse представляет ссылку на страницу согласия OAuth
type ConnectResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// ConnectRequest представляет код авторизации, полученный после согласия
type ConnectRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

// EventRequest представляет тело запроса на создание события
type EventRequest struct {
	Title       string    `json:"title" validate:"required,max=300"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Attendees   []string  `json:"attendees" validate:"omitempty,dive,email"`
}

// MeetingRequest представляет запрос на встречу по задаче
type MeetingRequest struct {
	TaskID   string `json:"taskId" validate:"required"`
	Duration int    `json:"duration" validate:"omitempty,min=1,max=1440"` // минуты
}

// ConnectURL обрабатывает GET /calendar/connect
func (h *CalendarHandler) ConnectURL(w http.ResponseWriter, r *http.Request) {
	url, state, err := h.calendarService.ConnectURL(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, ConnectResponse{URL: url, State: state})
}

// Connect обрабатывает POST /calendar/connect
func (h *CalendarHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.calendarService.Connect(r.Context(), currentEmail(r), req.Code, req.State); err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "calendar connected"})
}

// CreateEvent обрабатывает POST /calendar/events
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.calendarService.CreateEvent(r.Context(), currentEmail(r), service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Start:       req.StartTime,
		End:         req.EndTime,
		Attendees:   req.Attendees,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, event)
}

// CreateMeeting обрабатывает POST /calendar/meetings
func (h *CalendarHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	duration := time.Duration(req.Duration) * time.Minute
	event, err := h.calendarService.MeetingFromTask(r.Context(), currentEmail(r), req.TaskID, duration)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, event)
}
