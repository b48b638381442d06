package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/export"
	"github.com/aidar/taskflow/internal/service"
	"github.com/aidar/taskflow/internal/tracker"
)

// TaskHandler обрабатывает эндпоинты задач и учета времени
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler создает новый TaskHandler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTaskRequest представляет тело запроса на создание задачи
type CreateTaskRequest struct {
	Text        string          `json:"text" validate:"required,max=1000"`
	Description string          `json:"description" validate:"max=5000"`
	Priority    domain.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time      `json:"deadline"`
}

// CommentRequest представляет тело запроса на комментарий
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// ReminderRequest представляет тело запроса на напоминание
type ReminderRequest struct {
	Minutes int `json:"minutes" validate:"required,min=1"`
}

// AnalyticsResponse представляет ответ с аналитикой
type AnalyticsResponse struct {
	Analytics    *tracker.Analytics           `json:"analytics"`
	Productivity *tracker.ProductivityMetrics `json:"productivity"`
}

// NotificationsResponse представляет список уведомлений
type NotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// CreateTask обрабатывает POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.AddTask(r.Context(), currentEmail(r), service.CreateTaskInput{
		Text:        req.Text,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks обрабатывает GET /tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.taskService.List(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, list)
}

// GetTask обрабатывает GET /tasks/{taskID}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), currentEmail(r), chi.URLParam(r, "taskID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask обрабатывает DELETE /tasks/{taskID}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Delete(r.Context(), currentEmail(r), chi.URLParam(r, "taskID")); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearTasks обрабатывает DELETE /tasks
func (h *TaskHandler) ClearTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Clear(r.Context(), currentEmail(r)); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// taskAction общий обработчик операций над одной задачей
func (h *TaskHandler) taskAction(w http.ResponseWriter, r *http.Request, op func(email, id string) (*service.TaskView, error)) {
	task, err := op(currentEmail(r), chi.URLParam(r, "taskID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, task)
}

// StartTimer обрабатывает POST /tasks/{taskID}/start
func (h *TaskHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, func(email, id string) (*service.TaskView, error) {
		return h.taskService.Start(r.Context(), email, id)
	})
}

// StopTimer обрабатывает POST /tasks/{taskID}/stop
func (h *TaskHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, func(email, id string) (*service.TaskView, error) {
		return h.taskService.Stop(r.Context(), email, id)
	})
}

// ToggleComplete обрабатывает POST /tasks/{taskID}/toggle
func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, func(email, id string) (*service.TaskView, error) {
		return h.taskService.Toggle(r.Context(), email, id)
	})
}

// SetReminder обрабатывает POST /tasks/{taskID}/reminder
func (h *TaskHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	var req ReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.taskAction(w, r, func(email, id string) (*service.TaskView, error) {
		return h.taskService.SetReminder(r.Context(), email, id, req.Minutes)
	})
}

// ClearReminder обрабатывает DELETE /tasks/{taskID}/reminder
func (h *TaskHandler) ClearReminder(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, func(email, id string) (*service.TaskView, error) {
		return h.taskService.ClearReminder(r.Context(), email, id)
	})
}

// AddComment обрабатывает POST /tasks/{taskID}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.taskService.Comment(r.Context(), currentEmail(r), chi.URLParam(r, "taskID"), req.Text)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, comment)
}

// Stats обрабатывает GET /tasks/stats
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.taskService.Stats(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}

// Calendar обрабатывает GET /tasks/calendar
func (h *TaskHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.taskService.Calendar(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, cal)
}

// Export обрабатывает GET /tasks/export?format=csv|json|html|pdf&from=&to=&sessions=&analytics=&comments=&metadata=
func (h *TaskHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	opts := export.DefaultOptions()
	opts.IncludeSessions = queryBool(q.Get("sessions"), opts.IncludeSessions)
	opts.IncludeAnalytics = queryBool(q.Get("analytics"), opts.IncludeAnalytics)
	opts.IncludeComments = queryBool(q.Get("comments"), opts.IncludeComments)
	opts.IncludeMetadata = queryBool(q.Get("metadata"), opts.IncludeMetadata)
	opts.FromDate = q.Get("from")
	opts.ToDate = q.Get("to")

	result, err := h.taskService.Export(r.Context(), currentEmail(r), format, opts)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Body)
}

// queryBool разбирает булев параметр, пустой или неверный дает def
func queryBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Analytics обрабатывает GET /analytics
func (h *TaskHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, p, err := h.taskService.Analytics(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, AnalyticsResponse{Analytics: a, Productivity: p})
}

// Notifications обрабатывает GET /notifications (забирает очередь)
func (h *TaskHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.taskService.Notifications(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if ns == nil {
		ns = []domain.Notification{}
	}

	RespondWithJSON(w, r, http.StatusOK, NotificationsResponse{Notifications: ns})
}

// AckNotification обрабатывает DELETE /notifications/{notificationID}
func (h *TaskHandler) AckNotification(w http.ResponseWriter, r *http.Request) {
	found, err := h.taskService.AckNotification(r.Context(), currentEmail(r), chi.URLParam(r, "notificationID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if !found {
		RespondWithError(w, r, http.StatusNotFound, string(domain.CodeNotFound), "notification not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Activity обрабатывает POST /activity
func (h *TaskHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Activity(r.Context(), currentEmail(r)); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
