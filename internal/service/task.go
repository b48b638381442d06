package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/export"
	"github.com/aidar/taskflow/internal/parser"
	"github.com/aidar/taskflow/internal/repository"
	"github.com/aidar/taskflow/internal/tracker"
)

// TaskLimiter reports how many tasks a user's plan allows (0 means unlimited)
type TaskLimiter interface {
	TaskLimit(ctx context.Context, email string) (int, error)
}

// CreateTaskInput is the request to add a task
type CreateTaskInput struct {
	Text        string
	Description string
	Priority    domain.Priority
	Deadline    *time.Time
}

// TaskView is a task together with its computed totals
type TaskView struct {
	domain.Task
	TotalTime time.Duration `json:"total_time"`
	TodayTime time.Duration `json:"today_time"`
	TotalText string        `json:"total_text"`
	IsActive  bool          `json:"is_active"`
}

// TaskList is the task panel
type TaskList struct {
	Tasks []TaskView    `json:"tasks"`
	Stats tracker.Stats `json:"stats"`
}

// ExportResult is an encoded export ready to be sent
type ExportResult struct {
	Format      export.Format
	ContentType string
	Filename    string
	Body        []byte
}

// TaskService owns every user's tracker state.
// Each operation loads the state, applies a tracker mutation and saves it
// while holding the user's lock.
type TaskService struct {
	states          repository.StateRepository
	limiter         TaskLimiter
	logger          *slog.Logger
	loc             *time.Location
	deadlineWarning time.Duration
	idleThreshold   time.Duration
	now             func() time.Time

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock is dropped from the map once no caller holds or waits for it
type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewTaskService creates a new TaskService
func NewTaskService(
	states repository.StateRepository,
	limiter TaskLimiter,
	logger *slog.Logger,
	loc *time.Location,
	deadlineWarning, idleThreshold time.Duration,
) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{
		states:          states,
		limiter:         limiter,
		logger:          logger,
		loc:             loc,
		deadlineWarning: deadlineWarning,
		idleThreshold:   idleThreshold,
		now:             time.Now,
		locks:           make(map[string]*userLock),
	}
}

func (s *TaskService) lock(email string) func() {
	s.mu.Lock()
	l, ok := s.locks[email]
	if !ok {
		l = &userLock{}
		s.locks[email] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, email)
		}
		s.mu.Unlock()
	}
}

func (s *TaskService) load(ctx context.Context, email string) (*domain.State, error) {
	state, err := s.states.Load(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := tracker.Validate(state); err != nil {
		s.logger.Warn("Loaded state violates invariants", "user", email, "error", err)
	}
	return state, nil
}

// mutate runs fn on the user's state and persists it when fn succeeds
func (s *TaskService) mutate(ctx context.Context, email string, fn func(st *domain.State, now time.Time) error) (*domain.State, error) {
	unlock := s.lock(email)
	defer unlock()

	state, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := fn(state, s.now()); err != nil {
		return nil, err
	}

	if err := s.states.Save(ctx, email, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}
	return state, nil
}

// read loads the state under the user's lock without saving it
func (s *TaskService) read(ctx context.Context, email string) (*domain.State, error) {
	unlock := s.lock(email)
	defer unlock()
	return s.load(ctx, email)
}

func (s *TaskService) view(st *domain.State, t *domain.Task, now time.Time) TaskView {
	totals := tracker.TaskTotals(t, now, s.loc)
	return TaskView{
		Task:      *t,
		TotalTime: totals.Total,
		TodayTime: totals.Today,
		TotalText: tracker.FormatShort(totals.Total),
		IsActive:  st.ActiveTaskID == t.ID,
	}
}

// AddTask parses the free text into a task and prepends it.
// An explicit description replaces the parsed one.
func (s *TaskService) AddTask(ctx context.Context, email string, in CreateTaskInput) (*TaskView, error) {
	parsed, ok := parser.Parse(in.Text)
	if !ok {
		return nil, domain.ErrEmptyTask
	}

	limit, err := s.limiter.TaskLimit(ctx, email)
	if err != nil {
		return nil, err
	}

	priority := parsed.Priority
	if priority == "" {
		priority = in.Priority
	}
	if !priority.Valid() {
		priority = domain.PriorityMedium
	}

	description := parsed.Description
	if d := strings.TrimSpace(in.Description); d != "" {
		description = d
	}

	var view TaskView
	_, err = s.mutate(ctx, email, func(st *domain.State, now time.Time) error {
		if limit > 0 && len(st.Tasks) >= limit {
			return domain.ErrPlanLimitReached
		}
		t, err := tracker.AddTask(st, tracker.Draft{
			Name:        parsed.Name,
			Description: description,
			Priority:    priority,
			Deadline:    in.Deadline,
		}, now)
		if err != nil {
			return err
		}
		view = s.view(st, t, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task created", "user", email, "task_id", view.ID)
	return &view, nil
}

// List returns all tasks with totals and the panel statistics
func (s *TaskService) List(ctx context.Context, email string) (*TaskList, error) {
	st, err := s.read(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := &TaskList{
		Tasks: make([]TaskView, 0, len(st.Tasks)),
		Stats: tracker.ComputeStats(st, now, s.loc),
	}
	for i := range st.Tasks {
		list.Tasks = append(list.Tasks, s.view(st, &st.Tasks[i], now))
	}
	return list, nil
}

// GetTask returns a single task
func (s *TaskService) GetTask(ctx context.Context, email, id string) (*TaskView, error) {
	st, err := s.read(ctx, email)
	if err != nil {
		return nil, err
	}
	t, ok := st.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	view := s.view(st, t, s.now())
	return &view, nil
}

// taskOp applies a tracker operation that returns the changed task
func (s *TaskService) taskOp(ctx context.Context, email string, op func(st *domain.State, now time.Time) (*domain.Task, error)) (*TaskView, error) {
	var view TaskView
	_, err := s.mutate(ctx, email, func(st *domain.State, now time.Time) error {
		t, err := op(st, now)
		if err != nil {
			return err
		}
		view = s.view(st, t, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Start starts the task's timer, stopping any other running task first
func (s *TaskService) Start(ctx context.Context, email, id string) (*TaskView, error) {
	return s.taskOp(ctx, email, func(st *domain.State, now time.Time) (*domain.Task, error) {
		return tracker.StartTimer(st, id, now, s.loc)
	})
}

// Stop stops the task's timer
func (s *TaskService) Stop(ctx context.Context, email, id string) (*TaskView, error) {
	return s.taskOp(ctx, email, func(st *domain.State, now time.Time) (*domain.Task, error) {
		return tracker.StopTimer(st, id, now)
	})
}

// Toggle flips the completion flag of a task
func (s *TaskService) Toggle(ctx context.Context, email, id string) (*TaskView, error) {
	return s.taskOp(ctx, email, func(st *domain.State, now time.Time) (*domain.Task, error) {
		return tracker.ToggleComplete(st, id, now)
	})
}

// SetReminder schedules a reminder minutes from now
func (s *TaskService) SetReminder(ctx context.Context, email, id string, minutes int) (*TaskView, error) {
	return s.taskOp(ctx, email, func(st *domain.State, now time.Time) (*domain.Task, error) {
		return tracker.SetReminder(st, id, minutes, now)
	})
}

// ClearReminder removes a task's reminder
func (s *TaskService) ClearReminder(ctx context.Context, email, id string) (*TaskView, error) {
	return s.taskOp(ctx, email, func(st *domain.State, _ time.Time) (*domain.Task, error) {
		return tracker.ClearReminder(st, id)
	})
}

// Delete removes a task
func (s *TaskService) Delete(ctx context.Context, email, id string) error {
	_, err := s.mutate(ctx, email, func(st *domain.State, _ time.Time) error {
		return tracker.DeleteTask(st, id)
	})
	return err
}

// Comment appends a comment authored by the user
func (s *TaskService) Comment(ctx context.Context, email, id, text string) (*domain.Comment, error) {
	var comment *domain.Comment
	_, err := s.mutate(ctx, email, func(st *domain.State, now time.Time) error {
		c, err := tracker.AddComment(st, id, text, email, now)
		if err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Clear removes every task of the user
func (s *TaskService) Clear(ctx context.Context, email string) error {
	_, err := s.mutate(ctx, email, func(st *domain.State, _ time.Time) error {
		tracker.Clear(st)
		return nil
	})
	if err == nil {
		s.logger.Info("Tasks cleared", "user", email)
	}
	return err
}

// Stats returns the panel statistics
func (s *TaskService) Stats(ctx context.Context, email string) (*tracker.Stats, error) {
	st, err := s.read(ctx, email)
	if err != nil {
		return nil, err
	}
	stats := tracker.ComputeStats(st, s.now(), s.loc)
	return &stats, nil
}

// Calendar returns open tasks with deadlines split into overdue and upcoming
func (s *TaskService) Calendar(ctx context.Context, email string) (*tracker.Calendar, error) {
	st, err := s.read(ctx, email)
	if err != nil {
		return nil, err
	}
	cal := tracker.CalendarView(st, s.now())
	return &cal, nil
}

// Analytics returns overall analytics and the last-24h productivity metrics
func (s *TaskService) Analytics(ctx context.Context, email string) (*tracker.Analytics, *tracker.ProductivityMetrics, error) {
	st, err := s.read(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	a := tracker.ComputeAnalytics(st, now, s.loc)
	p := tracker.ComputeProductivity(st, now)
	return &a, &p, nil
}

// Export encodes the user's tasks in the requested format
func (s *TaskService) Export(ctx context.Context, email string, format export.Format, opts export.Options) (*ExportResult, error) {
	st, err := s.read(ctx, email)
	if err != nil {
		return nil, err
	}

	tasks, err := export.Filter(st.Tasks, opts, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := s.now()
	var buf bytes.Buffer
	switch format {
	case export.FormatCSV:
		err = export.WriteCSV(&buf, tasks, opts, now, s.loc)
	case export.FormatJSON:
		err = export.WriteJSON(&buf, export.BuildDocument(st, tasks, opts, now, s.loc))
	case export.FormatHTML:
		err = export.WriteHTML(&buf, st, tasks, opts, now, s.loc)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", domain.ErrValidation, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return &ExportResult{
		Format:      format,
		ContentType: format.ContentType(),
		Filename:    format.Filename(now),
		Body:        buf.Bytes(),
	}, nil
}

// Notifications drains the user's pending notifications
func (s *TaskService) Notifications(ctx context.Context, email string) ([]domain.Notification, error) {
	var out []domain.Notification
	_, err := s.mutate(ctx, email, func(st *domain.State, _ time.Time) error {
		out = tracker.Drain(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AckNotification removes a single pending notification
func (s *TaskService) AckNotification(ctx context.Context, email, id string) (bool, error) {
	var found bool
	_, err := s.mutate(ctx, email, func(st *domain.State, _ time.Time) error {
		found = tracker.Ack(st, id)
		return nil
	})
	return found, err
}

// Activity records user activity for idle detection
func (s *TaskService) Activity(ctx context.Context, email string) error {
	_, err := s.mutate(ctx, email, func(st *domain.State, now time.Time) error {
		tracker.Touch(st, now)
		return nil
	})
	return err
}

// CheckUser queues due deadline and reminder notifications for one user
func (s *TaskService) CheckUser(ctx context.Context, email string) (int, error) {
	var queued int
	_, err := s.mutate(ctx, email, func(st *domain.State, now time.Time) error {
		queued = len(tracker.CheckNotifications(st, now, s.deadlineWarning))
		return nil
	})
	return queued, err
}

// CheckIdleUser queues an idle notification for one user when due
func (s *TaskService) CheckIdleUser(ctx context.Context, email string) (bool, error) {
	var fired bool
	_, err := s.mutate(ctx, email, func(st *domain.State, now time.Time) error {
		_, fired = tracker.CheckIdle(st, now, s.idleThreshold)
		return nil
	})
	return fired, err
}

// CheckAll runs the notification check for every stored user
func (s *TaskService) CheckAll(ctx context.Context) (int, error) {
	return s.forEachUser(ctx, func(email string) (int, error) {
		return s.CheckUser(ctx, email)
	})
}

// CheckIdleAll runs the idle check for every stored user
func (s *TaskService) CheckIdleAll(ctx context.Context) (int, error) {
	return s.forEachUser(ctx, func(email string) (int, error) {
		fired, err := s.CheckIdleUser(ctx, email)
		if fired {
			return 1, err
		}
		return 0, err
	})
}

func (s *TaskService) forEachUser(ctx context.Context, fn func(email string) (int, error)) (int, error) {
	emails, err := s.states.Emails(ctx)
	if err != nil {
		return 0, err
	}

	var total int
	for _, email := range emails {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := fn(email)
		if err != nil {
			// One broken state must not stop the scan
			s.logger.Error("User check failed", "user", email, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}
