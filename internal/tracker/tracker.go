// Package tracker содержит учет времени по задачам пользователя.
//
// Все функции работают с *domain.State, загруженным вызывающей стороной,
// и получают текущее время параметром. Сохранение состояния остается за сервисом.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/taskflow/internal/domain"
)

// ErrInvariant возвращается Validate при нарушении инвариантов состояния
var ErrInvariant = errors.New("tracker state invariant violated")

// Draft данные для создания задачи
type Draft struct {
	Name        string
	Description string
	Priority    domain.Priority
	Deadline    *time.Time
}

// AddTask добавляет задачу в начало списка
func AddTask(s *domain.State, d Draft, now time.Time) (*domain.Task, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, domain.ErrEmptyTask
	}

	priority := d.Priority
	if !priority.Valid() {
		priority = domain.PriorityMedium
	}

	task := domain.Task{
		ID:          uuid.NewString(),
		Name:        name,
		Description: d.Description,
		Deadline:    d.Deadline,
		Priority:    priority,
		Sessions:    []domain.Session{},
		Comments:    []domain.Comment{},
		CreatedAt:   now,
	}

	s.Tasks = append([]domain.Task{task}, s.Tasks...)
	return &s.Tasks[0], nil
}

// StartTimer запускает таймер задачи.
// Активная задача останавливается до открытия новой сессии.
func StartTimer(s *domain.State, id string, now time.Time, loc *time.Location) (*domain.Task, error) {
	target, ok := s.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if target.Completed {
		return nil, domain.ErrTaskCompleted
	}
	if target.IsRunning() {
		return target, nil
	}

	// Останавливаем все остальные таймеры, а не только ActiveTaskID:
	// состояние могло прийти из хранилища рассогласованным
	for i := range s.Tasks {
		if s.Tasks[i].ID != id && s.Tasks[i].IsRunning() {
			stop(s, &s.Tasks[i], now)
		}
	}

	if loc == nil {
		loc = time.UTC
	}
	started := now
	target.RunningSince = &started
	target.Sessions = append(target.Sessions, domain.Session{
		Start:      now,
		FocusLevel: FocusLevel(now.In(loc)),
	})
	s.ActiveTaskID = id
	Touch(s, now)

	return target, nil
}

// StopTimer останавливает таймер задачи
func StopTimer(s *domain.State, id string, now time.Time) (*domain.Task, error) {
	t, ok := s.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if !t.IsRunning() {
		return nil, domain.ErrTimerNotRunning
	}

	stop(s, t, now)
	return t, nil
}

func stop(s *domain.State, t *domain.Task, now time.Time) {
	if sess, ok := t.OpenSession(); ok {
		end := now
		sess.End = &end
		sess.Duration = sess.Elapsed(now)
		sess.ProductivityScore = SessionProductivity(sess, now)
	}
	t.RunningSince = nil

	if s.ActiveTaskID == t.ID {
		s.ActiveTaskID = ""
	}
}

// ToggleComplete переключает признак завершения; завершение останавливает таймер
func ToggleComplete(s *domain.State, id string, now time.Time) (*domain.Task, error) {
	t, ok := s.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
		return t, nil
	}

	if t.IsRunning() {
		stop(s, t, now)
	}
	completed := now
	t.Completed = true
	t.CompletedAt = &completed

	return t, nil
}

// DeleteTask удаляет задачу
func DeleteTask(s *domain.State, id string) error {
	idx := -1
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrTaskNotFound
	}

	if s.ActiveTaskID == id {
		s.ActiveTaskID = ""
	}
	s.Tasks = append(s.Tasks[:idx], s.Tasks[idx+1:]...)

	return nil
}

// AddComment добавляет комментарий к задаче
func AddComment(s *domain.State, id, text, author string, now time.Time) (*domain.Comment, error) {
	t, ok := s.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyComment
	}
	if author == "" {
		author = "User"
	}

	t.Comments = append(t.Comments, domain.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		Timestamp: now,
	})

	return &t.Comments[len(t.Comments)-1], nil
}

// SetReminder ставит напоминание через minutes минут
func SetReminder(s *domain.State, id string, minutes int, now time.Time) (*domain.Task, error) {
	t, ok := s.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if t.Completed {
		return nil, domain.ErrTaskCompleted
	}
	if minutes <= 0 {
		return nil, domain.ErrInvalidReminder
	}

	at := now.Add(time.Duration(minutes) * time.Minute)
	t.ReminderTime = &at
	t.NotifiedReminder = false

	return t, nil
}

// ClearReminder снимает напоминание
func ClearReminder(s *domain.State, id string) (*domain.Task, error) {
	t, ok := s.FindTask(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	t.ReminderTime = nil
	t.NotifiedReminder = false

	return t, nil
}

// Clear удаляет все задачи и сессии
func Clear(s *domain.State) {
	lastActivity := s.LastActivity
	*s = *domain.NewState()
	s.LastActivity = lastActivity
}

// Touch отмечает активность пользователя
func Touch(s *domain.State, now time.Time) {
	s.LastActivity = now
	s.IdleNotified = false
}

// Validate проверяет инварианты: не больше одной открытой сессии на задачу,
// не больше одной запущенной задачи, ActiveTaskID указывает на запущенную задачу
func Validate(s *domain.State) error {
	running := 0
	for i := range s.Tasks {
		t := &s.Tasks[i]

		open := 0
		for j := range t.Sessions {
			if t.Sessions[j].IsOpen() {
				open++
			}
		}
		if open > 1 {
			return fmt.Errorf("%w: task %s has %d open sessions", ErrInvariant, t.ID, open)
		}
		if t.IsRunning() != (open == 1) {
			return fmt.Errorf("%w: task %s running flag does not match sessions", ErrInvariant, t.ID)
		}
		if t.IsRunning() {
			running++
		}
	}

	if running > 1 {
		return fmt.Errorf("%w: %d tasks are running", ErrInvariant, running)
	}

	if s.ActiveTaskID != "" {
		t, ok := s.FindTask(s.ActiveTaskID)
		if !ok || !t.IsRunning() {
			return fmt.Errorf("%w: active task %s is not running", ErrInvariant, s.ActiveTaskID)
		}
	} else if running > 0 {
		return fmt.Errorf("%w: running task without active id", ErrInvariant)
	}

	return nil
}
