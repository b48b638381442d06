package tracker

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/taskflow/internal/domain"
)

// CheckNotifications проверяет дедлайны и напоминания незавершенных задач.
// Каждое уведомление срабатывает один раз; новые уведомления ставятся в очередь состояния.
func CheckNotifications(s *domain.State, now time.Time, warning time.Duration) []domain.Notification {
	var fired []domain.Notification

	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.Completed {
			continue
		}

		if t.Deadline != nil && !t.NotifiedDeadline {
			left := t.Deadline.Sub(now)
			switch {
			case left <= 0:
				fired = append(fired, newNotification(domain.NotificationDeadlinePassed, t, now,
					"🚨 Deadline Passed!", "Task: "+t.Name, orDefault(t.Description, "This task is overdue")))
				t.NotifiedDeadline = true
			case left <= warning && !t.NotifiedDeadlineWarning:
				minutes := int(math.Ceil(left.Minutes()))
				fired = append(fired, newNotification(domain.NotificationDeadlineSoon, t, now,
					"⏰ Deadline Soon!", "Task: "+t.Name, fmt.Sprintf("Due in %d minutes", minutes)))
				t.NotifiedDeadlineWarning = true
			}
		}

		if t.ReminderTime != nil && !t.NotifiedReminder && !t.ReminderTime.After(now) {
			fired = append(fired, newNotification(domain.NotificationReminder, t, now,
				"⏰ Reminder!", "Time to work on: "+t.Name, orDefault(t.Description, "No description")))
			t.NotifiedReminder = true
		}
	}

	Enqueue(s, fired...)
	return fired
}

// CheckIdle уведомляет о простое, если таймер идет, а активности не было дольше threshold.
// Уведомление срабатывает один раз до следующей активности; таймер не останавливается.
func CheckIdle(s *domain.State, now time.Time, threshold time.Duration) (*domain.Notification, bool) {
	if s.ActiveTaskID == "" || s.IdleNotified || s.LastActivity.IsZero() {
		return nil, false
	}
	t, ok := s.FindTask(s.ActiveTaskID)
	if !ok || !t.IsRunning() {
		return nil, false
	}
	if now.Sub(s.LastActivity) <= threshold {
		return nil, false
	}

	s.IdleNotified = true
	s.IdleTime += threshold

	n := newNotification(domain.NotificationIdle, t, now,
		"⏸️ Still working?",
		fmt.Sprintf("You've been idle for %d minutes", int(threshold.Minutes())),
		"Timer is still running on: "+t.Name)
	Enqueue(s, n)

	return &n, true
}

// Enqueue добавляет уведомления в очередь, вытесняя самые старые сверх MaxPendingNotifications
func Enqueue(s *domain.State, ns ...domain.Notification) {
	if len(ns) == 0 {
		return
	}
	s.Notifications = append(s.Notifications, ns...)
	if over := len(s.Notifications) - domain.MaxPendingNotifications; over > 0 {
		s.Notifications = append([]domain.Notification(nil), s.Notifications[over:]...)
	}
}

// Drain забирает все уведомления из очереди
func Drain(s *domain.State) []domain.Notification {
	out := s.Notifications
	if out == nil {
		out = []domain.Notification{}
	}
	s.Notifications = []domain.Notification{}
	return out
}

// Ack удаляет уведомление из очереди; возвращает false если его там нет
func Ack(s *domain.State, id string) bool {
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			s.Notifications = append(s.Notifications[:i], s.Notifications[i+1:]...)
			return true
		}
	}
	return false
}

func newNotification(kind domain.NotificationKind, t *domain.Task, now time.Time, title, message, details string) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		TaskID:    t.ID,
		Title:     title,
		Message:   message,
		Details:   details,
		CreatedAt: now,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
