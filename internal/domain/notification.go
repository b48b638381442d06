package domain

import "time"

// NotificationKind представляет тип уведомления
type NotificationKind string

// Типы уведомлений
const (
	NotificationDeadlinePassed NotificationKind = "deadline_passed"
	NotificationDeadlineSoon   NotificationKind = "deadline_soon"
	NotificationReminder       NotificationKind = "reminder"
	NotificationIdle           NotificationKind = "idle"
)

// MaxPendingNotifications ограничивает очередь неполученных уведомлений
const MaxPendingNotifications = 50

// Notification представляет всплывающее уведомление для пользователя
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	TaskID    string           `json:"task_id,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Details   string           `json:"details"`
	CreatedAt time.Time        `json:"created_at"`
}
