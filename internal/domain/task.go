package domain

import "time"

// Priority представляет приоритет задачи
type Priority string

// Возможные приоритеты
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid проверяет, что приоритет из допустимого набора
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Session представляет непрерывный отрезок работы над задачей
type Session struct {
	Start             time.Time     `json:"start"`
	End               *time.Time    `json:"end"` // nil пока сессия идет
	Duration          time.Duration `json:"duration,omitempty"`
	FocusLevel        int           `json:"focus_level,omitempty"`
	ProductivityScore int           `json:"productivity_score,omitempty"`
}

// IsOpen возвращает true для незавершенной сессии
func (s *Session) IsOpen() bool {
	return s.End == nil
}

// Elapsed возвращает длительность сессии на момент now (не меньше нуля)
func (s *Session) Elapsed(now time.Time) time.Duration {
	end := now
	if s.End != nil {
		end = *s.End
	}
	if d := end.Sub(s.Start); d > 0 {
		return d
	}
	return 0
}

// Comment представляет комментарий к задаче
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// Task представляет задачу пользователя с сессиями учета времени
type Task struct {
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	Description             string     `json:"description"`
	Completed               bool       `json:"completed"`
	Deadline                *time.Time `json:"deadline,omitempty"`
	ReminderTime            *time.Time `json:"reminder_time,omitempty"`
	Priority                Priority   `json:"priority"`
	RunningSince            *time.Time `json:"running_since,omitempty"`
	Sessions                []Session  `json:"sessions"`
	Comments                []Comment  `json:"comments"`
	CreatedAt               time.Time  `json:"created_at"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`
	NotifiedDeadline        bool       `json:"notified_deadline"`
	NotifiedDeadlineWarning bool       `json:"notified_deadline_warning"`
	NotifiedReminder        bool       `json:"notified_reminder"`
}

// IsRunning возвращает true если по задаче идет таймер
func (t *Task) IsRunning() bool {
	return t.RunningSince != nil
}

// OpenSession возвращает последнюю незавершенную сессию
func (t *Task) OpenSession() (*Session, bool) {
	for i := len(t.Sessions) - 1; i >= 0; i-- {
		if t.Sessions[i].IsOpen() {
			return &t.Sessions[i], true
		}
	}
	return nil, false
}

// State представляет все данные трекера одного пользователя (ключ taskflow:data:<email>)
type State struct {
	Tasks         []Task         `json:"tasks"`
	ActiveTaskID  string         `json:"active_task_id,omitempty"`
	LastActivity  time.Time      `json:"last_activity"`
	IdleNotified  bool           `json:"idle_notified"`
	IdleTime      time.Duration  `json:"idle_time"`
	Notifications []Notification `json:"notifications"`
}

// NewState возвращает пустое состояние
func NewState() *State {
	return &State{
		Tasks:         []Task{},
		Notifications: []Notification{},
	}
}

// FindTask ищет задачу по ID
func (s *State) FindTask(id string) (*Task, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}
