package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/tracker"
)

// Info шапка JSON выгрузки
type Info struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Format    string    `json:"format"`
	Options   Options   `json:"options"`
}

// Metadata служебные поля задачи
type Metadata struct {
	ReminderTime     *time.Time `json:"reminderTime"`
	NotifiedDeadline bool       `json:"notifiedDeadline"`
	NotifiedReminder bool       `json:"notifiedReminder"`
}

// TaskDocument задача в JSON выгрузке
type TaskDocument struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
	Deadline    *time.Time `json:"deadline"`
	// Sessions список сессий или их количество, если сессии не включены
	Sessions any              `json:"sessions"`
	Comments []domain.Comment `json:"comments,omitempty"`
	Metadata *Metadata        `json:"metadata,omitempty"`
}

// Document JSON выгрузка целиком
type Document struct {
	ExportInfo          Info                         `json:"exportInfo"`
	Tasks               []TaskDocument               `json:"tasks"`
	Analytics           *tracker.Analytics           `json:"analytics,omitempty"`
	ProductivityMetrics *tracker.ProductivityMetrics `json:"productivityMetrics,omitempty"`
}

// BuildDocument собирает JSON выгрузку. Аналитика считается по всему состоянию, а не по выборке.
func BuildDocument(s *domain.State, tasks []domain.Task, opts Options, now time.Time, loc *time.Location) Document {
	doc := Document{
		ExportInfo: Info{
			Timestamp: now,
			Version:   "1.0",
			Format:    "TaskFlow Pro Export",
			Options:   opts,
		},
		Tasks: make([]TaskDocument, 0, len(tasks)),
	}

	for _, t := range tasks {
		td := TaskDocument{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt,
			CompletedAt: t.CompletedAt,
			Deadline:    t.Deadline,
			Sessions:    len(t.Sessions),
		}
		if opts.IncludeSessions {
			td.Sessions = t.Sessions
		}
		if opts.IncludeComments {
			td.Comments = t.Comments
		}
		if opts.IncludeMetadata {
			td.Metadata = &Metadata{
				ReminderTime:     t.ReminderTime,
				NotifiedDeadline: t.NotifiedDeadline,
				NotifiedReminder: t.NotifiedReminder,
			}
		}
		doc.Tasks = append(doc.Tasks, td)
	}

	if opts.IncludeAnalytics {
		a := tracker.ComputeAnalytics(s, now, loc)
		m := tracker.ComputeProductivity(s, now)
		doc.Analytics = &a
		doc.ProductivityMetrics = &m
	}

	return doc
}

// WriteJSON пишет выгрузку с отступами
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
