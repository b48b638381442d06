// Package export выгружает задачи в CSV, JSON и HTML отчет.
package export

import (
	"fmt"
	"time"

	"github.com/aidar/taskflow/internal/domain"
)

// Format формат выгрузки
type Format string

// Поддерживаемые форматы
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

const dateLayout = "2006-01-02"

// timeLayout формат дат в CSV и отчете
const timeLayout = "2006-01-02 15:04:05"

// Options параметры выгрузки
type Options struct {
	IncludeSessions  bool   `json:"includeSessions"`
	IncludeAnalytics bool   `json:"includeAnalytics"`
	IncludeComments  bool   `json:"includeComments"`
	IncludeMetadata  bool   `json:"includeMetadata"`
	FromDate         string `json:"fromDate,omitempty"`
	ToDate           string `json:"toDate,omitempty"`
}

// DefaultOptions соответствуют настройкам формы выгрузки по умолчанию
func DefaultOptions() Options {
	return Options{
		IncludeSessions:  true,
		IncludeAnalytics: true,
		IncludeComments:  true,
	}
}

// ParseFormat проверяет формат выгрузки; pdf считается HTML отчетом для печати
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "html", "pdf":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", domain.ErrValidation, s)
}

// ContentType возвращает MIME тип формата
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/csv"
	}
}

// Filename имя файла выгрузки на дату now
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("taskflow-export-%s.%s", now.Format(dateLayout), f)
}

// Filter оставляет задачи, созданные в диапазоне дат или имеющие сессию, начатую в нем.
// Пустые границы не ограничивают; конец диапазона включает весь день ToDate.
func Filter(tasks []domain.Task, opts Options, loc *time.Location) ([]domain.Task, error) {
	from, to, err := bounds(opts, loc)
	if err != nil {
		return nil, err
	}

	in := func(t time.Time) bool {
		return !t.Before(from) && (to.IsZero() || !t.After(to))
	}

	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if in(t.CreatedAt) {
			out = append(out, t)
			continue
		}
		for _, s := range t.Sessions {
			if in(s.Start) {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func bounds(opts Options, loc *time.Location) (time.Time, time.Time, error) {
	var from, to time.Time

	if opts.FromDate != "" {
		d, err := time.ParseInLocation(dateLayout, opts.FromDate, loc)
		if err != nil {
			return from, to, fmt.Errorf("%w: invalid fromDate: %v", domain.ErrValidation, err)
		}
		from = d
	}
	if opts.ToDate != "" {
		d, err := time.ParseInLocation(dateLayout, opts.ToDate, loc)
		if err != nil {
			return from, to, fmt.Errorf("%w: invalid toDate: %v", domain.ErrValidation, err)
		}
		to = d.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}
