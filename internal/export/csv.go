package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/tracker"
)

// Header заголовок CSV выгрузки
var Header = []string{"Task", "Description", "Status", "Created", "Completed", "Total Time", "Sessions"}

// Record строка CSV выгрузки
type Record struct {
	Task        string
	Description string
	Status      string
	Created     string
	Completed   string
	TotalTime   string
	Sessions    string
}

// ErrBadHeader возвращается ReadCSV если заголовок не совпадает с Header
var ErrBadHeader = errors.New("unexpected csv header")

// WriteCSV пишет задачи в CSV. Поля с кавычками, запятыми и переводами строк экранируются.
func WriteCSV(w io.Writer, tasks []domain.Task, opts Options, now time.Time, loc *time.Location) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}
	for i := range tasks {
		if err := cw.Write(toRecord(&tasks[i], opts, now, loc).fields()); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func toRecord(t *domain.Task, opts Options, now time.Time, loc *time.Location) Record {
	rec := Record{
		Task:        t.Name,
		Description: t.Description,
		Status:      "Active",
		Created:     t.CreatedAt.In(loc).Format(timeLayout),
		TotalTime:   tracker.FormatShort(tracker.TaskTotals(t, now, loc).Total),
		Sessions:    fmt.Sprintf("%d sessions", len(t.Sessions)),
	}

	if t.Completed {
		rec.Status = "Completed"
		if t.CompletedAt != nil {
			rec.Completed = t.CompletedAt.In(loc).Format(timeLayout)
		}
	}

	if opts.IncludeSessions {
		parts := make([]string, 0, len(t.Sessions))
		for i := range t.Sessions {
			s := &t.Sessions[i]
			parts = append(parts, fmt.Sprintf("%s (%s)",
				s.Start.In(loc).Format(timeLayout), tracker.FormatShort(s.Elapsed(now))))
		}
		rec.Sessions = strings.Join(parts, "; ")
	}

	return rec
}

func (r Record) fields() []string {
	return []string{r.Task, r.Description, r.Status, r.Created, r.Completed, r.TotalTime, r.Sessions}
}

// crMark временно заменяет \r внутри кавычек: csv.Reader сворачивает \r\n в \n
const crMark = '\x00'

// protectCR прячет \r в полях в кавычках; ok=false если в данных уже есть crMark
func protectCR(data []byte) ([]byte, bool) {
	if bytes.IndexByte(data, crMark) >= 0 {
		return data, false
	}

	out := make([]byte, len(data))
	quoted := false
	for i, b := range data {
		switch {
		case b == '"':
			quoted = !quoted
		case b == '\r' && quoted:
			b = crMark
		}
		out[i] = b
	}
	return out, true
}

// ReadCSV разбирает выгрузку WriteCSV обратно в записи.
// Переводы строк \r\n внутри полей сохраняются как есть.
func ReadCSV(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data, marked := protectCR(data)
	restore := func(s string) string {
		if !marked {
			return s
		}
		return strings.ReplaceAll(s, string(crMark), "\r")
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range Header {
		if header[i] != Header[i] {
			return nil, ErrBadHeader
		}
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		for i := range row {
			row[i] = restore(row[i])
		}
		out = append(out, Record{
			Task:        row[0],
			Description: row[1],
			Status:      row[2],
			Created:     row[3],
			Completed:   row[4],
			TotalTime:   row[5],
			Sessions:    row[6],
		})
	}

	return out, nil
}
