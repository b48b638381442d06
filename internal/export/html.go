package export

import (
	"html/template"
	"io"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/tracker"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>TaskFlow Pro Report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; }
    .header { text-align: center; margin-bottom: 30px; }
    .section { margin-bottom: 25px; }
    .task-item { margin-bottom: 15px; padding: 10px; border: 1px solid #ddd; }
    .stats { display: grid; grid-template-columns: repeat(4, 1fr); gap: 15px; margin-bottom: 20px; }
    .stat-card { text-align: center; padding: 15px; border: 1px solid #ddd; }
    @media print { body { margin: 0; } }
  </style>
</head>
<body>
  <div class="header">
    <h1>📊 TaskFlow Pro Report</h1>
    <p>Generated on {{.Generated}}</p>
    {{if or .From .To}}<p>Date Range: {{.From}} to {{.To}}</p>{{end}}
  </div>

  <div class="section">
    <h2>📈 Summary Statistics</h2>
    <div class="stats">
      <div class="stat-card"><h3>{{.TotalTasks}}</h3><p>Total Tasks</p></div>
      <div class="stat-card"><h3>{{.CompletedTasks}}</h3><p>Completed</p></div>
      <div class="stat-card"><h3>{{.TotalTime}}</h3><p>Total Time</p></div>
      <div class="stat-card"><h3>{{.ProductivityScore}}%</h3><p>Productivity Score</p></div>
    </div>
  </div>

  <div class="section">
    <h2>📋 Task Details</h2>
    {{range .Tasks}}
    <div class="task-item">
      <h3>{{.Name}}</h3>
      {{if .Description}}<p><strong>Description:</strong> {{.Description}}</p>{{end}}
      <p><strong>Status:</strong> {{if .Completed}}✅ Completed{{else}}⏳ Active{{end}}</p>
      <p><strong>Created:</strong> {{.Created}}</p>
      {{if .Completed}}<p><strong>Completed:</strong> {{.CompletedAt}}</p>{{end}}
      <p><strong>Total Time:</strong> {{.TotalTime}}</p>
      <p><strong>Sessions:</strong> {{.Sessions}}</p>
    </div>
    {{end}}
  </div>
</body>
</html>
`))

type reportTask struct {
	Name        string
	Description string
	Completed   bool
	Created     string
	CompletedAt string
	TotalTime   string
	Sessions    int
}

type report struct {
	Generated         string
	From              string
	To                string
	TotalTasks        int
	CompletedTasks    int
	TotalTime         string
	ProductivityScore int
	Tasks             []reportTask
}

// WriteHTML пишет HTML отчет для печати в PDF
func WriteHTML(w io.Writer, s *domain.State, tasks []domain.Task, opts Options, now time.Time, loc *time.Location) error {
	rep := report{
		Generated:         now.In(loc).Format(timeLayout),
		From:              opts.FromDate,
		To:                opts.ToDate,
		TotalTasks:        len(tasks),
		ProductivityScore: tracker.ComputeAnalytics(s, now, loc).ProductivityScore,
		Tasks:             make([]reportTask, 0, len(tasks)),
	}

	var total time.Duration
	for i := range tasks {
		t := &tasks[i]
		spent := tracker.TaskTotals(t, now, loc).Total
		total += spent

		rt := reportTask{
			Name:        t.Name,
			Description: t.Description,
			Completed:   t.Completed,
			Created:     t.CreatedAt.In(loc).Format(timeLayout),
			TotalTime:   tracker.FormatShort(spent),
			Sessions:    len(t.Sessions),
		}
		if t.Completed {
			rep.CompletedTasks++
			if t.CompletedAt != nil {
				rt.CompletedAt = t.CompletedAt.In(loc).Format(timeLayout)
			}
		}
		rep.Tasks = append(rep.Tasks, rt)
	}
	rep.TotalTime = tracker.FormatShort(total)

	return reportTemplate.Execute(w, rep)
}
