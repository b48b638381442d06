package tracker

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aidar/taskflow/internal/domain"
)

// Totals суммарное время задачи
type Totals struct {
	Total time.Duration `json:"total"`
	Today time.Duration `json:"today"`
}

// Stats сводка для панели задач
type Stats struct {
	ActiveTasks    int           `json:"active_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	Today          time.Duration `json:"today"`
	TodayText      string        `json:"today_text"`
	ActiveTaskID   string        `json:"active_task_id,omitempty"`
	ActiveElapsed  time.Duration `json:"active_elapsed,omitempty"`
	ActiveTimer    string        `json:"active_timer,omitempty"`
}

// StartOfDay возвращает полночь дня now в часовом поясе loc
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// TaskTotals считает общее время и время за сегодня.
// Открытая сессия считается до now.
func TaskTotals(t *domain.Task, now time.Time, loc *time.Location) Totals {
	sod := StartOfDay(now, loc)

	var res Totals
	for i := range t.Sessions {
		res.Total += t.Sessions[i].Elapsed(now)
		res.Today += todayPart(&t.Sessions[i], sod, now)
	}
	return res
}

func todayPart(sess *domain.Session, sod, now time.Time) time.Duration {
	end := now
	if sess.End != nil {
		end = *sess.End
	}
	a := sess.Start
	if a.Before(sod) {
		a = sod
	}
	if d := end.Sub(a); d > 0 {
		return d
	}
	return 0
}

// TodayTotal возвращает время по всем задачам за сегодня
func TodayTotal(s *domain.State, now time.Time, loc *time.Location) time.Duration {
	sod := StartOfDay(now, loc)

	var total time.Duration
	for i := range s.Tasks {
		for j := range s.Tasks[i].Sessions {
			total += todayPart(&s.Tasks[i].Sessions[j], sod, now)
		}
	}
	return total
}

// ComputeStats собирает счетчики задач и время активного таймера
func ComputeStats(s *domain.State, now time.Time, loc *time.Location) Stats {
	var st Stats
	for i := range s.Tasks {
		if s.Tasks[i].Completed {
			st.CompletedTasks++
		} else {
			st.ActiveTasks++
		}
	}

	st.Today = TodayTotal(s, now, loc)
	st.TodayText = FormatHM(st.Today)

	if s.ActiveTaskID != "" {
		if t, ok := s.FindTask(s.ActiveTaskID); ok && t.RunningSince != nil {
			st.ActiveTaskID = t.ID
			st.ActiveElapsed = max(now.Sub(*t.RunningSince), 0)
			st.ActiveTimer = FormatClock(st.ActiveElapsed)
		}
	}

	return st
}

// CalendarEntry задача с дедлайном в календаре
type CalendarEntry struct {
	Task      domain.Task `json:"task"`
	DaysUntil int         `json:"days_until"`
	Relative  string      `json:"relative"`
}

// Calendar задачи с дедлайнами, разбитые на просроченные и предстоящие
type Calendar struct {
	Overdue  []CalendarEntry `json:"overdue"`
	Upcoming []CalendarEntry `json:"upcoming"`
}

// CalendarView возвращает незавершенные задачи с дедлайном по возрастанию дедлайна
func CalendarView(s *domain.State, now time.Time) Calendar {
	tasks := make([]domain.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.Deadline != nil && !t.Completed {
			tasks = append(tasks, t)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Deadline.Before(*tasks[j].Deadline)
	})

	cal := Calendar{Overdue: []CalendarEntry{}, Upcoming: []CalendarEntry{}}
	for _, t := range tasks {
		if t.Deadline.Before(now) {
			cal.Overdue = append(cal.Overdue, CalendarEntry{Task: t, Relative: "overdue"})
			continue
		}

		days := int(math.Ceil(t.Deadline.Sub(now).Hours() / 24))
		relative := "today"
		if days > 1 {
			relative = fmt.Sprintf("in %d days", days)
		}
		cal.Upcoming = append(cal.Upcoming, CalendarEntry{Task: t, DaysUntil: days, Relative: relative})
	}

	return cal
}
