package tracker

import (
	"math"
	"strings"
	"time"

	"github.com/aidar/taskflow/internal/domain"
)

// Фиксированные факторы фокуса: сложность задачи, перерывы, окружение
const (
	complexityFactor  = 7
	breaksFactor      = 6
	environmentFactor = 7

	highFocusLevel = 8
)

// FocusLevel оценивает уровень фокуса 1..10 по времени суток now
func FocusLevel(now time.Time) int {
	sum := timeOfDayFactor(now.Hour()) + complexityFactor + breaksFactor + environmentFactor
	level := int(math.Round(float64(sum) / 4))
	return min(max(level, 1), 10)
}

func timeOfDayFactor(hour int) int {
	switch {
	case hour >= 9 && hour <= 11:
		return 9
	case hour >= 14 && hour <= 16:
		return 8
	case hour >= 20 && hour <= 22:
		return 7
	default:
		return 5
	}
}

// SessionProductivity 20 очков за час (не больше 100) плюс 2 за каждый уровень фокуса
func SessionProductivity(sess *domain.Session, now time.Time) int {
	d := sess.Duration
	if d == 0 {
		d = sess.Elapsed(now)
	}
	focus := sess.FocusLevel
	if focus == 0 {
		focus = 5
	}

	base := math.Min(100, d.Hours()*20)
	return int(math.Round(base + float64(focus*2)))
}

// WeeklyBreakdown время по дням недели начала сессии
type WeeklyBreakdown struct {
	Monday    time.Duration `json:"monday"`
	Tuesday   time.Duration `json:"tuesday"`
	Wednesday time.Duration `json:"wednesday"`
	Thursday  time.Duration `json:"thursday"`
	Friday    time.Duration `json:"friday"`
	Weekend   time.Duration `json:"weekend"`
}

// PeakHours время по части дня начала сессии
type PeakHours struct {
	Morning   time.Duration `json:"morning"`   // до 12:00
	Afternoon time.Duration `json:"afternoon"` // 12:00-18:00
	Evening   time.Duration `json:"evening"`
}

// Analytics сводная аналитика по всем задачам
type Analytics struct {
	TotalTime         time.Duration   `json:"total_time"`
	TotalTimeText     string          `json:"total_time_text"`
	TotalTasks        int             `json:"total_tasks"`
	CompletedTasks    int             `json:"completed_tasks"`
	TotalSessions     int             `json:"total_sessions"`
	ProductivityScore int             `json:"productivity_score"` // % завершенных задач
	AvgSession        time.Duration   `json:"avg_session"`
	AvgSessionText    string          `json:"avg_session_text"`
	Weekly            WeeklyBreakdown `json:"weekly_breakdown"`
	PeakHours         PeakHours       `json:"peak_hours"`
}

// ComputeAnalytics считает аналитику по состоянию
func ComputeAnalytics(s *domain.State, now time.Time, loc *time.Location) Analytics {
	a := Analytics{TotalTasks: len(s.Tasks)}

	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.Completed {
			a.CompletedTasks++
		}
		for j := range t.Sessions {
			sess := &t.Sessions[j]
			d := sess.Elapsed(now)
			a.TotalTime += d
			a.TotalSessions++

			start := sess.Start.In(loc)
			a.Weekly.add(start.Weekday(), d)
			a.PeakHours.add(start.Hour(), d)
		}
	}

	a.ProductivityScore = min(100, a.CompletedTasks*100/max(1, a.TotalTasks))
	if a.TotalSessions > 0 {
		a.AvgSession = a.TotalTime / time.Duration(a.TotalSessions)
	}
	a.TotalTimeText = FormatHM(a.TotalTime)
	a.AvgSessionText = formatAvg(a.AvgSession)

	return a
}

func (w *WeeklyBreakdown) add(day time.Weekday, d time.Duration) {
	switch day {
	case time.Monday:
		w.Monday += d
	case time.Tuesday:
		w.Tuesday += d
	case time.Wednesday:
		w.Wednesday += d
	case time.Thursday:
		w.Thursday += d
	case time.Friday:
		w.Friday += d
	default:
		w.Weekend += d
	}
}

func (p *PeakHours) add(hour int, d time.Duration) {
	switch {
	case hour < 12:
		p.Morning += d
	case hour < 18:
		p.Afternoon += d
	default:
		p.Evening += d
	}
}

// ProductivityMetrics метрики за последние 24 часа
type ProductivityMetrics struct {
	TotalActiveTime   time.Duration `json:"total_active_time"`
	TotalIdleTime     time.Duration `json:"total_idle_time"`
	Sessions          int           `json:"sessions"`
	HighFocusSessions int           `json:"high_focus_sessions"`
	ProductivityScore int           `json:"productivity_score"`
}

// ComputeProductivity считает метрики по сессиям, начатым за последние 24 часа.
// Оценка: доля сессий с высоким фокусом (до 50) плюс средняя длина сессии к 30 минутам (до 50).
func ComputeProductivity(s *domain.State, now time.Time) ProductivityMetrics {
	since := now.Add(-24 * time.Hour)
	m := ProductivityMetrics{TotalIdleTime: s.IdleTime}

	for i := range s.Tasks {
		for j := range s.Tasks[i].Sessions {
			sess := &s.Tasks[i].Sessions[j]
			if !sess.Start.After(since) {
				continue
			}
			m.TotalActiveTime += sess.Elapsed(now)
			m.Sessions++
			if sess.FocusLevel >= highFocusLevel {
				m.HighFocusSessions++
			}
		}
	}

	if m.Sessions > 0 {
		avg := m.TotalActiveTime / time.Duration(m.Sessions)
		ratio := float64(m.HighFocusSessions) / float64(m.Sessions)
		lengthScore := math.Min(float64(avg)/float64(30*time.Minute), 1)
		m.ProductivityScore = int(math.Round(ratio*50 + lengthScore*50))
	}

	return m
}

func formatAvg(d time.Duration) string {
	if d >= time.Hour {
		return FormatHM(d)
	}
	return strings.TrimPrefix(FormatHM(d), "0h ")
}
