package service

import (
	"context"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
	"github.com/aidar/taskflow/internal/tracker"
)

// UserStats represents statistics for a user
type UserStats struct {
	UserID         string        `json:"user_id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Plan           domain.PlanID `json:"plan"`
	Teams          int           `json:"teams"`
	Tasks          int           `json:"tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	TimerRunning   bool          `json:"timer_running"`
	TotalTime      time.Duration `json:"total_time"`
	LastLogin      time.Time     `json:"last_login"`
}

// Totals represents statistics over all users
type Totals struct {
	Users          int           `json:"users"`
	Teams          int           `json:"teams"`
	Tasks          int           `json:"tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	ActiveTimers   int           `json:"active_timers"`
	TrackedTime    time.Duration `json:"tracked_time"`
	PaidPlans      int           `json:"paid_plans"`
}

// Stats represents combined statistics
type Stats struct {
	UserStats []UserStats `json:"user_stats"`
	Totals    Totals      `json:"totals"`
}

// StatsService aggregates statistics across all stored users
type StatsService struct {
	userRepo repository.UserRepository
	teamRepo repository.TeamRepository
	states   repository.StateRepository
	subs     repository.SubscriptionRepository
	now      func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	states repository.StateRepository,
	subs repository.SubscriptionRepository,
) *StatsService {
	return &StatsService{
		userRepo: userRepo,
		teamRepo: teamRepo,
		states:   states,
		subs:     subs,
		now:      time.Now,
	}
}

// GetStats returns per-user statistics and the overall totals
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{UserStats: make([]UserStats, 0, len(users))}
	stats.Totals.Teams = len(teams)

	for _, u := range users {
		us, err := s.userStats(ctx, u)
		if err != nil {
			return nil, err
		}
		stats.UserStats = append(stats.UserStats, *us)

		stats.Totals.Tasks += us.Tasks
		stats.Totals.CompletedTasks += us.CompletedTasks
		stats.Totals.TrackedTime += us.TotalTime
		if us.TimerRunning {
			stats.Totals.ActiveTimers++
		}
		if us.Plan != domain.PlanFree {
			stats.Totals.PaidPlans++
		}
	}
	stats.Totals.Users = len(users)

	return stats, nil
}

// GetUserStats returns statistics for a specific user
func (s *StatsService) GetUserStats(ctx context.Context, email string) (*UserStats, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.userStats(ctx, user)
}

func (s *StatsService) userStats(ctx context.Context, u *domain.User) (*UserStats, error) {
	state, err := s.states.Load(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	sub, err := s.subs.Get(ctx, u.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	us := &UserStats{
		UserID:       u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		Plan:         sub.Plan,
		Teams:        len(u.Teams),
		Tasks:        len(state.Tasks),
		TimerRunning: state.ActiveTaskID != "",
		LastLogin:    u.LastLogin,
	}
	for i := range state.Tasks {
		if state.Tasks[i].Completed {
			us.CompletedTasks++
		}
		us.TotalTime += tracker.TaskTotals(&state.Tasks[i], now, time.UTC).Total
	}
	return us, nil
}
