package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/aidar/taskflow/internal/calendar"
	"github.com/aidar/taskflow/internal/domain"
)

// EventCreator connects a Google calendar and inserts events into it
type EventCreator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	CreateEvent(ctx context.Context, token *oauth2.Token, d calendar.Details) (*calendar.Event, error)
}

// TaskGetter returns a single task of a user
type TaskGetter interface {
	GetTask(ctx context.Context, email, id string) (*TaskView, error)
}

// EventInput is the request to create a calendar event
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// CalendarService creates calendar events with the user's stored token
type CalendarService struct {
	client      EventCreator
	credentials *CredentialService
	tasks       TaskGetter
	logger      *slog.Logger
	now         func() time.Time
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(client EventCreator, credentials *CredentialService, tasks TaskGetter, logger *slog.Logger) *CalendarService {
	return &CalendarService{
		client:      client,
		credentials: credentials,
		tasks:       tasks,
		logger:      logger,
		now:         time.Now,
	}
}

// ConnectURL returns the consent page URL. The state is stored for the user
// and checked again by Connect.
func (s *CalendarService) ConnectURL(ctx context.Context, email string) (url, state string, err error) {
	state = uuid.NewString()
	if err := s.credentials.SetCalendarState(ctx, email, state); err != nil {
		return "", "", err
	}
	return s.client.AuthCodeURL(state), state, nil
}

// Connect verifies the OAuth state, exchanges the authorization code and stores the token
func (s *CalendarService) Connect(ctx context.Context, email, code, state string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: authorization code is required", domain.ErrValidation)
	}
	if err := s.credentials.ConsumeCalendarState(ctx, email, state); err != nil {
		return err
	}

	token, err := s.client.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := s.credentials.SetCalendarToken(ctx, email, token); err != nil {
		return err
	}

	s.logger.Info("Calendar connected", "user", email, "refreshable", token.RefreshToken != "")
	return nil
}

// CreateEvent inserts an event into the user's primary calendar
func (s *CalendarService) CreateEvent(ctx context.Context, email string, in EventInput) (*calendar.Event, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: event title is required", domain.ErrValidation)
	}
	if in.Start.IsZero() {
		in.Start = s.now()
	}
	if in.End.IsZero() {
		in.End = in.Start.Add(calendar.DefaultMeetingDuration)
	}
	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("%w: event must end after it starts", domain.ErrValidation)
	}

	token, err := s.credentials.CalendarToken(ctx, email)
	if err != nil {
		return nil, err
	}

	event, err := s.client.CreateEvent(ctx, token, calendar.Details{
		Title:       in.Title,
		Description: in.Description,
		Start:       in.Start,
		End:         in.End,
		Attendees:   in.Attendees,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Calendar event created", "user", email, "event_id", event.ID)
	return event, nil
}

// MeetingFromTask schedules a meeting for a task starting now
func (s *CalendarService) MeetingFromTask(ctx context.Context, email, taskID string, duration time.Duration) (*calendar.Event, error) {
	task, err := s.tasks.GetTask(ctx, email, taskID)
	if err != nil {
		return nil, err
	}

	d := calendar.MeetingFromTask(task.Name, task.Description, duration, s.now())
	return s.CreateEvent(ctx, email, EventInput{
		Title:       d.Title,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
	})
}
