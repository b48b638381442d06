// Package calendar creates Google Calendar events for tasks.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Scope is the OAuth scope for managing calendar events
const Scope = gcal.CalendarScope

// DefaultMeetingDuration is used when no duration is requested
const DefaultMeetingDuration = 60 * time.Minute

// ErrNoToken is returned when the user has not connected a calendar
var ErrNoToken = errors.New("calendar: access token not configured")

// Details describes an event to create
type Details struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Event is the created event as returned to clients
type Event struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink,omitempty"`
	Status   string `json:"status,omitempty"`
	Summary  string `json:"summary"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

// Client talks to the Calendar v3 API on behalf of a user
type Client struct {
	baseURL string
	oauth   *oauth2.Config
}

// NewClient creates a new Client. baseURL is the Calendar v3 root.
func NewClient(baseURL, clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{Scope},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthCodeURL returns the consent page URL; offline access yields a refresh token
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.oauth.Exchange(ctx, code)
}

// NewEvent builds the insert resource with email (24h) and popup (10 min) reminders
func NewEvent(d Details) *gcal.Event {
	zone := d.Start.Location().String()
	attendees := make([]*gcal.EventAttendee, 0, len(d.Attendees))
	for _, email := range d.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	return &gcal.Event{
		Summary:     d.Title,
		Description: d.Description,
		Start:       &gcal.EventDateTime{DateTime: d.Start.Format(time.RFC3339), TimeZone: zone},
		End:         &gcal.EventDateTime{DateTime: d.End.Format(time.RFC3339), TimeZone: zone},
		Attendees:   attendees,
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			// false is dropped by omitempty unless forced
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

// MeetingFromTask schedules a meeting for the task starting at now
func MeetingFromTask(name, description string, duration time.Duration, now time.Time) Details {
	if duration <= 0 {
		duration = DefaultMeetingDuration
	}
	return Details{
		Title:       "Meeting: " + name,
		Description: description,
		Start:       now,
		End:         now.Add(duration),
	}
}

// CreateEvent inserts the event into the user's primary calendar.
// An expired access token is refreshed through the token's refresh token.
func (c *Client) CreateEvent(ctx context.Context, token *oauth2.Token, d Details) (*Event, error) {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return nil, ErrNoToken
	}

	srv, err := gcal.NewService(ctx,
		option.WithHTTPClient(c.oauth.Client(ctx, token)),
		option.WithEndpoint(c.baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	created, err := srv.Events.Insert("primary", NewEvent(d)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar API error: %w", err)
	}

	ev := &Event{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
		Status:   created.Status,
		Summary:  created.Summary,
	}
	if created.Start != nil {
		ev.Start = created.Start.DateTime
	}
	if created.End != nil {
		ev.End = created.End.DateTime
	}
	return ev, nil
}
