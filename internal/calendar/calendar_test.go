package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
)

func TestMeetingFromTask(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	d := MeetingFromTask("Sprint review", "Demo", 0, now)
	assert.Equal(t, "Meeting: Sprint review", d.Title)
	assert.Equal(t, now.Add(time.Hour), d.End)

	d = MeetingFromTask("Sync", "", 30*time.Minute, now)
	assert.Equal(t, now.Add(30*time.Minute), d.End)
}

func TestNewEvent_Reminders(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ev := NewEvent(Details{Title: "T", Start: now, End: now.Add(time.Hour), Attendees: []string{"a@x.io"}})

	require.NotNil(t, ev.Reminders)
	assert.False(t, ev.Reminders.UseDefault)
	require.Len(t, ev.Reminders.Overrides, 2)
	assert.Equal(t, "email", ev.Reminders.Overrides[0].Method)
	assert.Equal(t, int64(1440), ev.Reminders.Overrides[0].Minutes)
	assert.Equal(t, "popup", ev.Reminders.Overrides[1].Method)
	assert.Equal(t, int64(10), ev.Reminders.Overrides[1].Minutes)
	assert.Equal(t, "2026-03-02T10:00:00Z", ev.Start.DateTime)
	assert.Equal(t, "UTC", ev.Start.TimeZone)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, "a@x.io", ev.Attendees[0].Email)

	data, err := json.Marshal(ev.Reminders)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"useDefault":false`)
}

func TestCreateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))

		var ev gcal.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		assert.Equal(t, "Meeting: Plan", ev.Summary)

		ev.Id = "evt1"
		ev.HtmlLink = "https://calendar.google.com/event?eid=evt1"
		ev.Status = "confirmed"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ev)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "id", "secret", "http://localhost/cb")
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev, err := client.CreateEvent(context.Background(), &oauth2.Token{AccessToken: "ya29.token"}, MeetingFromTask("Plan", "", 0, now))
	require.NoError(t, err)
	assert.Equal(t, "evt1", ev.ID)
	assert.Equal(t, "confirmed", ev.Status)
	assert.Equal(t, "Meeting: Plan", ev.Summary)
	assert.Equal(t, "2026-03-02T10:00:00Z", ev.Start)
	assert.NotEmpty(t, ev.HTMLLink)
}

func TestCreateEvent_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Credentials"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "id", "secret", "")
	now := time.Now()

	_, err := client.CreateEvent(context.Background(), nil, MeetingFromTask("Plan", "", 0, now))
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = client.CreateEvent(context.Background(), &oauth2.Token{AccessToken: "bad"}, MeetingFromTask("Plan", "", 0, now))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAuthCodeURL(t *testing.T) {
	client := NewClient("http://example", "client-1", "secret", "http://localhost/cb")
	url := client.AuthCodeURL("state-1")
	assert.True(t, strings.HasPrefix(url, "https://accounts.google.com/o/oauth2/auth?"))
	assert.Contains(t, url, "client_id=client-1")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "state=state-1")
}
