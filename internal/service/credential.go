package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

const notConfigured = "Not configured"

// CredentialUpdate holds the credential fields to change; nil fields are kept
type CredentialUpdate struct {
	OpenAIKey        *string
	CalendarAPIKey   *string
	CalendarClientID *string
}

// CredentialStatus is the masked view of stored credentials
type CredentialStatus struct {
	OpenAIConfigured   bool   `json:"openai_configured"`
	OpenAIKey          string `json:"openai_api_key"`
	CalendarConfigured bool   `json:"calendar_configured"`
	CalendarAPIKey     string `json:"calendar_api_key"`
	CalendarClientID   string `json:"calendar_client_id"`
	CalendarAuthorized bool   `json:"calendar_authorized"`
}

// MaskKey shows the first 7 and last 4 characters of a key
func MaskKey(key string) string {
	if key == "" {
		return notConfigured
	}
	head := key[:min(7, len(key))]
	tail := key[max(0, len(key)-4):]
	return head + "..." + tail
}

// CredentialService stores per-user third-party API keys
type CredentialService struct {
	repo   repository.CredentialRepository
	logger *slog.Logger
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(repo repository.CredentialRepository, logger *slog.Logger) *CredentialService {
	return &CredentialService{repo: repo, logger: logger}
}

// Get returns the raw credentials of the user
func (s *CredentialService) Get(ctx context.Context, email string) (*domain.Credentials, error) {
	return s.repo.Get(ctx, email)
}

// Status returns masked credentials
func (s *CredentialService) Status(ctx context.Context, email string) (*CredentialStatus, error) {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	return statusOf(creds), nil
}

func statusOf(c *domain.Credentials) *CredentialStatus {
	clientID := c.CalendarClientID
	if clientID == "" {
		clientID = notConfigured
	}
	return &CredentialStatus{
		OpenAIConfigured:   c.OpenAIKey != "",
		OpenAIKey:          MaskKey(c.OpenAIKey),
		CalendarConfigured: c.CalendarAPIKey != "" && c.CalendarClientID != "",
		CalendarAPIKey:     MaskKey(c.CalendarAPIKey),
		CalendarClientID:   clientID,
		CalendarAuthorized: c.CalendarToken != "" || c.CalendarRefreshToken != "",
	}
}

// Update changes the given credential fields; an empty string removes a key
func (s *CredentialService) Update(ctx context.Context, email string, upd CredentialUpdate) (*CredentialStatus, error) {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if upd.OpenAIKey != nil {
		creds.OpenAIKey = strings.TrimSpace(*upd.OpenAIKey)
	}
	if upd.CalendarAPIKey != nil {
		creds.CalendarAPIKey = strings.TrimSpace(*upd.CalendarAPIKey)
	}
	if upd.CalendarClientID != nil {
		creds.CalendarClientID = strings.TrimSpace(*upd.CalendarClientID)
	}

	if err := s.repo.Save(ctx, email, creds); err != nil {
		return nil, err
	}

	s.logger.Info("Credentials updated", "user", email)
	return statusOf(creds), nil
}

// SetCalendarToken stores the whole OAuth token so it can be refreshed later
func (s *CredentialService) SetCalendarToken(ctx context.Context, email string, token *oauth2.Token) error {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return err
	}
	creds.CalendarToken = token.AccessToken
	creds.CalendarRefreshToken = token.RefreshToken
	creds.CalendarTokenType = token.TokenType
	creds.CalendarTokenExpiry = nil
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		creds.CalendarTokenExpiry = &expiry
	}
	return s.repo.Save(ctx, email, creds)
}

// CalendarToken returns the stored OAuth token or ErrNotConfigured
func (s *CredentialService) CalendarToken(ctx context.Context, email string) (*oauth2.Token, error) {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if creds.CalendarToken == "" && creds.CalendarRefreshToken == "" {
		return nil, domain.ErrNotConfigured
	}

	token := &oauth2.Token{
		AccessToken:  creds.CalendarToken,
		RefreshToken: creds.CalendarRefreshToken,
		TokenType:    creds.CalendarTokenType,
	}
	if creds.CalendarTokenExpiry != nil {
		token.Expiry = *creds.CalendarTokenExpiry
	}
	return token, nil
}

// SetCalendarState remembers the OAuth state issued with the consent URL
func (s *CredentialService) SetCalendarState(ctx context.Context, email, state string) error {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return err
	}
	creds.CalendarOAuthState = state
	return s.repo.Save(ctx, email, creds)
}

// ConsumeCalendarState checks the returned OAuth state and clears it.
// A state is accepted once.
func (s *CredentialService) ConsumeCalendarState(ctx context.Context, email, state string) error {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return err
	}

	expected := creds.CalendarOAuthState
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		return fmt.Errorf("%w: oauth state mismatch", domain.ErrValidation)
	}

	creds.CalendarOAuthState = ""
	return s.repo.Save(ctx, email, creds)
}

// OpenAIKey returns the user's OpenAI key or ErrNotConfigured
func (s *CredentialService) OpenAIKey(ctx context.Context, email string) (string, error) {
	creds, err := s.repo.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if creds.OpenAIKey == "" {
		return "", domain.ErrNotConfigured
	}
	return creds.OpenAIKey, nil
}
