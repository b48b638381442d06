package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/taskflow/internal/repository/kv"
	"github.com/aidar/taskflow/internal/repository/sqlite"
)

// testEnv набор репозиториев поверх временной sqlite базы
type testEnv struct {
	users         *kv.UserRepository
	teams         *kv.TeamRepository
	invitations   *kv.InvitationRepository
	states        *kv.StateRepository
	subscriptions *kv.SubscriptionRepository
	credentials   *kv.CredentialRepository
	logger        *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "taskflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		users:         kv.NewUserRepository(store, logger),
		teams:         kv.NewTeamRepository(store, logger),
		invitations:   kv.NewInvitationRepository(store, logger),
		states:        kv.NewStateRepository(store, logger),
		subscriptions: kv.NewSubscriptionRepository(store, logger),
		credentials:   kv.NewCredentialRepository(store, logger),
		logger:        logger,
	}
}

func (e *testEnv) auth(now func() time.Time) *AuthService {
	s := NewAuthService(e.users, "test-secret", time.Hour)
	s.bcryptCost = bcrypt.MinCost
	if now != nil {
		s.now = now
	}
	return s
}

// clock подменяемое время для сервисов
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
