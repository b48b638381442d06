package kv

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "taskflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t), discardLogger())

	user := &domain.User{UserID: "u1", Email: "a@x.io", Name: "Alice"}
	require.NoError(t, repo.Create(ctx, user))

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{UserID: "u2", Email: "a@x.io"})
		assert.ErrorIs(t, err, domain.ErrEmailRegistered)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "a@x.io")
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)

		_, err = repo.GetByEmail(ctx, "missing@x.io")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("update", func(t *testing.T) {
		got, err := repo.Update(ctx, "a@x.io", func(u *domain.User) error {
			u.Name = "Alice B"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice B", got.Name)

		stored, err := repo.GetByEmail(ctx, "a@x.io")
		require.NoError(t, err)
		assert.Equal(t, "Alice B", stored.Name)

		_, err = repo.Update(ctx, "missing@x.io", func(u *domain.User) error { return nil })
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("failed update leaves value", func(t *testing.T) {
		_, err := repo.Update(ctx, "a@x.io", func(u *domain.User) error {
			u.Name = "changed"
			return domain.ErrValidation
		})
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := repo.GetByEmail(ctx, "a@x.io")
		require.NoError(t, err)
		assert.Equal(t, "Alice B", stored.Name)
	})

	t.Run("list sorted", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &domain.User{UserID: "u0", Email: "0@x.io"}))
		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "0@x.io", users[0].Email)
	})
}

func TestUserRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t), discardLogger())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, &domain.User{Email: "same@x.io"})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrEmailRegistered)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestCorruptedDataFallsBack(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := discardLogger()

	require.NoError(t, store.Put(ctx, KeyUsers, []byte("{not json")))
	require.NoError(t, store.Put(ctx, PrefixData+"a@x.io", []byte("[1,2")))
	require.NoError(t, store.Put(ctx, PrefixSubscription+"a@x.io", []byte("???")))

	users := NewUserRepository(store, logger)
	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Запись поверх поврежденного документа
	require.NoError(t, users.Create(ctx, &domain.User{Email: "a@x.io"}))
	list, err = users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	state, err := NewStateRepository(store, logger).Load(ctx, "a@x.io")
	require.NoError(t, err)
	assert.NotNil(t, state.Tasks)
	assert.Empty(t, state.Tasks)

	sub, err := NewSubscriptionRepository(store, logger).Get(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, sub.Plan)
	assert.Equal(t, "active", sub.Status)
}

func TestInvitationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInvitationRepository(newStore(t), discardLogger())
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	invs := []*domain.Invitation{
		{ID: "i2", InviteeEmail: "b@x.io", Status: domain.InvitationPending, CreatedAt: now.Add(time.Hour), ExpiresAt: now.Add(domain.InvitationTTL)},
		{ID: "i1", InviteeEmail: "b@x.io", Status: domain.InvitationPending, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)},
		{ID: "i3", InviteeEmail: "c@x.io", Status: domain.InvitationAccepted, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)},
	}
	for _, inv := range invs {
		require.NoError(t, repo.Create(ctx, inv))
	}

	list, err := repo.ListByInvitee(ctx, "b@x.io")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "i1", list[0].ID)
	assert.Equal(t, "i2", list[1].ID)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.GetByID(ctx, "i1")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
	_, err = repo.GetByID(ctx, "i3")
	assert.NoError(t, err)
}

func TestTeamRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository(newStore(t), discardLogger())

	require.NoError(t, repo.Create(ctx, &domain.Team{ID: "t1", Name: "Core", Owner: "u1"}))

	team, err := repo.Update(ctx, "t1", func(t *domain.Team) error {
		t.Members = append(t.Members, domain.TeamMember{UserID: "u1", Role: domain.RoleOwner})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, team.Members, 1)

	_, err = repo.GetByID(ctx, "t2")
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
	_, err = repo.Update(ctx, "t2", func(t *domain.Team) error { return nil })
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}

func TestStateRepository(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := NewStateRepository(store, discardLogger())

	empty, err := repo.Load(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Empty(t, empty.Tasks)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	state := domain.NewState()
	state.Tasks = append(state.Tasks, domain.Task{ID: "t1", Name: "Write", Priority: domain.PriorityHigh, CreatedAt: now})
	state.ActiveTaskID = "t1"
	require.NoError(t, repo.Save(ctx, "a@x.io", state))
	require.NoError(t, repo.Save(ctx, "b@x.io", domain.NewState()))

	loaded, err := repo.Load(ctx, "a@x.io")
	require.NoError(t, err)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, "Write", loaded.Tasks[0].Name)
	assert.NotNil(t, loaded.Tasks[0].Sessions)
	assert.NotNil(t, loaded.Tasks[0].Comments)
	assert.Equal(t, "t1", loaded.ActiveTaskID)

	emails, err := repo.Emails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, emails)
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(newStore(t), discardLogger())

	creds, err := repo.Get(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Empty(t, creds.OpenAIKey)

	require.NoError(t, repo.Save(ctx, "a@x.io", &domain.Credentials{OpenAIKey: "sk-test-1234"}))
	creds, err = repo.Get(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234", creds.OpenAIKey)
}
