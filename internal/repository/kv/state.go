package kv

import (
	"context"
	"log/slog"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

// StateRepository реализует repository.StateRepository
type StateRepository struct {
	states document[domain.State]
}

// NewStateRepository создает новый экземпляр StateRepository
func NewStateRepository(store repository.Store, logger *slog.Logger) *StateRepository {
	return &StateRepository{states: document[domain.State]{store: store, logger: logger, prefix: PrefixData}}
}

// Load возвращает состояние пользователя; пустое если его нет или оно повреждено
func (r *StateRepository) Load(ctx context.Context, email string) (*domain.State, error) {
	s, ok, err := r.states.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.NewState(), nil
	}

	if s.Tasks == nil {
		s.Tasks = []domain.Task{}
	}
	if s.Notifications == nil {
		s.Notifications = []domain.Notification{}
	}
	for i := range s.Tasks {
		if s.Tasks[i].Sessions == nil {
			s.Tasks[i].Sessions = []domain.Session{}
		}
		if s.Tasks[i].Comments == nil {
			s.Tasks[i].Comments = []domain.Comment{}
		}
	}
	return s, nil
}

// Save сохраняет состояние пользователя
func (r *StateRepository) Save(ctx context.Context, email string, state *domain.State) error {
	return r.states.save(ctx, email, state)
}

// Emails возвращает email всех пользователей с сохраненным состоянием
func (r *StateRepository) Emails(ctx context.Context) ([]string, error) {
	return r.states.ids(ctx)
}

// SubscriptionRepository реализует repository.SubscriptionRepository
type SubscriptionRepository struct {
	subs document[domain.Subscription]
}

// NewSubscriptionRepository создает новый экземпляр SubscriptionRepository
func NewSubscriptionRepository(store repository.Store, logger *slog.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{subs: document[domain.Subscription]{store: store, logger: logger, prefix: PrefixSubscription}}
}

// Get возвращает подписку; free/active если ее нет
func (r *SubscriptionRepository) Get(ctx context.Context, email string) (*domain.Subscription, error) {
	sub, ok, err := r.subs.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok || sub.Plan == "" {
		return domain.DefaultSubscription(), nil
	}
	return sub, nil
}

// Save сохраняет подписку
func (r *SubscriptionRepository) Save(ctx context.Context, email string, sub *domain.Subscription) error {
	return r.subs.save(ctx, email, sub)
}

// CredentialRepository реализует repository.CredentialRepository
type CredentialRepository struct {
	creds document[domain.Credentials]
}

// NewCredentialRepository создает новый экземпляр CredentialRepository
func NewCredentialRepository(store repository.Store, logger *slog.Logger) *CredentialRepository {
	return &CredentialRepository{creds: document[domain.Credentials]{store: store, logger: logger, prefix: PrefixCredentials}}
}

// Get возвращает ключи пользователя; пустые если их нет
func (r *CredentialRepository) Get(ctx context.Context, email string) (*domain.Credentials, error) {
	c, ok, err := r.creds.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &domain.Credentials{}, nil
	}
	return c, nil
}

// Save сохраняет ключи пользователя
func (r *CredentialRepository) Save(ctx context.Context, email string, creds *domain.Credentials) error {
	return r.creds.save(ctx, email, creds)
}

var (
	_ repository.StateRepository        = (*StateRepository)(nil)
	_ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ repository.CredentialRepository   = (*CredentialRepository)(nil)
)
