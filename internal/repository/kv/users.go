package kv

import (
	"context"
	"log/slog"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

// UserRepository реализует repository.UserRepository
type UserRepository struct {
	users collection[domain.User]
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(store repository.Store, logger *slog.Logger) *UserRepository {
	return &UserRepository{users: collection[domain.User]{store: store, logger: logger, key: KeyUsers}}
}

// Create сохраняет нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.users.update(ctx, func(m map[string]*domain.User) error {
		if _, exists := m[user.Email]; exists {
			return domain.ErrEmailRegistered
		}
		m[user.Email] = user
		return nil
	})
}

// GetByEmail получает пользователя по email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok, err := r.users.get(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Update применяет fn к пользователю и сохраняет результат
func (r *UserRepository) Update(ctx context.Context, email string, fn func(u *domain.User) error) (*domain.User, error) {
	var updated *domain.User
	err := r.users.update(ctx, func(m map[string]*domain.User) error {
		u, ok := m[email]
		if !ok {
			return domain.ErrUserNotFound
		}
		if err := fn(u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List возвращает всех пользователей по email
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	m, err := r.users.all(ctx)
	if err != nil {
		return nil, err
	}
	return sortedValues(m), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
