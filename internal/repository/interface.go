package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aidar/taskflow/internal/domain"
)

// ErrKeyNotFound возвращается Store.Get если ключа нет
var ErrKeyNotFound = errors.New("key not found")

// Store определяет хранилище ключ-значение с JSON значениями
type Store interface {
	// Get возвращает значение по ключу или ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put сохраняет значение по ключу
	Put(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ (отсутствие ключа не ошибка)
	Delete(ctx context.Context, key string) error

	// Update атомарно читает и перезаписывает значение ключа.
	// fn получает nil если ключа нет; ошибка fn отменяет запись.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error

	// Keys возвращает ключи с указанным префиксом по возрастанию
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close освобождает ресурсы хранилища
	Close() error
}

// UserRepository определяет методы для работы с пользователями (ключ taskflow:users)
type UserRepository interface {
	// Create сохраняет нового пользователя; ErrEmailRegistered если email занят
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail получает пользователя по email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update применяет fn к пользователю и сохраняет результат
	Update(ctx context.Context, email string, fn func(u *domain.User) error) (*domain.User, error)

	// List возвращает всех пользователей по email
	List(ctx context.Context) ([]*domain.User, error)
}

// TeamRepository определяет методы для работы с командами (ключ taskflow:teams)
type TeamRepository interface {
	// Create сохраняет новую команду
	Create(ctx context.Context, team *domain.Team) error

	// GetByID получает команду по ID
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)

	// Update применяет fn к команде и сохраняет результат
	Update(ctx context.Context, teamID string, fn func(t *domain.Team) error) (*domain.Team, error)

	// List возвращает все команды
	List(ctx context.Context) ([]*domain.Team, error)
}

// InvitationRepository определяет методы для работы с приглашениями (ключ taskflow:invitations)
type InvitationRepository interface {
	// Create сохраняет новое приглашение
	Create(ctx context.Context, inv *domain.Invitation) error

	// GetByID получает приглашение по ID
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)

	// Update применяет fn к приглашению и сохраняет результат
	Update(ctx context.Context, id string, fn func(inv *domain.Invitation) error) (*domain.Invitation, error)

	// ListByInvitee возвращает приглашения на email
	ListByInvitee(ctx context.Context, email string) ([]*domain.Invitation, error)

	// DeleteExpired удаляет ожидающие приглашения, истекшие к now; возвращает число удаленных
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// StateRepository определяет методы для работы с задачами пользователя (ключ taskflow:data:<email>)
type StateRepository interface {
	// Load возвращает состояние; пустое если ключа нет или данные повреждены
	Load(ctx context.Context, email string) (*domain.State, error)

	// Save сохраняет состояние
	Save(ctx context.Context, email string, state *domain.State) error

	// Emails возвращает email всех пользователей с сохраненным состоянием
	Emails(ctx context.Context) ([]string, error)
}

// SubscriptionRepository определяет методы для работы с подписками
type SubscriptionRepository interface {
	// Get возвращает подписку; free/active если ее нет
	Get(ctx context.Context, email string) (*domain.Subscription, error)

	// Save сохраняет подписку
	Save(ctx context.Context, email string, sub *domain.Subscription) error
}

// CredentialRepository определяет методы для работы с ключами сторонних API
type CredentialRepository interface {
	// Get возвращает ключи пользователя; пустые если их нет
	Get(ctx context.Context, email string) (*domain.Credentials, error)

	// Save сохраняет ключи пользователя
	Save(ctx context.Context, email string, creds *domain.Credentials) error
}
