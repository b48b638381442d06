package kv

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

// TeamRepository реализует repository.TeamRepository
type TeamRepository struct {
	teams collection[domain.Team]
}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository(store repository.Store, logger *slog.Logger) *TeamRepository {
	return &TeamRepository{teams: collection[domain.Team]{store: store, logger: logger, key: KeyTeams}}
}

// Create сохраняет новую команду
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	return r.teams.update(ctx, func(m map[string]*domain.Team) error {
		m[team.ID] = team
		return nil
	})
}

// GetByID получает команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	t, ok, err := r.teams.get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return t, nil
}

// Update применяет fn к команде и сохраняет результат
func (r *TeamRepository) Update(ctx context.Context, teamID string, fn func(t *domain.Team) error) (*domain.Team, error) {
	var updated *domain.Team
	err := r.teams.update(ctx, func(m map[string]*domain.Team) error {
		t, ok := m[teamID]
		if !ok {
			return domain.ErrTeamNotFound
		}
		if err := fn(t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List возвращает все команды
func (r *TeamRepository) List(ctx context.Context) ([]*domain.Team, error) {
	m, err := r.teams.all(ctx)
	if err != nil {
		return nil, err
	}
	return sortedValues(m), nil
}

// InvitationRepository реализует repository.InvitationRepository
type InvitationRepository struct {
	invitations collection[domain.Invitation]
}

// NewInvitationRepository создает новый экземпляр InvitationRepository
func NewInvitationRepository(store repository.Store, logger *slog.Logger) *InvitationRepository {
	return &InvitationRepository{
		invitations: collection[domain.Invitation]{store: store, logger: logger, key: KeyInvitations},
	}
}

// Create сохраняет новое приглашение
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	return r.invitations.update(ctx, func(m map[string]*domain.Invitation) error {
		m[inv.ID] = inv
		return nil
	})
}

// GetByID получает приглашение по ID
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	inv, ok, err := r.invitations.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	return inv, nil
}

// Update применяет fn к приглашению и сохраняет результат
func (r *InvitationRepository) Update(ctx context.Context, id string, fn func(inv *domain.Invitation) error) (*domain.Invitation, error) {
	var updated *domain.Invitation
	err := r.invitations.update(ctx, func(m map[string]*domain.Invitation) error {
		inv, ok := m[id]
		if !ok {
			return domain.ErrInvitationNotFound
		}
		if err := fn(inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByInvitee возвращает приглашения на email в порядке создания
func (r *InvitationRepository) ListByInvitee(ctx context.Context, email string) ([]*domain.Invitation, error) {
	m, err := r.invitations.all(ctx)
	if err != nil {
		return nil, err
	}

	out := []*domain.Invitation{}
	for _, inv := range sortedValues(m) {
		if inv.InviteeEmail == email {
			out = append(out, inv)
		}
	}
	sortByCreated(out)
	return out, nil
}

// DeleteExpired удаляет ожидающие приглашения, истекшие к now
func (r *InvitationRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := r.invitations.update(ctx, func(m map[string]*domain.Invitation) error {
		for id, inv := range m {
			if inv.Status == domain.InvitationPending && inv.IsExpired(now) {
				delete(m, id)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func sortByCreated(invs []*domain.Invitation) {
	sort.SliceStable(invs, func(i, j int) bool {
		return invs[i].CreatedAt.Before(invs[j].CreatedAt)
	})
}

var (
	_ repository.TeamRepository       = (*TeamRepository)(nil)
	_ repository.InvitationRepository = (*InvitationRepository)(nil)
)
