package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

// TeamService handles business logic for teams and invitations
type TeamService struct {
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
	invitationRepo repository.InvitationRepository
	logger         *slog.Logger
	now            func() time.Time
}

// NewTeamService creates a new TeamService
func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	invitationRepo repository.InvitationRepository,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateTeam creates a team owned by the current user
func (s *TeamService) CreateTeam(ctx context.Context, email, name, description string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", domain.ErrValidation)
	}

	owner, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	team := &domain.Team{
		ID:          "team_" + uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Owner:       owner.UserID,
		Members: []domain.TeamMember{{
			UserID:   owner.UserID,
			Email:    owner.Email,
			Name:     owner.Name,
			Role:     domain.RoleOwner,
			JoinedAt: now,
		}},
		CreatedAt: now,
		Settings:  domain.DefaultTeamSettings(),
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	// Add team to the owner's memberships
	if _, err := s.userRepo.Update(ctx, email, func(u *domain.User) error {
		u.Teams = append(u.Teams, domain.TeamMembership{TeamID: team.ID, Role: domain.RoleOwner, JoinedAt: now})
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Team created", "team_id", team.ID, "owner", email)
	return team, nil
}

// GetTeam returns a team the current user belongs to
func (s *TeamService) GetTeam(ctx context.Context, email, teamID string) (*domain.UserTeam, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	for _, m := range team.Members {
		if m.Email == email {
			return &domain.UserTeam{Team: *team, UserRole: m.Role}, nil
		}
	}
	return nil, domain.ErrInsufficientPermissions
}

// Invite creates a pending invitation valid for seven days
func (s *TeamService) Invite(ctx context.Context, email, teamID, inviteeEmail string, role domain.Role) (*domain.Invitation, error) {
	inviteeEmail = NormalizeEmail(inviteeEmail)
	if err := checkmail.ValidateFormat(inviteeEmail); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleMember && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be member or admin", domain.ErrValidation)
	}

	inviter, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	// Only owners and admins can invite
	member, ok := team.FindMember(inviter.UserID)
	if !ok || !member.Role.CanInvite() {
		return nil, domain.ErrInsufficientPermissions
	}

	if team.HasEmail(inviteeEmail) {
		return nil, domain.ErrAlreadyMember
	}

	now := s.now()
	inv := &domain.Invitation{
		ID:           "inv_" + uuid.NewString(),
		TeamID:       team.ID,
		TeamName:     team.Name,
		InviterEmail: inviter.Email,
		InviterName:  inviter.Name,
		InviteeEmail: inviteeEmail,
		Role:         role,
		Status:       domain.InvitationPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(domain.InvitationTTL),
	}

	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("Invitation created", "invitation_id", inv.ID, "team_id", team.ID, "invitee", inviteeEmail)
	return inv, nil
}

// checkAcceptable validates an invitation for the given user at now
func checkAcceptable(inv *domain.Invitation, email string, now time.Time) error {
	if inv.InviteeEmail != email {
		return domain.ErrInvitationNotForUser
	}
	if inv.Status != domain.InvitationPending {
		return domain.ErrInvitationProcessed
	}
	if inv.IsExpired(now) {
		return domain.ErrInvitationExpired
	}
	return nil
}

// AcceptInvitation adds the current user to the invitation's team.
// An expired invitation is rejected without changing any record.
func (s *TeamService) AcceptInvitation(ctx context.Context, email, invitationID string) (*domain.Team, error) {
	now := s.now()

	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if err := checkAcceptable(inv, email, now); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if _, err := s.teamRepo.GetByID(ctx, inv.TeamID); err != nil {
		return nil, err
	}

	// Claim the invitation first so concurrent accepts cannot both pass
	inv, err = s.invitationRepo.Update(ctx, invitationID, func(i *domain.Invitation) error {
		if err := checkAcceptable(i, email, now); err != nil {
			return err
		}
		i.Status = domain.InvitationAccepted
		i.AcceptedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.Update(ctx, inv.TeamID, func(t *domain.Team) error {
		if t.HasEmail(email) {
			return nil
		}
		t.Members = append(t.Members, domain.TeamMember{
			UserID:   user.UserID,
			Email:    user.Email,
			Name:     user.Name,
			Role:     inv.Role,
			JoinedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.Update(ctx, email, func(u *domain.User) error {
		for _, m := range u.Teams {
			if m.TeamID == inv.TeamID {
				return nil
			}
		}
		u.Teams = append(u.Teams, domain.TeamMembership{TeamID: inv.TeamID, Role: inv.Role, JoinedAt: now})
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Invitation accepted", "invitation_id", inv.ID, "team_id", inv.TeamID, "user", email)
	return team, nil
}

// ListUserTeams returns the user's teams with the user's role in each
func (s *TeamService) ListUserTeams(ctx context.Context, email string) ([]domain.UserTeam, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	teams := make([]domain.UserTeam, 0, len(user.Teams))
	for _, m := range user.Teams {
		team, err := s.teamRepo.GetByID(ctx, m.TeamID)
		if err != nil {
			// Dangling membership
			s.logger.Warn("Team of membership not found", "team_id", m.TeamID, "user", email)
			continue
		}
		teams = append(teams, domain.UserTeam{Team: *team, UserRole: m.Role})
	}
	return teams, nil
}

// ListInvitations returns pending, unexpired invitations for the user
func (s *TeamService) ListInvitations(ctx context.Context, email string) ([]*domain.Invitation, error) {
	all, err := s.invitationRepo.ListByInvitee(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pending := make([]*domain.Invitation, 0, len(all))
	for _, inv := range all {
		if inv.Status == domain.InvitationPending && !inv.IsExpired(now) {
			pending = append(pending, inv)
		}
	}
	return pending, nil
}

// PruneExpired deletes pending invitations past their expiry
func (s *TeamService) PruneExpired(ctx context.Context) (int, error) {
	removed, err := s.invitationRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("Expired invitations pruned", "count", removed)
	}
	return removed, nil
}
