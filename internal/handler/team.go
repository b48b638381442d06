package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/service"
)

// TeamHandler обрабатывает эндпоинты команд и приглашений
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler создает новый TeamHandler
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeamRequest представляет тело запроса на создание команды
type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// InviteRequest представляет тело запроса на приглашение
type InviteRequest struct {
	Email string      `json:"email" validate:"required"`
	Role  domain.Role `json:"role" validate:"omitempty,oneof=member admin"`
}

// TeamResponse представляет ответ с командой
type TeamResponse struct {
	Team *domain.Team `json:"team"`
}

// TeamsResponse представляет список команд пользователя
type TeamsResponse struct {
	Teams []domain.UserTeam `json:"teams"`
}

// InvitationResponse представляет ответ с приглашением
type InvitationResponse struct {
	Invitation *domain.Invitation `json:"invitation"`
}

// InvitationsResponse представляет список приглашений
type InvitationsResponse struct {
	Invitations []*domain.Invitation `json:"invitations"`
}

// CreateTeam обрабатывает POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), currentEmail(r), req.Name, req.Description)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, TeamResponse{Team: team})
}

// ListTeams обрабатывает GET /teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListUserTeams(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamsResponse{Teams: teams})
}

// GetTeam обрабатывает GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.teamService.GetTeam(r.Context(), currentEmail(r), chi.URLParam(r, "teamID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, team)
}

// Invite обрабатывает POST /teams/{teamID}/invitations
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.teamService.Invite(r.Context(), currentEmail(r), chi.URLParam(r, "teamID"), req.Email, req.Role)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, InvitationResponse{Invitation: inv})
}

// ListInvitations обрабатывает GET /invitations
func (h *TeamHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := h.teamService.ListInvitations(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, InvitationsResponse{Invitations: invs})
}

// AcceptInvitation обрабатывает POST /invitations/{invitationID}/accept
func (h *TeamHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	team, err := h.teamService.AcceptInvitation(r.Context(), currentEmail(r), chi.URLParam(r, "invitationID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}
