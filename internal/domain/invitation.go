package domain

import "time"

// InvitationTTL срок действия приглашения
const InvitationTTL = 7 * 24 * time.Hour

// InvitationStatus представляет статус приглашения
type InvitationStatus string

// Возможные статусы приглашения
const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
)

// Invitation представляет приглашение в команду
type Invitation struct {
	ID           string           `json:"id"`
	TeamID       string           `json:"team_id"`
	TeamName     string           `json:"team_name"`
	InviterEmail string           `json:"inviter_email"`
	InviterName  string           `json:"inviter_name"`
	InviteeEmail string           `json:"invitee_email"`
	Role         Role             `json:"role"`
	Status       InvitationStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
	AcceptedAt   *time.Time       `json:"accepted_at,omitempty"`
}

// IsExpired возвращает true если приглашение истекло к моменту now
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
