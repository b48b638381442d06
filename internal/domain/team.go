package domain

import "time"

// Role представляет роль участника в команде
type Role string

// Возможные роли участника
const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanInvite возвращает true если роль позволяет приглашать участников
func (r Role) CanInvite() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Team представляет команду пользователей
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Owner       string       `json:"owner"` // UserID владельца
	Members     []TeamMember `json:"members"`
	CreatedAt   time.Time    `json:"created_at"`
	Settings    TeamSettings `json:"settings"`
}

// TeamMember представляет участника в составе команды (сторона команды)
type TeamMember struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamSettings содержит настройки команды
type TeamSettings struct {
	AllowMemberInvites      bool   `json:"allow_member_invites"`
	DefaultTaskVisibility   string `json:"default_task_visibility"`
	RequireApprovalForTasks bool   `json:"require_approval_for_tasks"`
}

// DefaultTeamSettings возвращает настройки новой команды
func DefaultTeamSettings() TeamSettings {
	return TeamSettings{
		AllowMemberInvites:      true,
		DefaultTaskVisibility:   "team",
		RequireApprovalForTasks: false,
	}
}

// UserTeam представляет команду вместе с ролью текущего пользователя
type UserTeam struct {
	Team
	UserRole Role `json:"user_role"`
}

// FindMember ищет участника по ID пользователя
func (t *Team) FindMember(userID string) (*TeamMember, bool) {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// HasEmail проверяет, состоит ли пользователь с таким email в команде
func (t *Team) HasEmail(email string) bool {
	for _, m := range t.Members {
		if m.Email == email {
			return true
		}
	}
	return false
}
