package domain

import "time"

// User представляет зарегистрированного пользователя (ключ: email)
type User struct {
	UserID       string           `json:"user_id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	PasswordHash string           `json:"password_hash"` // bcrypt
	CreatedAt    time.Time        `json:"created_at"`
	LastLogin    time.Time        `json:"last_login"`
	Teams        []TeamMembership `json:"teams,omitempty"`
}

// TeamMembership представляет членство пользователя в команде (сторона пользователя)
type TeamMembership struct {
	TeamID   string    `json:"team_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Profile представляет публичные данные пользователя без хеша пароля
type Profile struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile возвращает публичное представление пользователя
func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
