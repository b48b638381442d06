package handler

import (
	"net/http"

	"github.com/aidar/taskflow/internal/service"
)

// AuthHandler обрабатывает эндпоинты аутентификации
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler создает новый AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignupRequest представляет тело запроса на регистрацию
type SignupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=100"`
}

// LoginRequest представляет тело запроса на логин
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup обрабатывает POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, result)
}

// Login обрабатывает POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Logout обрабатывает POST /auth/logout. Токен без состояния, клиент удаляет его сам.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me обрабатывает GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.authService.Me(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, profile)
}
