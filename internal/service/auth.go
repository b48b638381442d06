package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/badoux/checkmail"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

const minPasswordLength = 8

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// AuthResult is returned by signup and login
type AuthResult struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// AuthService handles accounts, passwords and JWT operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtSecret  string
	jwtExpiry  time.Duration
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  jwtSecret,
		jwtExpiry:  jwtExpiry,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword checks length and the upper/lower/digit mix
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return domain.ErrWeakPassword
	}
	return nil
}

// Signup registers a new account and logs it in
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	// Uniqueness is reported before password rules
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailRegistered
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	now := s.now()
	user := &domain.User{
		UserID:       "user_" + uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login verifies the password and returns a fresh token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Same bcrypt work as for a known email, so timing does not reveal accounts
		_ = bcrypt.CompareHashAndPassword(s.unknownUserHash(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err = s.userRepo.Update(ctx, email, func(u *domain.User) error {
		u.LastLogin = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// unknownUserHash is a hash of a random password at the service's cost
func (s *AuthService) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

// Me returns the profile of the authenticated user
func (s *AuthService) Me(ctx context.Context, email string) (*domain.Profile, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Profile()}, nil
}

// GenerateToken generates a JWT token for a user
func (s *AuthService) GenerateToken(user *domain.User) (string, error) {
	now := s.now()

	// Create claims
	claims := &Claims{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
