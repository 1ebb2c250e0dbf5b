package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role — единственная фиксированная роль пользователя.
// Назначается один раз при регистрации и дальше не меняется.
type Role string

const (
	RoleCreator     Role = "creator"     // Оформляет полисы
	RoleUnderwriter Role = "underwriter" // Первая ступень согласования
	RoleManager     Role = "manager"     // Вторая (финальная) ступень
)

// ValidRole проверяет роль против закрытого перечня
func ValidRole(r Role) bool {
	switch r {
	case RoleCreator, RoleUnderwriter, RoleManager:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // Никогда не отправляем на фронт
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// Secure Token Issuing
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

// SignupRequest — регистрация с фиксацией роли
type SignupRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
}

var ErrBadSignup = errors.New("invalid signup request")

// Validate нормализует и проверяет данные регистрации
func (r *SignupRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)

	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return errors.Join(ErrBadSignup, errors.New("valid email is required"))
	}
	if r.DisplayName == "" {
		return errors.Join(ErrBadSignup, errors.New("display_name is required"))
	}
	if len(r.Password) < 8 {
		return errors.Join(ErrBadSignup, errors.New("password must be at least 8 characters"))
	}
	if !ValidRole(r.Role) {
		return errors.Join(ErrBadSignup, errors.New("role must be one of creator/underwriter/manager"))
	}
	return nil
}
