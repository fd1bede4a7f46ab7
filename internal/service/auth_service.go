package service

import (
	"fmt"
	"time"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/pkg/jwt"
	"github.com/helpdock/helpdock/internal/pkg/password"
)

// AdminRole is the only principal; the admin surface is single-user.
const AdminRole = "admin"

// AuthService exchanges the admin password for a session token.
type AuthService struct {
	passwordHash string
	jwtSecret    []byte
	tokenTTL     time.Duration
}

func NewAuthService(passwordHash string, jwtSecret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

func (s *AuthService) Login(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	}
	if err := password.Compare(s.passwordHash, plain); err != nil {
		return "", apperrors.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(AdminRole, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
