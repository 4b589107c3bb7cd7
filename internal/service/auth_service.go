package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/travel-request-service/internal/auth"
	"github.com/spec-kit/travel-request-service/internal/config"
	"github.com/spec-kit/travel-request-service/internal/domain"
	"github.com/spec-kit/travel-request-service/internal/repository"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

// AuthService coordinates registration, login and token lifecycle.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	denylist   *auth.Denylist
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Denylist *auth.Denylist
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		denylist:   deps.Denylist,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account. Registration always produces the user
// role; administrators are provisioned directly in the database.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewValidationError("email already registered", map[string]any{
			"email": "already in use",
		})
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Refresh issues a fresh token for the caller and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, user *domain.User, claims *auth.Claims) (string, time.Time, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, err
	}
	if claims != nil && claims.ExpiresAt != nil {
		if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return "", time.Time{}, err
		}
	}
	return token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
