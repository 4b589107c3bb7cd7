package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/travel-request-service/internal/domain"
	"github.com/spec-kit/travel-request-service/internal/policy"
	"github.com/spec-kit/travel-request-service/internal/repository"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User     *domain.User
	Claims   *Claims
	RawToken string
}

// Actor returns the policy-facing identity of the caller.
func (p *Principal) Actor() policy.Actor {
	return policy.Actor{ID: p.User.ID, Role: p.User.Role}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    repository.UserRepository
	denylist *Denylist
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, denylist *Denylist) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, denylist: denylist}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if m.denylist.IsRevoked(c.Context(), claims.ID) {
		return apperrors.NewUnauthorized("token revoked")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Claims: claims, RawToken: parts[1]})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
