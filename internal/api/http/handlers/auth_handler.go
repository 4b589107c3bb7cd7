package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/travel-request-service/internal/api/dto"
	"github.com/spec-kit/travel-request-service/internal/auth"
	"github.com/spec-kit/travel-request-service/internal/domain"
	"github.com/spec-kit/travel-request-service/internal/service"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

// AuthHandler exposes registration and token lifecycle endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, token, exp, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status":        "success",
		"message":       "user created",
		"user":          userResponse(user),
		"authorization": dto.Authorization{Token: token, Type: "bearer", ExpiresAt: exp},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":        "success",
		"user":          userResponse(user),
		"authorization": dto.Authorization{Token: token, Type: "bearer", ExpiresAt: exp},
	})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.Context(), principal.Claims); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "logged out",
	})
}

// Refresh handles POST /refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	token, exp, err := h.auth.Refresh(c.Context(), principal.User, principal.Claims)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":        "success",
		"user":          userResponse(principal.User),
		"authorization": dto.Authorization{Token: token, Type: "bearer", ExpiresAt: exp},
	})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}
