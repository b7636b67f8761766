package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/service"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	in, err := dto.DecodeUserInput(c.Body())
	if err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.NewSuccess("User registered successfully",
		dto.RegisterResponse{NewUser: dto.NewUserDetail(user)}, nil))
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	in, err := dto.DecodeUserInput(c.Body())
	if err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.JSON(dto.NewSuccess("Login successful", dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserProfile(result.User),
	}, nil))
}

// Logout handles POST /logout by revoking the presented token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), identity); err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("Logged out", dto.LogoutResponse{LoggedOut: true}, nil))
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("Current user", dto.NewUserProfile(user), nil))
}

// currentIdentity reads the identity stored by the auth middleware.
func currentIdentity(c *fiber.Ctx) (*domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized(auth.CodeAuthMissing, "Authentication required", "authorization")
	}
	return identity, nil
}
