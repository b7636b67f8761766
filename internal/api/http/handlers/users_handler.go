package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/service"
)

// UsersHandler exposes user listing and profile management.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users. Admins see the full projection, staff a summary.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	users, view, err := h.users.List(c.UserContext(), identity)
	if err != nil {
		return err
	}

	var data any
	if view == service.UserViewFull {
		data = dto.NewUserDetails(users)
	} else {
		data = dto.NewUserSummaries(users)
	}
	return c.JSON(dto.NewSuccess("Users fetched", data, fiber.Map{"count": len(users)}))
}

// CheckEmail handles GET /checkEmail/:email.
func (h *UsersHandler) CheckEmail(c *fiber.Ctx) error {
	_, exists, err := h.users.EmailExists(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("Email checked", dto.EmailCheckResponse{Exists: exists}, nil))
}

// UpdateSelf handles PUT /users/:id.
func (h *UsersHandler) UpdateSelf(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	in, err := dto.DecodeUserInput(c.Body())
	if err != nil {
		return err
	}

	user, err := h.users.UpdateSelf(c.UserContext(), identity, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("Profile updated", dto.UpdateResponse{Updated: true, User: dto.NewUserProfile(user)}, nil))
}

// DeleteSelf handles DELETE /users/me.
func (h *UsersHandler) DeleteSelf(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteSelf(c.UserContext(), identity); err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("Account deleted", dto.DeleteResponse{Deleted: true, UserID: identity.ID}, nil))
}

// AdminUpdate handles PUT /admin/users/:id.
func (h *UsersHandler) AdminUpdate(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	in, err := dto.DecodeUserInput(c.Body())
	if err != nil {
		return err
	}

	user, err := h.users.AdminUpdate(c.UserContext(), identity, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("User updated", dto.UpdateResponse{Updated: true, User: dto.NewUserProfile(user)}, nil))
}

// AdminDelete handles DELETE /admin/users/:id.
func (h *UsersHandler) AdminDelete(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	targetID := utils.CopyString(c.Params("id"))
	if err := h.users.AdminDelete(c.UserContext(), identity, targetID); err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("User deleted", dto.DeleteResponse{Deleted: true, UserID: targetID}, nil))
}
