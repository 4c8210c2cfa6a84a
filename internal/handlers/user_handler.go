package handlers

import (
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	authService *services.AuthService
}

func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	return c.JSON(dto.UserEnvelope{User: dto.NewUserResponse(middleware.GetIdentity(c).User)})
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	id := middleware.GetIdentity(c)
	user, err := h.authService.UpdateProfile(c.UserContext(), id.User.ID, services.ProfileUpdate{
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		return respondError(c, "update_profile", err)
	}
	return c.JSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	var req dto.DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	id := middleware.GetIdentity(c)
	if err := h.authService.DeleteAccount(c.UserContext(), id.User.ID, req.Password); err != nil {
		return respondError(c, "delete_account", err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}
