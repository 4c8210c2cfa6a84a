package handlers

import (
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService         *services.AuthService
	verificationService *services.VerificationService
}

func NewAuthHandler(authService *services.AuthService, verificationService *services.VerificationService) *AuthHandler {
	return &AuthHandler{authService: authService, verificationService: verificationService}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return respondError(c, "register", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	issued, user, err := h.authService.Login(c.UserContext(), req.Email, req.Password, services.SessionMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return respondError(c, "login", err)
	}

	return c.JSON(dto.AuthResponse{Token: issued.Token, User: dto.NewUserResponse(user)})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.GetSessionToken(c)); err != nil {
		return respondError(c, "logout", err)
	}
	return c.JSON(dto.StatusResponse{Status: true})
}

func (h *AuthHandler) GetSession(c *fiber.Ctx) error {
	id := middleware.GetIdentity(c)
	return c.JSON(dto.SessionEnvelope{
		Session: dto.NewSessionResponse(id.Session),
		User:    dto.NewUserResponse(id.User),
	})
}

func (h *AuthHandler) SendVerificationEmail(c *fiber.Ctx) error {
	id := middleware.GetIdentity(c)
	if err := h.verificationService.RequestEmailVerification(c.UserContext(), id.User.ID); err != nil {
		return respondError(c, "request_email_verification", err)
	}
	return c.JSON(dto.StatusResponse{Status: true})
}

// VerifyEmail redeems the token from the emailed link.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired token")
	}

	user, err := h.verificationService.RedeemEmailVerification(c.UserContext(), token)
	if err != nil {
		return respondError(c, "verify_email", err)
	}
	return c.JSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

// RequestPasswordReset answers the same way whether or not the email is
// registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.RequestPasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.verificationService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondError(c, "request_password_reset", err)
	}
	return c.JSON(dto.StatusResponse{Status: true})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}

	if err := h.verificationService.RedeemPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return respondError(c, "reset_password", err)
	}
	return c.JSON(dto.StatusResponse{Status: true})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	id := middleware.GetIdentity(c)
	if err := h.authService.ChangePassword(c.UserContext(), id, req.CurrentPassword, req.NewPassword, req.RevokeOtherSessions); err != nil {
		return respondError(c, "change_password", err)
	}
	return c.JSON(dto.StatusResponse{Status: true})
}
