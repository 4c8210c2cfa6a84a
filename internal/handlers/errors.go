package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

// deliveryRetryAfter is the Retry-After hint sent when the email provider
// could not be reached.
const deliveryRetryAfter = 60

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// respondError maps a service error onto the public response. Internal
// causes are logged against action and never reach the client.
func respondError(c *fiber.Ctx, action string, err error) error {
	attrs := []any{"action", action, "trace_id", traceID(c)}
	if id := middleware.GetIdentity(c); id != nil {
		attrs = append(attrs, "user_id", id.User.ID.String())
	}
	if cause := services.Cause(err); cause != "" {
		attrs = append(attrs, "cause", cause)
	}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation failed", Fields: verr.Fields,
		})
	case errors.Is(err, services.ErrEmailTaken):
		slog.Info("registration conflict", attrs...)
		return errorJSON(c, fiber.StatusConflict, "An account may already exist for this email")
	case errors.Is(err, services.ErrInvalidCredentials):
		slog.Info("credential check failed", attrs...)
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrUnauthenticated):
		slog.Info("authentication failed", attrs...)
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		slog.Info("token rejected", attrs...)
		return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, services.ErrEmailAlreadyVerified):
		return errorJSON(c, fiber.StatusBadRequest, "Email already verified")
	case errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrDelivery):
		slog.Error("email delivery failed", append(attrs, "error", err)...)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(deliveryRetryAfter))
		return errorJSON(c, fiber.StatusServiceUnavailable, "Email could not be sent, please try again later")
	default:
		slog.Error("request failed", append(attrs, "error", err)...)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// ErrorHandler is the Fiber fallback for errors no handler turned into a
// response. Server error details are never exposed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "trace_id", traceID(c), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return errorJSON(c, code, message)
}

func traceID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
