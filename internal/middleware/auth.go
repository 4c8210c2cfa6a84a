package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// SessionRequired authenticates the request by its bearer session token.
// Headers that are not "Bearer <token>" with a well-formed token are rejected
// before the store is consulted. Every rejection looks the same to the
// client.
func SessionRequired(validator *services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return unauthorized(c, services.CauseMalformed)
		}

		id, err := validator.Validate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				return unauthorized(c, services.Cause(err))
			}
			slog.Error("session validation failed", "action", "authenticate", "trace_id", c.Locals("requestid"), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		c.Locals(identityKey, id)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// BearerToken extracts a syntactically valid session token from the
// Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, services.ValidTokenSyntax(token)
}

// GetIdentity returns the identity set by SessionRequired, or nil.
func GetIdentity(c *fiber.Ctx) *services.Identity {
	id, _ := c.Locals(identityKey).(*services.Identity)
	return id
}

// GetSessionToken returns the bearer token that authenticated the request.
func GetSessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenKey).(string)
	return token
}

func unauthorized(c *fiber.Ctx, cause string) error {
	slog.Info("request not authenticated", "action", "authenticate", "cause", cause, "path", c.Path(), "trace_id", c.Locals("requestid"))
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
