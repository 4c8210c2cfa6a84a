package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler fiber.Handler) (*http.Response, dto.ErrorResponse) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "email is required"}}, 400, "Validation failed"},
		{"conflict", services.ErrEmailTaken, 409, "An account may already exist for this email"},
		{"credentials", &services.CauseError{Err: services.ErrInvalidCredentials, Cause: services.CauseUnknownEmail}, 401, "Invalid email or password"},
		{"unauthenticated", services.ErrUnauthenticated, 401, "Unauthorized"},
		{"token", &services.CauseError{Err: services.ErrInvalidOrExpiredToken, Cause: services.CauseConsumed}, 400, "Invalid or expired token"},
		{"already verified", services.ErrEmailAlreadyVerified, 400, "Email already verified"},
		{"user missing", services.ErrUserNotFound, 404, "User not found"},
		{"delivery", fmt.Errorf("%w: provider down", services.ErrDelivery), 503, "Email could not be sent, please try again later"},
		{"store", fmt.Errorf("%w: connection refused", services.ErrStoreUnavailable), 500, "Internal server error"},
		{"unknown", errors.New("boom"), 500, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := serve(t, func(c *fiber.Ctx) error {
				return respondError(c, "test", tt.err)
			})
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.True(t, body.Error)
			assert.Equal(t, tt.message, body.Message)
			assert.NotContains(t, body.Message, "already_used")
		})
	}
}

func TestRespondErrorValidationFields(t *testing.T) {
	_, body := serve(t, func(c *fiber.Ctx) error {
		return respondError(c, "test", &services.ValidationError{Fields: map[string]string{"password": "password is required"}})
	})
	assert.Equal(t, map[string]string{"password": "password is required"}, body.Fields)
}

func TestErrorHandlerHidesServerErrors(t *testing.T) {
	resp, body := serve(t, func(c *fiber.Ctx) error {
		return errors.New("pq: password authentication failed")
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body.Message)

	resp, body = serve(t, func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "Method Not Allowed")
	})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method Not Allowed", body.Message)
}
