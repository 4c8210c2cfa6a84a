package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	valid := strings.Repeat("a", 42) + "_"

	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer " + valid, valid, true},
		{"lowercase scheme", "bearer " + valid, valid, true},
		{"missing", "", "", false},
		{"no token", "Bearer", "", false},
		{"basic", "Basic " + valid, "", false},
		{"short", "Bearer abc", "abc", false},
		{"padded base64", "Bearer " + valid[:42] + "=", valid[:42] + "=", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var (
				got string
				ok  bool
			)
			app.Get("/", func(c *fiber.Ctx) error {
				got, ok = BearerToken(c)
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
