package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Limits are requests per minute per client IP.
type Limits struct {
	API  int
	Auth int
}

var DefaultLimits = Limits{API: 60, Auth: 10}

func Setup(
	app *fiber.App,
	limits Limits,
	validator *services.SessionValidator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")
	api.Use(perIPLimiter(limits.API))

	api.Get("/health", healthHandler.Check)

	session := middleware.SessionRequired(validator)

	auth := api.Group("/auth")
	auth.Use(perIPLimiter(limits.Auth))
	auth.Post("/sign-up/email", authHandler.SignUp)
	auth.Post("/sign-in/email", authHandler.SignIn)
	auth.Get("/verify-email", authHandler.VerifyEmail)
	auth.Post("/request-password-reset", authHandler.RequestPasswordReset)
	auth.Post("/reset-password", authHandler.ResetPassword)

	auth.Post("/sign-out", session, authHandler.SignOut)
	auth.Get("/get-session", session, authHandler.GetSession)
	auth.Post("/send-verification-email", session, authHandler.SendVerificationEmail)
	auth.Post("/change-password", session, authHandler.ChangePassword)

	users := api.Group("/users", session)
	users.Get("/me", userHandler.Me)
	users.Patch("/me", userHandler.UpdateMe)
	users.Delete("/me", userHandler.DeleteMe)
}

func perIPLimiter(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   true,
				"message": "Too many requests",
			})
		},
	})
}
