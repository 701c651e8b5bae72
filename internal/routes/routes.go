package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter). Per-recipient
	// OTP throttling happens in the challenge service.
	auth := api.Group("/v1/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/signout", authHandler.Signout)

	auth.Post("/otp/email/request", authHandler.RequestEmailOTP)
	auth.Post("/otp/email/verify", authHandler.VerifyEmailOTP)
	auth.Post("/otp/phone/request", authHandler.RequestPhoneOTP)
	auth.Post("/otp/phone/verify", authHandler.VerifyPhoneOTP)

	auth.Post("/password/forgot", authHandler.ForgotPassword)
	auth.Post("/password/reset", authHandler.ResetPassword)
	auth.Post("/password/reset/:token", authHandler.ResetPassword)

	auth.Get("/me", middleware.JWTProtected(cfg), authHandler.Me)
}
