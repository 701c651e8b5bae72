package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/dto"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

const sessionCookie = "token"

type AuthHandler struct {
	authService      *services.AuthService
	challengeService *services.ChallengeService
	cfg              *config.Config
}

func NewAuthHandler(authService *services.AuthService, challengeService *services.ChallengeService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, challengeService: challengeService, cfg: cfg}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Signup(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, err, "Server Error")
	}

	h.setSession(c, resp.Token)
	resp.Message = "Signup successful, please verify your email and phone."
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Message: "User not found, please sign up",
			})
		}
		return h.fail(c, err, "Server Error")
	}

	h.setSession(c, resp.Token)
	resp.Message = "Login successful"
	return c.JSON(resp)
}

func (h *AuthHandler) RequestEmailOTP(c *fiber.Ctx) error {
	var req dto.EmailOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.challengeService.RequestEmailOTP(c.UserContext(), req.Email); err != nil {
		return h.fail(c, err, "Request OTP failed")
	}
	return c.JSON(dto.MessageResponse{Message: "OTP sent to your email"})
}

func (h *AuthHandler) VerifyEmailOTP(c *fiber.Ctx) error {
	var req dto.VerifyEmailOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.challengeService.VerifyEmailOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		return h.fail(c, err, "Email verification failed")
	}
	return c.JSON(dto.MessageResponse{Message: "OTP verified successfully"})
}

func (h *AuthHandler) RequestPhoneOTP(c *fiber.Ctx) error {
	var req dto.PhoneOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.challengeService.RequestPhoneOTP(c.UserContext(), req.Phone); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Message: "No user found with this number",
			})
		}
		return h.fail(c, err, "Request OTP failed")
	}
	return c.JSON(dto.MessageResponse{Message: "OTP sent to your phone"})
}

func (h *AuthHandler) VerifyPhoneOTP(c *fiber.Ctx) error {
	var req dto.VerifyPhoneOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.challengeService.VerifyPhoneOTP(c.UserContext(), req.Phone, req.OTP); err != nil {
		return h.fail(c, err, "Phone verification failed")
	}
	return c.JSON(dto.MessageResponse{Message: "OTP verified successfully, you can now login"})
}

// Signout only drops the session cookie. Issued tokens stay valid until
// they expire.
func (h *AuthHandler) Signout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.MessageResponse{Message: "Signout successful"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	err := h.challengeService.RequestPasswordReset(c.UserContext(), req.Email)
	switch {
	case err == nil:
		return c.JSON(dto.MessageResponse{Message: "Password reset link sent to email."})
	case errors.Is(err, services.ErrInvalidInput):
		return c.JSON(dto.MessageResponse{Message: "Please enter your email"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Message: "User not found"})
	}
	return h.fail(c, err, "Something went wrong")
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	// the token may also arrive as a path segment, matching the emailed link
	if token := c.Params("token"); token != "" {
		req.Token = token
	}

	if err := h.challengeService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return h.fail(c, err, "Something went wrong")
	}
	return c.JSON(dto.MessageResponse{Message: "Password reset successful"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Message: "Unauthorized",
		})
	}

	user, err := h.authService.CurrentUser(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Message: "User not found"})
		}
		return h.fail(c, err, "Server Error")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) setSession(c *fiber.Ctx, token string) {
	ttl := h.cfg.JWTExpiry
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// fail maps domain errors to client responses. Anything unrecognised is a
// server fault: logged, reported to Sentry and answered with fallback.
func (h *AuthHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: verr.Message})
	}

	status, message := fiber.StatusBadRequest, ""
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		message = "User already exists"
	case errors.Is(err, services.ErrPhoneTaken):
		message = "Phone number already registered"
	case errors.Is(err, services.ErrUserNotFound):
		message = "User not found"
	case errors.Is(err, services.ErrInvalidCredentials):
		message = "Invalid password"
	case errors.Is(err, services.ErrAccountNotVerified):
		status, message = fiber.StatusForbidden, "Please verify your email and phone before logging in"
	case errors.Is(err, services.ErrNoPendingChallenge):
		message = "No OTP pending, please request a new one"
	case errors.Is(err, services.ErrChallengeExpired):
		message = "OTP expired, please request a new one"
	case errors.Is(err, services.ErrChallengeMismatch):
		message = "Invalid OTP"
	case errors.Is(err, services.ErrResetTokenInvalid):
		message = "Invalid or expired token"
	case errors.Is(err, services.ErrResetTokenMismatch):
		message = "Invalid reset token"
	case errors.Is(err, services.ErrRateLimited):
		status, message = fiber.StatusTooManyRequests, "Too many requests, please try again later"
	}
	if message != "" {
		return c.Status(status).JSON(dto.ErrorResponse{Message: message})
	}

	slog.Error("request failed",
		"request_id", requestID(c),
		"action", c.Method()+" "+c.Path(),
		"error", err,
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	resp := dto.ErrorResponse{Message: fallback}
	if !h.cfg.IsProduction() {
		resp.Error = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Message: "Invalid request body",
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
