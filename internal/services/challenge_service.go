package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/notify"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/repository"
)

// ChallengeService issues and redeems one-time secrets: email and phone
// OTPs and password reset tokens. Each channel holds at most one pending
// challenge per user and a new request always replaces the old one.
type ChallengeService struct {
	users       *repository.UserRepository
	hasher      Hasher
	notifier    Notifier
	limiter     Limiter
	otpTTL      time.Duration
	resetTTL    time.Duration
	frontendURL string
	now         func() time.Time
}

// NewChallengeService wires the engine. limiter may be nil to disable
// request throttling.
func NewChallengeService(users *repository.UserRepository, hasher Hasher, notifier Notifier, limiter Limiter, cfg *config.Config) *ChallengeService {
	return &ChallengeService{
		users:       users,
		hasher:      hasher,
		notifier:    notifier,
		limiter:     limiter,
		otpTTL:      cfg.OTPTTL,
		resetTTL:    cfg.ResetTTL,
		frontendURL: cfg.FrontendURL,
		now:         time.Now,
	}
}

// WithClock replaces the time source.
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	s.now = now
	return s
}

func (s *ChallengeService) RequestEmailOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}

	user, err := s.lookup(s.users.FindByEmail(ctx, email))
	if err != nil {
		return err
	}

	code, err := s.issueOTP(ctx, user, models.ChannelEmail, user.Email)
	if err != nil {
		return err
	}

	msg, err := notify.OTPEmail(user.Email, user.FirstName, code, s.otpTTL)
	if err != nil {
		return err
	}
	if err := s.notifier.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver email otp: %w", err)
	}
	return nil
}

func (s *ChallengeService) RequestPhoneOTP(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return invalid("Phone number is required")
	}

	user, err := s.lookup(s.users.FindByPhone(ctx, phone))
	if err != nil {
		return err
	}

	code, err := s.issueOTP(ctx, user, models.ChannelPhone, user.Phone)
	if err != nil {
		return err
	}

	if err := s.notifier.SendSMS(ctx, user.Phone, notify.OTPText(code)); err != nil {
		return fmt.Errorf("failed to deliver phone otp: %w", err)
	}
	return nil
}

func (s *ChallengeService) VerifyEmailOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return invalid("Email and OTP are required")
	}

	user, err := s.lookup(s.users.FindByEmail(ctx, email))
	if err != nil {
		return err
	}
	return s.redeemOTP(ctx, user, models.ChannelEmail, code)
}

func (s *ChallengeService) VerifyPhoneOTP(ctx context.Context, phone, code string) error {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return invalid("Phone and OTP are required")
	}

	user, err := s.lookup(s.users.FindByPhone(ctx, phone))
	if err != nil {
		return err
	}
	return s.redeemOTP(ctx, user, models.ChannelPhone, code)
}

// RequestPasswordReset stores a hashed reset secret under a fresh token id
// and mails the link "<frontend>/reset-password/<id>.<secret>".
func (s *ChallengeService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}

	user, err := s.lookup(s.users.FindByEmail(ctx, email))
	if err != nil {
		return err
	}
	if err := s.allow(ctx, models.ChannelPasswordReset, user.Email); err != nil {
		return err
	}

	tokenID, secret, token, err := newResetToken()
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}
	if err := s.users.SetResetChallenge(ctx, user.ID, tokenID, digest, s.now().Add(s.resetTTL)); err != nil {
		return err
	}
	slog.Info("password reset requested", "user_id", user.ID.String(), "channel", models.ChannelPasswordReset.String())

	link := s.frontendURL + "/reset-password/" + token
	msg, err := notify.PasswordResetEmail(user.Email, user.FirstName, link, s.resetTTL)
	if err != nil {
		return err
	}
	if err := s.notifier.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver reset link: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token and replaces the password. The token
// id selects exactly one user; the secret is then checked against that
// user's digest only.
func (s *ChallengeService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid("Invalid request")
	}
	if newPassword == "" {
		return invalid("Please enter a new password")
	}
	if len(newPassword) > maxSecretBytes {
		return invalid("Password must be at most 72 bytes")
	}

	tokenID, secret, ok := parseResetToken(token)
	if !ok {
		return ErrResetTokenInvalid
	}

	user, err := s.users.FindByResetTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	digest, expiresAt := user.Challenge(models.ChannelPasswordReset)
	if digest == nil || expiresAt == nil || expiresAt.Before(s.now()) {
		return ErrResetTokenInvalid
	}
	if !s.hasher.Compare(secret, *digest) {
		return ErrResetTokenMismatch
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.CompletePasswordReset(ctx, user.ID, hash); err != nil {
		return err
	}
	slog.Info("password reset completed", "user_id", user.ID.String())
	return nil
}

// issueOTP generates, hashes and persists a new code, replacing any pending
// one. The plaintext code is returned for delivery only.
func (s *ChallengeService) issueOTP(ctx context.Context, user *models.User, ch models.Channel, recipient string) (string, error) {
	if err := s.allow(ctx, ch, recipient); err != nil {
		return "", err
	}

	code, err := newOTP(otpDigits)
	if err != nil {
		return "", err
	}
	digest, err := s.hasher.Hash(code)
	if err != nil {
		return "", err
	}
	if err := s.users.SetChallenge(ctx, user.ID, ch, digest, s.now().Add(s.otpTTL)); err != nil {
		return "", err
	}

	slog.Info("otp issued", "user_id", user.ID.String(), "channel", ch.String())
	return code, nil
}

// redeemOTP checks expiry before the digest: an expired challenge fails the
// same way whether or not the code is right. The boundary instant is valid.
func (s *ChallengeService) redeemOTP(ctx context.Context, user *models.User, ch models.Channel, code string) error {
	digest, expiresAt := user.Challenge(ch)
	if digest == nil || expiresAt == nil {
		return ErrNoPendingChallenge
	}
	if expiresAt.Before(s.now()) {
		return ErrChallengeExpired
	}
	if !s.hasher.Compare(code, *digest) {
		return ErrChallengeMismatch
	}

	if err := s.users.CompleteVerification(ctx, user.ID, ch); err != nil {
		return err
	}
	slog.Info("otp verified", "user_id", user.ID.String(), "channel", ch.String())
	return nil
}

// allow fails open when the limiter backend is unavailable.
func (s *ChallengeService) allow(ctx context.Context, ch models.Channel, recipient string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Allow(ctx, ch, recipient)
	if err == nil || errors.Is(err, ErrRateLimited) {
		return err
	}
	slog.Warn("otp limiter unavailable, allowing request", "channel", ch.String(), "error", err)
	return nil
}

func (s *ChallengeService) lookup(user *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
