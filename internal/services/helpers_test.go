package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/dto"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/notify"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/repository"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

var (
	otpPattern   = regexp.MustCompile(`\b(\d{6})\b`)
	resetPattern = regexp.MustCompile(`/reset-password/([A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+)`)
)

type fakeNotifier struct {
	mu     sync.Mutex
	emails []notify.EmailMessage
	texts  []string
	err    error
}

func (f *fakeNotifier) SendEmail(_ context.Context, msg notify.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, msg)
	return f.err
}

func (f *fakeNotifier) SendSMS(_ context.Context, _ string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, body)
	return f.err
}

func (f *fakeNotifier) lastEmailOTP(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.emails) == 0 {
		t.Fatal("no email sent")
	}
	m := otpPattern.FindStringSubmatch(f.emails[len(f.emails)-1].Text)
	if m == nil {
		t.Fatalf("no code in email %q", f.emails[len(f.emails)-1].Text)
	}
	return m[1]
}

func (f *fakeNotifier) lastSMSOTP(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		t.Fatal("no sms sent")
	}
	m := otpPattern.FindStringSubmatch(f.texts[len(f.texts)-1])
	if m == nil {
		t.Fatalf("no code in sms %q", f.texts[len(f.texts)-1])
	}
	return m[1]
}

func (f *fakeNotifier) lastResetToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.emails) == 0 {
		t.Fatal("no email sent")
	}
	m := resetPattern.FindStringSubmatch(f.emails[len(f.emails)-1].Text)
	if m == nil {
		t.Fatalf("no reset link in %q", f.emails[len(f.emails)-1].Text)
	}
	return m[1]
}

type fakeLimiter struct {
	err   error
	calls int
}

func (f *fakeLimiter) Allow(context.Context, models.Channel, string) error {
	f.calls++
	return f.err
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	cfg        *config.Config
	users      *repository.UserRepository
	hasher     *BcryptHasher
	tokens     *TokenIssuer
	auth       *AuthService
	challenges *ChallengeService
	notifier   *fakeNotifier
	clock      *clock
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:   "test-secret",
		JWTExpiry:   24 * time.Hour,
		BcryptCost:  bcrypt.MinCost,
		OTPTTL:      10 * time.Minute,
		ResetTTL:    15 * time.Minute,
		FrontendURL: "https://app.carepoint.test",
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}

	users := repository.NewUserRepository(testutil.NewDB(t))
	hasher := NewBcryptHasher(cfg.BcryptCost)
	tokens := NewTokenIssuer(cfg)
	auth, err := NewAuthService(users, hasher, tokens, cfg)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	// stored timestamps lose sub-second precision on some drivers
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	notifier := &fakeNotifier{}
	challenges := NewChallengeService(users, hasher, notifier, nil, cfg).WithClock(clk.Now)

	return &fixture{
		cfg:        cfg,
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		auth:       auth,
		challenges: challenges,
		notifier:   notifier,
		clock:      clk,
	}
}

func validSignup() *dto.SignupRequest {
	return &dto.SignupRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "u@x.com",
		Password:  "oldpass",
		Role:      "patient",
		Phone:     "0123456789",
		Gender:    "female",
	}
}

func (f *fixture) signup(t *testing.T) *dto.AuthResponse {
	t.Helper()
	resp, err := f.auth.Signup(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return resp
}
