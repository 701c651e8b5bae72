package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/testutil"
	"github.com/google/uuid"
)

func seedUser(t *testing.T, repo *UserRepository, email, phone string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Phone:     phone,
		Gender:    "female",
		Role:      "patient",
		Password:  "$2a$04$digest",
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}
	return u
}

func TestCreateAssignsIDAndOmitsPassword(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))
	u := seedUser(t, repo, "ada@example.com", "0123456789")

	if u.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}

	got, err := repo.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.Password != "" {
		t.Fatalf("plain read should omit password, got %q", got.Password)
	}
	if got.IsEmailVerified || got.IsPhoneVerified {
		t.Fatal("new user must start unverified")
	}

	withPw, err := repo.FindByEmailWithPassword(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmailWithPassword: %v", err)
	}
	if withPw.Password != "$2a$04$digest" {
		t.Fatalf("password = %q", withPw.Password)
	}
}

func TestFindMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))

	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByEmail err = %v, want ErrNotFound", err)
	}
	if _, err := repo.FindByPhone(ctx, "0000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByPhone err = %v, want ErrNotFound", err)
	}
	if _, err := repo.FindByResetTokenID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByResetTokenID err = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))
	seedUser(t, repo, "ada@example.com", "0123456789")

	ok, err := repo.EmailExists(ctx, "ada@example.com")
	if err != nil || !ok {
		t.Fatalf("EmailExists = %v, %v", ok, err)
	}
	ok, err = repo.PhoneExists(ctx, "9999999999")
	if err != nil || ok {
		t.Fatalf("PhoneExists = %v, %v", ok, err)
	}
}

func TestChallengeLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))
	u := seedUser(t, repo, "ada@example.com", "0123456789")
	expiry := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)

	if err := repo.SetChallenge(ctx, u.ID, models.ChannelPhone, "digest-1", expiry); err != nil {
		t.Fatalf("SetChallenge: %v", err)
	}
	got, _ := repo.FindByPhone(ctx, "0123456789")
	digest, exp := got.Challenge(models.ChannelPhone)
	if digest == nil || *digest != "digest-1" || exp == nil || !exp.Equal(expiry) {
		t.Fatalf("challenge not stored: %v %v", digest, exp)
	}
	if d, e := got.Challenge(models.ChannelEmail); d != nil || e != nil {
		t.Fatal("email channel must be untouched")
	}

	if err := repo.CompleteVerification(ctx, u.ID, models.ChannelPhone); err != nil {
		t.Fatalf("CompleteVerification: %v", err)
	}
	got, _ = repo.FindByPhone(ctx, "0123456789")
	if !got.IsPhoneVerified {
		t.Fatal("phone should be verified")
	}
	if d, e := got.Challenge(models.ChannelPhone); d != nil || e != nil {
		t.Fatal("phone challenge should be cleared as a pair")
	}
}

func TestSetChallengeRejectsResetChannel(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	u := seedUser(t, repo, "ada@example.com", "0123456789")
	if err := repo.SetChallenge(context.Background(), u.ID, models.ChannelPasswordReset, "d", time.Now()); err == nil {
		t.Fatal("expected error for reset channel")
	}
}

func TestResetLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))
	u := seedUser(t, repo, "ada@example.com", "0123456789")
	expiry := time.Now().Add(15 * time.Minute)

	if err := repo.SetResetChallenge(ctx, u.ID, "tok-id", "secret-digest", expiry); err != nil {
		t.Fatalf("SetResetChallenge: %v", err)
	}
	got, err := repo.FindByResetTokenID(ctx, "tok-id")
	if err != nil {
		t.Fatalf("FindByResetTokenID: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("resolved wrong user")
	}

	if err := repo.CompletePasswordReset(ctx, u.ID, "new-digest"); err != nil {
		t.Fatalf("CompletePasswordReset: %v", err)
	}
	if _, err := repo.FindByResetTokenID(ctx, "tok-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("token id should be cleared, err = %v", err)
	}
	after, _ := repo.FindByEmailWithPassword(ctx, "ada@example.com")
	if after.Password != "new-digest" {
		t.Fatalf("password = %q", after.Password)
	}
	if d, e := after.Challenge(models.ChannelPasswordReset); d != nil || e != nil || after.ResetTokenID != nil {
		t.Fatal("reset fields should be cleared")
	}
}

func TestUpdateUnknownUser(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	err := repo.CompleteVerification(context.Background(), uuid.New(), models.ChannelEmail)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
