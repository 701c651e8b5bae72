package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// UserRepository is the credential store. Reads omit the password digest
// unless the method name says otherwise.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, false, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, false, "email = ?", email)
}

func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, true, "email = ?", email)
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.first(ctx, false, "phone = ?", phone)
}

func (r *UserRepository) FindByResetTokenID(ctx context.Context, tokenID string) (*models.User, error) {
	return r.first(ctx, false, "reset_token_id = ?", tokenID)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "phone = ?", phone)
}

// SetChallenge overwrites the pending OTP for an OTP channel.
func (r *UserRepository) SetChallenge(ctx context.Context, id uuid.UUID, ch models.Channel, digest string, expiresAt time.Time) error {
	if ch == models.ChannelPasswordReset {
		return fmt.Errorf("password reset challenges need a token id")
	}
	return r.update(ctx, id, map[string]interface{}{
		ch.DigestColumn(): digest,
		ch.ExpiryColumn(): expiresAt,
	})
}

// SetResetChallenge overwrites the pending password reset. The token id is
// the lookup key handed out in the reset link.
func (r *UserRepository) SetResetChallenge(ctx context.Context, id uuid.UUID, tokenID, digest string, expiresAt time.Time) error {
	ch := models.ChannelPasswordReset
	return r.update(ctx, id, map[string]interface{}{
		"reset_token_id":  tokenID,
		ch.DigestColumn(): digest,
		ch.ExpiryColumn(): expiresAt,
	})
}

// CompleteVerification flips the channel's verified flag and consumes the
// pending OTP in one statement.
func (r *UserRepository) CompleteVerification(ctx context.Context, id uuid.UUID, ch models.Channel) error {
	col := ch.VerifiedColumn()
	if col == "" {
		return fmt.Errorf("channel %s has no verified flag", ch)
	}
	return r.update(ctx, id, map[string]interface{}{
		col:               true,
		ch.DigestColumn(): nil,
		ch.ExpiryColumn(): nil,
	})
}

// CompletePasswordReset stores the new password digest and consumes the
// reset challenge.
func (r *UserRepository) CompletePasswordReset(ctx context.Context, id uuid.UUID, passwordHash string) error {
	ch := models.ChannelPasswordReset
	return r.update(ctx, id, map[string]interface{}{
		"password":        passwordHash,
		"reset_token_id":  nil,
		ch.DigestColumn(): nil,
		ch.ExpiryColumn(): nil,
	})
}

func (r *UserRepository) first(ctx context.Context, withPassword bool, query string, args ...interface{}) (*models.User, error) {
	tx := r.db.WithContext(ctx)
	if !withPassword {
		tx = tx.Omit("password")
	}

	var user models.User
	if err := tx.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
