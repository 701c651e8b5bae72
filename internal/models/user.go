package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds identity and credential state. Challenge digests and their
// expiries are nullable and always written or cleared as a pair.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName  string    `gorm:"size:100;not null" json:"firstName"`
	MiddleName string    `gorm:"size:100" json:"middleName"`
	LastName   string    `gorm:"size:100;not null" json:"lastName"`
	Email      string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone      string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Gender     string    `gorm:"size:20;not null" json:"gender"`
	Role       string    `gorm:"size:30;not null" json:"role"`
	Password   string    `gorm:"not null" json:"-"`

	IsEmailVerified bool `gorm:"not null;default:false" json:"isEmailVerified"`
	IsPhoneVerified bool `gorm:"not null;default:false" json:"isPhoneVerified"`

	EmailOTP       *string    `gorm:"column:email_otp;size:72" json:"-"`
	EmailOTPExpiry *time.Time `gorm:"column:email_otp_expiry" json:"-"`
	PhoneOTP       *string    `gorm:"column:phone_otp;size:72" json:"-"`
	PhoneOTPExpiry *time.Time `gorm:"column:phone_otp_expiry" json:"-"`

	ResetTokenID         *string    `gorm:"column:reset_token_id;size:32;uniqueIndex" json:"-"`
	ResetPasswordToken   *string    `gorm:"column:reset_password_token;size:72" json:"-"`
	ResetPasswordExpires *time.Time `gorm:"column:reset_password_expires" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Challenge returns the pending digest and expiry for a channel, nil when
// nothing is pending.
func (u *User) Challenge(ch Channel) (*string, *time.Time) {
	switch ch {
	case ChannelEmail:
		return u.EmailOTP, u.EmailOTPExpiry
	case ChannelPhone:
		return u.PhoneOTP, u.PhoneOTPExpiry
	case ChannelPasswordReset:
		return u.ResetPasswordToken, u.ResetPasswordExpires
	}
	return nil, nil
}

// FullyVerified reports whether both contact channels were proven.
func (u *User) FullyVerified() bool {
	return u.IsEmailVerified && u.IsPhoneVerified
}
