package models

// Channel identifies one independent challenge slot on a user record.
type Channel string

const (
	ChannelEmail         Channel = "email"
	ChannelPhone         Channel = "phone"
	ChannelPasswordReset Channel = "password_reset"
)

func (c Channel) String() string {
	return string(c)
}

// DigestColumn and ExpiryColumn name the persisted pair for the channel.
func (c Channel) DigestColumn() string {
	switch c {
	case ChannelEmail:
		return "email_otp"
	case ChannelPhone:
		return "phone_otp"
	case ChannelPasswordReset:
		return "reset_password_token"
	}
	return ""
}

func (c Channel) ExpiryColumn() string {
	switch c {
	case ChannelEmail:
		return "email_otp_expiry"
	case ChannelPhone:
		return "phone_otp_expiry"
	case ChannelPasswordReset:
		return "reset_password_expires"
	}
	return ""
}

// VerifiedColumn is empty for channels that do not carry a verified flag.
func (c Channel) VerifiedColumn() string {
	switch c {
	case ChannelEmail:
		return "is_email_verified"
	case ChannelPhone:
		return "is_phone_verified"
	}
	return ""
}
