package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EmailMessage is a provider-neutral outbound mail.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

var resetPasswordHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933;">
    <h2>Password Reset Request</h2>
    <p>Hello {{.Name}},</p>
    <p>We received a request to reset your password. The link below is valid for {{.Minutes}} minutes.</p>
    <p><a href="{{.Link}}" style="background:#0b7285;color:#fff;padding:10px 18px;border-radius:4px;text-decoration:none;">Reset Password</a></p>
    <p>If you did not request this, you can safely ignore this email.</p>
  </body>
</html>`))

var otpHTML = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933;">
    <h2>Verify your email</h2>
    <p>Hello {{.Name}},</p>
    <p>Your verification code is <strong style="font-size:20px;letter-spacing:4px;">{{.Code}}</strong></p>
    <p>It expires in {{.Minutes}} minutes.</p>
  </body>
</html>`))

// PasswordResetEmail builds the reset link mail.
func PasswordResetEmail(to, name, link string, ttl time.Duration) (EmailMessage, error) {
	data := struct {
		Name    string
		Link    string
		Minutes int
	}{displayName(name), link, int(ttl.Minutes())}

	var buf bytes.Buffer
	if err := resetPasswordHTML.Execute(&buf, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render reset email: %w", err)
	}

	return EmailMessage{
		To:      to,
		ToName:  data.Name,
		Subject: "Password Reset Request",
		Text:    "Click the link to reset your password: " + link,
		HTML:    buf.String(),
	}, nil
}

// OTPEmail builds the email verification code mail.
func OTPEmail(to, name, code string, ttl time.Duration) (EmailMessage, error) {
	data := struct {
		Name    string
		Code    string
		Minutes int
	}{displayName(name), code, int(ttl.Minutes())}

	var buf bytes.Buffer
	if err := otpHTML.Execute(&buf, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render otp email: %w", err)
	}

	return EmailMessage{
		To:      to,
		ToName:  data.Name,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your Verification OTP is %s. It expires in %d minutes.", code, data.Minutes),
		HTML:    buf.String(),
	}, nil
}

// OTPText is the SMS body for a phone verification code.
func OTPText(code string) string {
	return "Your Verification OTP is " + code
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return cases.Title(language.English).String(name)
}
