package notify

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
)

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Gateway routes outbound messages to the configured providers.
type Gateway struct {
	mail EmailSender
	sms  SMSSender
}

func NewGateway(mail EmailSender, sms SMSSender) *Gateway {
	return &Gateway{mail: mail, sms: sms}
}

// FromConfig wires SendGrid and Twilio when their credentials are present and
// falls back to log-only senders otherwise.
func FromConfig(cfg *config.Config) *Gateway {
	var mail EmailSender = logSender{}
	if cfg.SendGridAPIKey != "" {
		mail = NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridBaseURL, cfg.MailFrom, cfg.MailFromName, cfg.NotifyTimeout)
	} else {
		slog.Warn("SENDGRID_API_KEY not set, outbound email disabled")
	}

	var sms SMSSender = logSender{}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sms = NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioBaseURL, cfg.SMSCountryCode, cfg.NotifyTimeout)
	} else {
		slog.Warn("TWILIO credentials not set, outbound SMS disabled")
	}

	return NewGateway(mail, sms)
}

func (g *Gateway) SendEmail(ctx context.Context, msg EmailMessage) error {
	return g.mail.SendEmail(ctx, msg)
}

func (g *Gateway) SendSMS(ctx context.Context, to, body string) error {
	return g.sms.SendSMS(ctx, to, body)
}

// logSender drops messages. Bodies are never logged since they carry secrets.
type logSender struct{}

func (logSender) SendEmail(_ context.Context, msg EmailMessage) error {
	slog.Info("email dropped, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (logSender) SendSMS(_ context.Context, to, _ string) error {
	slog.Info("sms dropped, no provider configured", "to", to)
	return nil
}
