package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// TwilioSMS delivers text messages through the Twilio Messages API.
type TwilioSMS struct {
	accountSID  string
	authToken   string
	from        string
	baseURL     string
	countryCode string
	timeout     time.Duration
}

func NewTwilioSMS(accountSID, authToken, from, baseURL, countryCode string, timeout time.Duration) *TwilioSMS {
	return &TwilioSMS{
		accountSID:  accountSID,
		authToken:   authToken,
		from:        from,
		baseURL:     baseURL,
		countryCode: countryCode,
		timeout:     timeout,
	}
}

// SendSMS is bounded by the context deadline when it is sooner than the
// configured timeout.
func (t *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	timeout, err := requestTimeout(ctx, t.timeout)
	if err != nil {
		return err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("To", t.e164(to))
	args.Set("From", t.from)
	args.Set("Body", body)

	agent := fiber.Post(fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID))
	agent.BasicAuth(t.accountSID, t.authToken)
	agent.Form(args)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}

	code, resp, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("twilio request: %w", errors.Join(errs...))
	}
	if code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("twilio returned %d: %s", code, string(resp))
	}
	return nil
}

// e164 prefixes local numbers with the configured country code.
func (t *TwilioSMS) e164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return t.countryCode + phone
}
