package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey   string
	baseURL  string
	from     string
	fromName string
	timeout  time.Duration
}

func NewSendGridMailer(apiKey, baseURL, from, fromName string, timeout time.Duration) *SendGridMailer {
	return &SendGridMailer{
		apiKey:   apiKey,
		baseURL:  baseURL,
		from:     from,
		fromName: fromName,
		timeout:  timeout,
	}
}

// SendEmail posts msg to SendGrid. The request timeout is the configured one
// or the context deadline, whichever comes first.
func (m *SendGridMailer) SendEmail(ctx context.Context, msg EmailMessage) error {
	timeout, err := requestTimeout(ctx, m.timeout)
	if err != nil {
		return err
	}

	content := []sendGridContent{{Type: "text/plain", Value: msg.Text}}
	if msg.HTML != "" {
		content = append(content, sendGridContent{Type: "text/html", Value: msg.HTML})
	}
	payload := sendGridPayload{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To, Name: msg.ToName}}}},
		From:             sendGridAddress{Email: m.from, Name: m.fromName},
		Subject:          msg.Subject,
		Content:          content,
	}

	agent := fiber.Post(m.baseURL + "/v3/mail/send")
	agent.Set(fiber.HeaderAuthorization, "Bearer "+m.apiKey)
	agent.JSON(payload)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("sendgrid request: %w", errors.Join(errs...))
	}
	if code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("sendgrid returned %d: %s", code, string(body))
	}
	return nil
}
