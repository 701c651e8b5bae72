package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/notify"
)

// Notifier delivers challenge secrets to the user.
type Notifier interface {
	SendEmail(ctx context.Context, msg notify.EmailMessage) error
	SendSMS(ctx context.Context, to, body string) error
}

// Limiter throttles challenge requests per channel and recipient.
type Limiter interface {
	Allow(ctx context.Context, ch models.Channel, recipient string) error
}
