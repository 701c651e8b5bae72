package services

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the identity snapshot embedded in a session token.
type SessionClaims struct {
	Subject string
	Role    string
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTExpiry,
		now:    time.Now,
	}
}

func (t *TokenIssuer) Issue(claims SessionClaims, ttl time.Duration) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("token signing secret is not configured")
	}
	if claims.Subject == "" {
		return "", errors.New("token subject is required")
	}

	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  claims.Subject,
		"role": claims.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

// IssueFor signs a session token for the user with the configured lifetime.
func (t *TokenIssuer) IssueFor(user *models.User) (string, error) {
	return t.Issue(SessionClaims{Subject: user.ID.String(), Role: user.Role}, t.ttl)
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}
