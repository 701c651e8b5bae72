package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

const (
	otpDigits         = 6
	resetTokenIDBytes = 16
	resetSecretBytes  = 32
)

// newOTP returns a zero-padded numeric code.
func newOTP(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// newResetToken returns the lookup id, the secret and the combined token
// handed to the user as "<id>.<secret>".
func newResetToken() (id, secret, token string, err error) {
	id, err = randomString(resetTokenIDBytes)
	if err != nil {
		return "", "", "", err
	}
	secret, err = randomString(resetSecretBytes)
	if err != nil {
		return "", "", "", err
	}
	return id, secret, id + "." + secret, nil
}

func parseResetToken(token string) (id, secret string, ok bool) {
	id, secret, ok = strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
