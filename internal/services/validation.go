package services

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/dto"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/signup.schema.json
var signupSchema []byte

type signupValidator struct {
	schema *gojsonschema.Schema
}

func newSignupValidator() (*signupValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(signupSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load signup schema: %w", err)
	}
	return &signupValidator{schema: schema}, nil
}

// Validate reports the first failing rule in the order clients expect:
// email format, then missing fields, then phone format.
func (v *signupValidator) Validate(req *dto.SignupRequest) error {
	res, err := v.schema.Validate(gojsonschema.NewGoLoader(req))
	if err != nil {
		return fmt.Errorf("failed to validate signup: %w", err)
	}
	if res.Valid() {
		return nil
	}

	var badEmail, badPhone, missing bool
	for _, e := range res.Errors() {
		switch e.Field() {
		case "email":
			badEmail = true
		case "phone":
			badPhone = true
		default:
			missing = true
		}
	}

	switch {
	case badEmail:
		return invalid("Invalid email address")
	case missing:
		return invalid("All fields are required")
	case badPhone:
		return invalid("Invalid phone number")
	}
	return invalid("Invalid request")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
