package auth

import (
	"chat-mailbox/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credentials is what a client types at the username and password prompts.
// Length is unbounded, only emptiness is rejected.
type Credentials struct {
	Name   string `validate:"required"`
	Secret string `validate:"required"`
}

func ValidateCredentials(c Credentials) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMalformedInput, err)
	}
	return nil
}
