package session

import (
	"errors"
	"net/mail"
	"strings"
)

// Validation failures surfaced before any backend call is made.
var (
	ErrEmailInvalid        = errors.New("invalid email address")
	ErrPasswordRequired    = errors.New("password is required")
	ErrNameRequired        = errors.New("name is required")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrMFACodeInvalid      = errors.New("verification code must be 6 digits")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrConfirmPasswordGone = errors.New("password confirmation is required")
)

// ValidateEmail rejects anything the mail address grammar does not accept.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	return nil
}

// ValidateMFACode accepts exactly six ASCII digits.
func ValidateMFACode(code string) error {
	if len(code) != 6 {
		return ErrMFACodeInvalid
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrMFACodeInvalid
		}
	}
	return nil
}

// ValidateLogin checks the primary credentials before they leave the client.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// ValidateSignup checks a registration form.
func ValidateSignup(name, email, password, confirm string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if confirm == "" {
		return ErrConfirmPasswordGone
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
