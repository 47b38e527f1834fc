package api

import "time"

// User is the identity record for the signed-in account. It is replaced wholesale on every
// successful login or verification.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
	MFACode    string `json:"mfaCode,omitempty"`
}

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginOutcome is the parsed result of a login call. Exactly one of User and RequiresMFA is
// set: when the backend asks for a second factor no user is returned yet.
type LoginOutcome struct {
	User        *User
	RequiresMFA bool
}

type baseResponse struct {
	Message string `json:"message,omitempty"`
}

type loginResponse struct {
	baseResponse
	User        *User `json:"user,omitempty"`
	RequiresMFA bool  `json:"requiresMfa,omitempty"`
}

// Expense is a single tracked expense.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Notes       string    `json:"notes,omitempty"`
}

// Settlement records a payment between two members of a shared ledger.
type Settlement struct {
	ID          string    `json:"id"`
	FromUserID  string    `json:"fromUserId"`
	ToUserID    string    `json:"toUserId"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Date        time.Time `json:"date"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
