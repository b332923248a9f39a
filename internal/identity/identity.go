// Package identity plays the role of the external identity provider: it owns
// credential records, issues bearer tokens, and verifies them. Everything the
// rest of the backend needs from it goes through the Provider interface so the
// whole thing can be swapped for a test double or a hosted provider.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// Identity is what a verified bearer token resolves to. It intentionally does
// not carry a role: authorization always re-reads the role from the user
// directory, never from token claims.
type Identity struct {
	UID           uuid.UUID
	Email         string
	EmailVerified bool
}

type Provider interface {
	// Verify validates a bearer token and resolves the account behind it.
	Verify(ctx context.Context, token string) (*Identity, error)

	// Authenticate checks email/password and issues a bearer token.
	Authenticate(ctx context.Context, email, password string) (string, *Identity, error)

	// CreateAccount provisions a credential record and returns its uid.
	CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error)

	// DeleteAccount removes the credential record. Tokens already issued for
	// the account stop verifying once the record is gone.
	DeleteAccount(ctx context.Context, uid uuid.UUID) error

	// CreateResetToken issues a short-lived password-reset token for the
	// account registered under email.
	CreateResetToken(ctx context.Context, email string) (string, error)

	// ResetPassword consumes a reset token and replaces the password.
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}
