package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when creating a user with an email that is
	// already registered. Backed by a uniqueness constraint in the store, so
	// concurrent duplicate registrations are rejected there rather than by
	// an application-level existence check.
	ErrEmailTaken = errors.New("email already registered")
)

// User represents a registered identity and its credential material
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TotpSecret   string    `json:"-"`
	MfaEnabled   bool      `json:"mfa_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserParams represents parameters for creating a user
type CreateUserParams struct {
	Email        string
	PasswordHash string
}

// UpdateTotpParams represents parameters for storing a TOTP enrollment
type UpdateTotpParams struct {
	ID         uuid.UUID
	TotpSecret string
	MfaEnabled bool
}

// Repository defines the interface for credential storage operations
type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	UpdateTotp(ctx context.Context, params UpdateTotpParams) error
}
