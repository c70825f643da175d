package emailotp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoCode is returned when a user has no unexpired code on record
var ErrNoCode = errors.New("no valid code found")

// KindEmail tags codes delivered by email. The only kind today.
const KindEmail = "email"

// Code represents a stored one-time code digest
type Code struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CodeHash  string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// InsertCodeParams represents parameters for storing a new code digest
type InsertCodeParams struct {
	UserID    uuid.UUID
	CodeHash  string
	Kind      string
	ExpiresAt time.Time
}

// CodeRepository defines the interface for one-time code storage. Rows are
// append-only until DeleteAllForUser purges them.
type CodeRepository interface {
	Insert(ctx context.Context, params InsertCodeParams) (Code, error)
	FindLatestUnexpired(ctx context.Context, userID uuid.UUID) (Code, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}
