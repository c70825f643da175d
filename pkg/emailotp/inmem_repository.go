package emailotp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemCodeRepository implements CodeRepository using an in-memory slice
type InMemCodeRepository struct {
	codes []Code
	mu    sync.Mutex
}

// NewInMemCodeRepository creates a new in-memory code repository
func NewInMemCodeRepository() *InMemCodeRepository {
	return &InMemCodeRepository{}
}

// Insert appends a new code row. Prior rows are left untouched.
func (r *InMemCodeRepository) Insert(ctx context.Context, params InsertCodeParams) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := Code{
		ID:        uuid.New(),
		UserID:    params.UserID,
		CodeHash:  params.CodeHash,
		Kind:      params.Kind,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	r.codes = append(r.codes, code)
	return code, nil
}

// FindLatestUnexpired returns the most recently created unexpired code for
// the user. Only that row is authoritative when several coexist.
func (r *InMemCodeRepository) FindLatestUnexpired(ctx context.Context, userID uuid.UUID) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var latest *Code
	for i := range r.codes {
		c := &r.codes[i]
		if c.UserID != userID || !c.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return Code{}, ErrNoCode
	}
	return *latest, nil
}

// DeleteAllForUser removes every code row for the user, stale ones included
func (r *InMemCodeRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}
