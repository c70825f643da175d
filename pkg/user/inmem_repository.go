package user

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository implements Repository using an in-memory map
type InMemRepository struct {
	users map[uuid.UUID]User
	mu    sync.Mutex
}

// NewInMemRepository creates a new in-memory user repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		users: make(map[uuid.UUID]User),
	}
}

// Create creates a new user in memory
func (r *InMemRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Email is case-sensitive as stored, mirroring the unique constraint
	for _, u := range r.users {
		if u.Email == params.Email {
			return User{}, ErrEmailTaken
		}
	}

	user := User{
		ID:           uuid.New(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[user.ID] = user
	slog.Debug("User created", "userID", user.ID)
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *InMemRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// FindByID retrieves a user by id
func (r *InMemRepository) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// UpdateTotp stores a TOTP secret and enabled flag for a user
func (r *InMemRepository) UpdateTotp(ctx context.Context, params UpdateTotpParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[params.ID]
	if !ok {
		return ErrNotFound
	}

	u.TotpSecret = params.TotpSecret
	u.MfaEnabled = params.MfaEnabled
	r.users[params.ID] = u
	return nil
}
