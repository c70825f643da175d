package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the users_email_key
// constraint on concurrent duplicate registrations
const uniqueViolation = "23505"

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Create creates a new user
func (r *PostgresRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, mfa_enabled, created_at)
		VALUES ($1, $2, $3, false, NOW())
		RETURNING id, email, password_hash, COALESCE(totp_secret, ''), mfa_enabled, created_at
	`

	user := User{}
	err := r.pool.QueryRow(ctx, query, uuid.New(), params.Email, params.PasswordHash).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.TotpSecret,
		&user.MfaEnabled,
		&user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a user by email
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, COALESCE(totp_secret, ''), mfa_enabled, created_at
		FROM users
		WHERE email = $1
	`

	user := User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.TotpSecret,
		&user.MfaEnabled,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by id
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `
		SELECT id, email, password_hash, COALESCE(totp_secret, ''), mfa_enabled, created_at
		FROM users
		WHERE id = $1
	`

	user := User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.TotpSecret,
		&user.MfaEnabled,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to find user by id: %w", err)
	}

	return user, nil
}

// UpdateTotp stores a TOTP secret and enabled flag for a user
func (r *PostgresRepository) UpdateTotp(ctx context.Context, params UpdateTotpParams) error {
	query := `
		UPDATE users
		SET totp_secret = $2, mfa_enabled = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, params.ID, params.TotpSecret, params.MfaEnabled)
	if err != nil {
		return fmt.Errorf("failed to update totp secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
