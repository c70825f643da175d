package emailotp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCodeRepository implements CodeRepository using PostgreSQL
type PostgresCodeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCodeRepository creates a new PostgreSQL code repository
func NewPostgresCodeRepository(pool *pgxpool.Pool) *PostgresCodeRepository {
	return &PostgresCodeRepository{
		pool: pool,
	}
}

// Insert appends a new code row
func (r *PostgresCodeRepository) Insert(ctx context.Context, params InsertCodeParams) (Code, error) {
	query := `
		INSERT INTO otps (id, user_id, otp_hash, kind, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, user_id, otp_hash, kind, expires_at, created_at
	`

	code := Code{}
	err := r.pool.QueryRow(ctx, query, uuid.New(), params.UserID, params.CodeHash, params.Kind, params.ExpiresAt).Scan(
		&code.ID,
		&code.UserID,
		&code.CodeHash,
		&code.Kind,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		return Code{}, fmt.Errorf("failed to insert otp: %w", err)
	}

	return code, nil
}

// FindLatestUnexpired returns the most recently created unexpired code for the user
func (r *PostgresCodeRepository) FindLatestUnexpired(ctx context.Context, userID uuid.UUID) (Code, error) {
	query := `
		SELECT id, user_id, otp_hash, kind, expires_at, created_at
		FROM otps
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	code := Code{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&code.ID,
		&code.UserID,
		&code.CodeHash,
		&code.Kind,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Code{}, ErrNoCode
		}
		return Code{}, fmt.Errorf("failed to find otp: %w", err)
	}

	return code, nil
}

// DeleteAllForUser removes every code row for the user
func (r *PostgresCodeRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM otps WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete otps: %w", err)
	}
	return nil
}
