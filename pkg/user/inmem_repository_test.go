package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemRepository_Create(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		Email:        "u@d.com",
		PasswordHash: "hashed",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "u@d.com", created.Email)
	assert.False(t, created.MfaEnabled)
	assert.False(t, created.CreatedAt.IsZero())

	// Duplicate email should fail
	_, err = repo.Create(ctx, CreateUserParams{
		Email:        "u@d.com",
		PasswordHash: "other-hash",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestInMemRepository_FindByEmail(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		Email:        "u@d.com",
		PasswordHash: "hashed",
	})
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "u@d.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	// Emails are case-sensitive as stored
	_, err = repo.FindByEmail(ctx, "U@d.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_FindByID(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		Email:        "u@d.com",
		PasswordHash: "hashed",
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u@d.com", found.Email)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_UpdateTotp(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		Email:        "u@d.com",
		PasswordHash: "hashed",
	})
	require.NoError(t, err)

	err = repo.UpdateTotp(ctx, UpdateTotpParams{
		ID:         created.ID,
		TotpSecret: "JBSWY3DPEHPK3PXP",
		MfaEnabled: true,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", found.TotpSecret)
	assert.True(t, found.MfaEnabled)

	// Re-enrollment overwrites the previous secret
	err = repo.UpdateTotp(ctx, UpdateTotpParams{
		ID:         created.ID,
		TotpSecret: "NBSWY3DPEHPK3PXP",
		MfaEnabled: true,
	})
	require.NoError(t, err)

	found, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "NBSWY3DPEHPK3PXP", found.TotpSecret)

	err = repo.UpdateTotp(ctx, UpdateTotpParams{ID: uuid.New(), TotpSecret: "x", MfaEnabled: true})
	assert.ErrorIs(t, err, ErrNotFound)
}
