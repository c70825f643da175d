package emailotp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-mfa/pkg/password"
)

func TestGenerate(t *testing.T) {
	repo := NewInMemCodeRepository()
	service := NewService(repo, password.NewBcryptHasher())
	ctx := context.Background()
	userID := uuid.New()

	code, err := service.Generate(ctx, userID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), code, "code should be 6 decimal digits with no leading zero")

	// Only the digest is stored
	stored, err := repo.FindLatestUnexpired(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, code, stored.CodeHash)
	assert.Equal(t, KindEmail, stored.Kind)
	assert.WithinDuration(t, time.Now().UTC().Add(DefaultCodeTTL), stored.ExpiresAt, time.Second)
}

func TestVerify_SingleUse(t *testing.T) {
	repo := NewInMemCodeRepository()
	service := NewService(repo, password.NewBcryptHasher())
	ctx := context.Background()
	userID := uuid.New()

	code, err := service.Generate(ctx, userID)
	require.NoError(t, err)

	valid, err := service.Verify(ctx, userID, code)
	require.NoError(t, err)
	assert.True(t, valid)

	// All rows are purged on success, so the same code fails a second time
	valid, err = service.Verify(ctx, userID, code)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerify_WrongCodeLeavesRowsIntact(t *testing.T) {
	repo := NewInMemCodeRepository()
	service := NewService(repo, password.NewBcryptHasher())
	ctx := context.Background()
	userID := uuid.New()

	code, err := service.Generate(ctx, userID)
	require.NoError(t, err)

	valid, err := service.Verify(ctx, userID, "000000")
	require.NoError(t, err)
	assert.False(t, valid)

	// Retry with the correct code still succeeds
	valid, err = service.Verify(ctx, userID, code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerify_Expired(t *testing.T) {
	repo := NewInMemCodeRepository()
	service := NewService(repo, password.NewBcryptHasher(), WithCodeTTL(-1*time.Minute))
	ctx := context.Background()
	userID := uuid.New()

	code, err := service.Generate(ctx, userID)
	require.NoError(t, err)

	valid, err := service.Verify(ctx, userID, code)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerify_NoCode(t *testing.T) {
	repo := NewInMemCodeRepository()
	service := NewService(repo, password.NewBcryptHasher())

	valid, err := service.Verify(context.Background(), uuid.New(), "123456")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerify_LatestCodeWins(t *testing.T) {
	repo := NewInMemCodeRepository()
	service := NewService(repo, password.NewBcryptHasher())
	ctx := context.Background()
	userID := uuid.New()

	first, err := service.Generate(ctx, userID)
	require.NoError(t, err)

	// Make sure the second row sorts strictly after the first
	time.Sleep(5 * time.Millisecond)

	second, err := service.Generate(ctx, userID)
	require.NoError(t, err)

	// Only the most recent code is authoritative
	valid, err := service.Verify(ctx, userID, first)
	require.NoError(t, err)
	if first != second {
		assert.False(t, valid)
	}

	valid, err = service.Verify(ctx, userID, second)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestInMemCodeRepository_DeleteAllForUser(t *testing.T) {
	repo := NewInMemCodeRepository()
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	_, err := repo.Insert(ctx, InsertCodeParams{UserID: userID, CodeHash: "a", Kind: KindEmail, ExpiresAt: time.Now().UTC().Add(time.Minute)})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, InsertCodeParams{UserID: userID, CodeHash: "b", Kind: KindEmail, ExpiresAt: time.Now().UTC().Add(time.Minute)})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, InsertCodeParams{UserID: otherID, CodeHash: "c", Kind: KindEmail, ExpiresAt: time.Now().UTC().Add(time.Minute)})
	require.NoError(t, err)

	err = repo.DeleteAllForUser(ctx, userID)
	require.NoError(t, err)

	_, err = repo.FindLatestUnexpired(ctx, userID)
	assert.ErrorIs(t, err, ErrNoCode)

	// Other users' rows are untouched
	other, err := repo.FindLatestUnexpired(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, "c", other.CodeHash)
}
