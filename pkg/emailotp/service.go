package emailotp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-mfa/pkg/password"
)

// DefaultCodeTTL is how long a generated code stays valid
const DefaultCodeTTL = 5 * time.Minute

// Service generates and verifies emailed one-time codes. Only a digest of
// each code is stored; the plaintext exists just long enough to be handed to
// the delivery channel.
type Service struct {
	codeRepo CodeRepository
	hasher   password.Hasher
	codeTTL  time.Duration
}

// ServiceOption is a functional option for configuring the Service
type ServiceOption func(*Service)

// WithCodeTTL overrides the code validity period
func WithCodeTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.codeTTL = ttl
	}
}

// NewService creates a new email OTP service
func NewService(codeRepo CodeRepository, hasher password.Hasher, opts ...ServiceOption) *Service {
	s := &Service{
		codeRepo: codeRepo,
		hasher:   hasher,
		codeTTL:  DefaultCodeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate draws a uniformly random 6-digit code for the user, stores its
// digest with the configured expiry and returns the plaintext for out-of-band
// delivery. Each call appends a fresh row; prior unexpired codes remain until
// a successful verification purges them.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := randomCode()
	if err != nil {
		slog.Error("Failed to draw random otp", "err", err)
		return "", err
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	_, err = s.codeRepo.Insert(ctx, InsertCodeParams{
		UserID:    userID,
		CodeHash:  codeHash,
		Kind:      KindEmail,
		ExpiresAt: time.Now().UTC().Add(s.codeTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}

	slog.Info("Email otp generated", "userID", userID)
	return code, nil
}

// Verify checks the code against the user's most recent unexpired digest.
// On success every code row for the user is purged, so the code is single
// use. On mismatch rows are left intact, permitting retries until expiry.
func (s *Service) Verify(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	latest, err := s.codeRepo.FindLatestUnexpired(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoCode) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up otp: %w", err)
	}

	valid, err := s.hasher.Verify(code, latest.CodeHash)
	if err != nil {
		return false, fmt.Errorf("failed to verify otp: %w", err)
	}
	if !valid {
		return false, nil
	}

	// One-shot consumption: drop stale rows along with the used one
	if err := s.codeRepo.DeleteAllForUser(ctx, userID); err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}

	slog.Info("Email otp verified", "userID", userID)
	return true, nil
}

// randomCode draws a uniform 6-digit decimal code in [100000, 999999]
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
