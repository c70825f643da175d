package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-mfa/pkg/emailotp"
	"github.com/tendant/simple-mfa/pkg/notification"
	"github.com/tendant/simple-mfa/pkg/password"
	"github.com/tendant/simple-mfa/pkg/tokengenerator"
	"github.com/tendant/simple-mfa/pkg/twofa"
	"github.com/tendant/simple-mfa/pkg/user"
)

// Second-factor method names reported by Login when MFA is required
const (
	MfaMethodTotp  = "totp"
	MfaMethodEmail = "email"
)

// AuthService composes the credential, token, TOTP and email OTP services
// into the registration, login and second-factor verification flows
type AuthService struct {
	userRepo       user.Repository
	hasher         password.Hasher
	tokenGenerator tokengenerator.TokenGenerator
	totpService    *twofa.TotpService
	otpService     *emailotp.Service
	notifier       notification.Notifier
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo user.Repository,
	hasher password.Hasher,
	tokenGenerator tokengenerator.TokenGenerator,
	totpService *twofa.TotpService,
	otpService *emailotp.Service,
	notifier notification.Notifier,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		hasher:         hasher,
		tokenGenerator: tokenGenerator,
		totpService:    totpService,
		otpService:     otpService,
		notifier:       notifier,
	}
}

type (
	// RegisterResult is returned on successful registration
	RegisterResult struct {
		UserID uuid.UUID `json:"user_id"`
	}

	// LoginResult is returned on password success. When MfaRequired is set
	// the caller holds only a temp token and must complete a second factor;
	// otherwise Token grants access until ExpiresAt.
	LoginResult struct {
		Token       string    `json:"token,omitempty"`
		ExpiresAt   time.Time `json:"expires_at,omitempty"`
		MfaRequired bool      `json:"mfa_required,omitempty"`
		TempToken   string    `json:"temp_token,omitempty"`
		MfaMethods  []string  `json:"mfa_methods,omitempty"`
	}

	// TokenResult carries a final access token
	TokenResult struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	// Profile is the read-only projection of a user
	Profile struct {
		UserID     uuid.UUID `json:"user_id"`
		Email      string    `json:"email"`
		MfaEnabled bool      `json:"mfa_enabled"`
		CreatedAt  time.Time `json:"created_at"`
	}
)

// Register creates a new identity with 2FA disabled. Duplicate emails are
// rejected by the store's uniqueness constraint, which also closes the window
// between concurrent identical registrations.
func (s *AuthService) Register(ctx context.Context, email, plaintextPassword string) (RegisterResult, error) {
	passwordHash, err := s.hasher.Hash(plaintextPassword)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.userRepo.Create(ctx, user.CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return RegisterResult{}, ErrAlreadyExists
		}
		return RegisterResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slog.Info("User registered", "userID", created.ID)
	return RegisterResult{UserID: created.ID}, nil
}

// Login verifies the password and either issues a final token (2FA off) or a
// short-lived temp token plus the usable second-factor methods (2FA on).
// Unknown email and wrong password yield the same failure.
func (s *AuthService) Login(ctx context.Context, email, plaintextPassword string) (LoginResult, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	valid, err := s.hasher.Verify(plaintextPassword, u.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to check password: %w", err)
	}
	if !valid {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !u.MfaEnabled {
		token, expiresAt, err := s.tokenGenerator.GenerateToken(u.ID, u.Email, tokengenerator.DefaultAccessTokenExpiry)
		if err != nil {
			return LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
		}
		slog.Info("Login successful", "userID", u.ID)
		return LoginResult{Token: token, ExpiresAt: expiresAt}, nil
	}

	tempToken, _, err := s.tokenGenerator.GenerateToken(u.ID, u.Email, tokengenerator.DefaultTempTokenExpiry)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue temp token: %w", err)
	}

	methods := []string{MfaMethodEmail}
	if u.TotpSecret != "" {
		methods = append([]string{MfaMethodTotp}, methods...)
	}

	slog.Info("Login requires second factor", "userID", u.ID)
	return LoginResult{
		MfaRequired: true,
		TempToken:   tempToken,
		MfaMethods:  methods,
	}, nil
}

// EnrollTotp enrolls the user for TOTP and returns the provisioning material.
// The calling layer is responsible for having verified a final token before
// invoking this; the core does not re-check that precondition.
func (s *AuthService) EnrollTotp(ctx context.Context, userID uuid.UUID) (twofa.TotpEnrollment, error) {
	enrollment, err := s.totpService.EnrollTotp(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return twofa.TotpEnrollment{}, ErrUserNotFound
		}
		return twofa.TotpEnrollment{}, fmt.Errorf("failed to enroll totp: %w", err)
	}
	return enrollment, nil
}

// VerifyTotp exchanges a temp token plus a valid TOTP code for a final token
func (s *AuthService) VerifyTotp(ctx context.Context, tempToken, code string) (TokenResult, error) {
	claims, err := s.tokenGenerator.ParseToken(tempToken)
	if err != nil {
		return TokenResult{}, ErrInvalidToken
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return TokenResult{}, ErrInvalidToken
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenResult{}, ErrMfaNotEnabled
		}
		return TokenResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if u.TotpSecret == "" {
		return TokenResult{}, ErrMfaNotEnabled
	}

	valid, err := twofa.ValidateTotpPasscode(u.TotpSecret, code)
	if err != nil || !valid {
		return TokenResult{}, ErrInvalidCode
	}

	token, expiresAt, err := s.tokenGenerator.GenerateToken(u.ID, u.Email, tokengenerator.DefaultAccessTokenExpiry)
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("TOTP verification successful", "userID", u.ID)
	return TokenResult{Token: token, ExpiresAt: expiresAt}, nil
}

// SendEmailOtp generates a one-time code for the user and hands it to the
// notifier for out-of-band delivery. The code never appears in the response.
func (s *AuthService) SendEmailOtp(ctx context.Context, email string) error {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	code, err := s.otpService.Generate(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	err = s.notifier.Send(notification.NotificationData{
		To:      u.Email,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your one-time verification code is %s. It expires in 5 minutes.", code),
	})
	if err != nil {
		return fmt.Errorf("failed to deliver otp: %w", err)
	}

	return nil
}

// VerifyEmailOtp exchanges a temp token plus a valid emailed code for a final
// token. The token's subject is authoritative for both the code lookup and
// the issued token.
func (s *AuthService) VerifyEmailOtp(ctx context.Context, email, code, tempToken string) (TokenResult, error) {
	claims, err := s.tokenGenerator.ParseToken(tempToken)
	if err != nil {
		return TokenResult{}, ErrInvalidToken
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return TokenResult{}, ErrInvalidToken
	}

	if email != claims.Email {
		slog.Debug("Email OTP request email differs from token subject", "userID", userID)
	}

	valid, err := s.otpService.Verify(ctx, userID, code)
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to verify otp: %w", err)
	}
	if !valid {
		return TokenResult{}, ErrInvalidCode
	}

	token, expiresAt, err := s.tokenGenerator.GenerateToken(userID, claims.Email, tokengenerator.DefaultAccessTokenExpiry)
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("Email OTP verification successful", "userID", userID)
	return TokenResult{Token: token, ExpiresAt: expiresAt}, nil
}

// GetProfile returns the read-only projection of a user. The user can vanish
// between token verification and this lookup, hence the not-found case.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return Profile{
		UserID:     u.ID,
		Email:      u.Email,
		MfaEnabled: u.MfaEnabled,
		CreatedAt:  u.CreatedAt,
	}, nil
}
