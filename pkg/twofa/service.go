package twofa

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/tendant/simple-mfa/pkg/user"
)

const (
	DefaultTotpIssuer = "simple-mfa"

	// Standard RFC 6238 parameters: 30-second steps, 6 digits, SHA1.
	// Skew 1 accepts codes from one step before or after the current one
	// to tolerate client clock drift.
	totpPeriod = 30
	totpSkew   = 1

	qrImageSize = 200
)

// TotpEnrollment is the result of enrolling a user for TOTP
type TotpEnrollment struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRCodePNGBase64 string `json:"qr_png_base64"`
}

// TotpService manages TOTP secrets and passcode validation
type TotpService struct {
	userRepo user.Repository
	issuer   string
}

// TotpServiceOption is a functional option for configuring TotpService
type TotpServiceOption func(*TotpService)

// WithIssuer sets the issuer label embedded in provisioning URIs
func WithIssuer(issuer string) TotpServiceOption {
	return func(s *TotpService) {
		s.issuer = issuer
	}
}

// NewTotpService creates a new TotpService
func NewTotpService(userRepo user.Repository, opts ...TotpServiceOption) *TotpService {
	s := &TotpService{
		userRepo: userRepo,
		issuer:   DefaultTotpIssuer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnrollTotp generates a fresh shared secret for the user, persists it with
// mfa_enabled=true and returns the provisioning URI plus a scannable QR code.
// This is the only writer of the mfa_enabled flag. Enrolling again overwrites
// the previous secret and re-enables 2FA.
func (s *TotpService) EnrollTotp(ctx context.Context, userID uuid.UUID) (TotpEnrollment, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return TotpEnrollment{}, fmt.Errorf("failed to find user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: u.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("Failed to generate totp secret", "userID", userID, "issuer", s.issuer, "err", err)
		return TotpEnrollment{}, err
	}

	qrBase64, err := renderQRCode(key)
	if err != nil {
		slog.Error("Failed to render totp QR code", "userID", userID, "err", err)
		return TotpEnrollment{}, err
	}

	err = s.userRepo.UpdateTotp(ctx, user.UpdateTotpParams{
		ID:         userID,
		TotpSecret: key.Secret(),
		MfaEnabled: true,
	})
	if err != nil {
		return TotpEnrollment{}, fmt.Errorf("failed to store totp secret: %w", err)
	}

	slog.Info("TOTP enrolled", "userID", userID)
	return TotpEnrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCodePNGBase64: qrBase64,
	}, nil
}

// renderQRCode converts a TOTP key into a base64-encoded PNG image
func renderQRCode(key *otp.Key) (string, error) {
	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ValidateTotpPasscode checks a passcode against the shared secret at the
// current time step and one step either side. Malformed codes reject.
func ValidateTotpPasscode(totpSecret, passcode string) (bool, error) {
	return validateTotpPasscodeAt(totpSecret, passcode, time.Now().UTC())
}

func validateTotpPasscodeAt(totpSecret, passcode string, t time.Time) (bool, error) {
	valid, err := totp.ValidateCustom(passcode, totpSecret, t, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Debug("Failed to validate totp passcode", "err", err)
		return false, err
	}
	return valid, nil
}
