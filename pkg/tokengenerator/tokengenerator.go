package tokengenerator

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token expiry durations. Access tokens grant full access; temp
// tokens are issued after password success when 2FA is still outstanding
// and can only be exchanged through a second-factor verification.
const (
	DefaultAccessTokenExpiry = 15 * time.Minute
	DefaultTempTokenExpiry   = 5 * time.Minute
)

// ErrInvalidToken is returned for any token that fails verification.
// Malformed, tampered and expired tokens are deliberately collapsed into a
// single error so callers cannot probe which check rejected the token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carries the identity claims embedded in issued tokens
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenGenerator interface defines methods for token operations
type TokenGenerator interface {
	// GenerateToken generates a signed token for the given user with the given expiry
	GenerateToken(userID uuid.UUID, email string, expiry time.Duration) (string, time.Time, error)

	// ParseToken parses and validates a token, returning its claims
	ParseToken(tokenStr string) (*Claims, error)
}

// JwtTokenGenerator implements the TokenGenerator interface using HS256.
// The signing secret is injected at construction, never read from ambient
// state.
type JwtTokenGenerator struct {
	Secret string
	Issuer string
}

// NewJwtTokenGenerator creates a new JwtTokenGenerator
func NewJwtTokenGenerator(secret, issuer string) *JwtTokenGenerator {
	return &JwtTokenGenerator{
		Secret: secret,
		Issuer: issuer,
	}
}

// GenerateToken creates a new signed token carrying the user's identity claims
func (g *JwtTokenGenerator) GenerateToken(userID uuid.UUID, email string, expiry time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    g.Issuer,
			Subject:   userID.String(),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claims", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// ParseToken parses and validates a token string. Any failure, including
// expiry, yields ErrInvalidToken.
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(g.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		slog.Debug("Failed to parse JWT string", "err", err)
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SubjectID returns the token's user id as a uuid
func (c *Claims) SubjectID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
