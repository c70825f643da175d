package auth

import "errors"

var (
	// ErrAlreadyExists is returned when registering an email that is taken
	ErrAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on login failure. Unknown email and
	// wrong password are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, tampered and expired tokens as a
	// single outcome so callers cannot probe which check failed
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMfaNotEnabled is returned when a TOTP verification is attempted for
	// a user without an enrolled secret
	ErrMfaNotEnabled = errors.New("totp not enabled for user")

	// ErrInvalidCode covers TOTP and email OTP mismatch, wrong format, and
	// no-code-found
	ErrInvalidCode = errors.New("invalid code")

	// ErrUserNotFound is returned when a user lookup comes up empty
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable wraps any underlying storage fault
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInternal is the catch-all for unexpected faults; details are logged
	// and never returned to the caller
	ErrInternal = errors.New("internal error")
)
