// Package twofa provides TOTP second-factor enrollment and validation.
//
// Enrollment generates an RFC 6238 shared secret, persists it against the
// user with 2FA enabled, and returns an otpauth:// provisioning URI together
// with a QR code PNG that standard authenticator apps can scan.
//
// Validation accepts the current 30-second code and one step either side to
// tolerate clock drift. Accepted codes are not tracked, so a code can be
// replayed within its drift window; callers needing replay protection must
// record the last accepted step themselves.
package twofa
