// Package auth orchestrates registration, password login and second-factor
// verification into a single state machine:
//
//	Unauthenticated -> PasswordVerified -> {final token | 2FA pending}
//	2FA pending -> (TOTP or email OTP proof) -> final token
//
// A temp token issued after password success never grants resource access on
// its own; only VerifyTotp and VerifyEmailOtp exchange it for a final token.
//
// Every operation returns either a result struct or one of the sentinel
// errors in errors.go. Failures that would aid credential enumeration are
// collapsed: login reports the same error for unknown email and wrong
// password, and token verification reports the same error for malformed,
// tampered and expired tokens.
package auth
