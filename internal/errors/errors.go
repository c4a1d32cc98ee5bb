package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Genuka auth gateway
var (
	// Callback validation errors
	ErrSignatureInvalid    = errors.New("invalid signature")
	ErrMalformedRequest    = errors.New("malformed request")
	ErrTimestampOutOfRange = errors.New("timestamp out of range")

	// Session token errors
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenKind      = errors.New("wrong token kind")

	// Upstream errors
	ErrUpstreamExchangeFailed = errors.New("upstream code exchange failed")
	ErrUpstreamRefreshFailed  = errors.New("upstream token refresh failed")
	ErrRefreshTokenRevoked    = errors.New("upstream refresh token revoked")

	// Store errors
	ErrCompanyNotFound = errors.New("company not found")

	// Webhook errors
	ErrHandlerFailed = errors.New("webhook handler failed")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
