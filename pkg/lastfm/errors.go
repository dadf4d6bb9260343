package lastfm

import (
	"errors"
	"fmt"
)

// Error is a structured Last.fm API error, carrying the error code
// reported inside the response envelope.
type Error struct {
	Code    int    // Last.fm error code
	Message string // message text from the response
}

func (e *Error) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

// Is matches two API errors by code, so errors.Is works against
// sentinel *Error values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Temporary reports whether the error is transient and the request may
// be retried. Last.fm documents codes 11 (service offline) and 16
// (service temporarily unavailable) as retryable; every other code is
// final.
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable:
		return true
	default:
		return false
	}
}

// Last.fm API error codes.
const (
	ErrCodeInvalidService       = 2
	ErrCodeInvalidMethod        = 3
	ErrCodeAuthenticationFailed = 4
	ErrCodeInvalidFormat        = 5
	ErrCodeInvalidParameters    = 6
	ErrCodeInvalidResourceSpec  = 7
	ErrCodeOperationFailed      = 8
	ErrCodeInvalidSessionKey    = 9
	ErrCodeInvalidAPIKey        = 10
	ErrCodeServiceOffline       = 11
	ErrCodeSubscribersOnly      = 12
	ErrCodeInvalidSignature     = 13
	ErrCodeUnauthorizedToken    = 14
	ErrCodeExpiredToken         = 15
	ErrCodeTempUnavailable      = 16
	ErrCodeRateLimitExceeded    = 29
)

// ErrNoSessionKey is returned when an operation requires authentication
// but no session key has been set.
var ErrNoSessionKey = errors.New("lastfm: session key required")
