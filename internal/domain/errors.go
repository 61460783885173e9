package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repo and service functions when the requested
// tag does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed phone number).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when an operation targets a tag whose owner has
// disabled it. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("tag disabled")

// ErrConflict is returned when a create collides with an existing tag code —
// either a generated candidate losing the uniqueness race or a caller trying
// to claim an already-registered code. Handlers should map this to HTTP 409.
var ErrConflict = errors.New("tag code already registered")

// ErrRateLimited is the sentinel wrapped by RateLimitError.
// Handlers should map this to HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// ErrIdentifierExhausted is returned when repeated code generation keeps
// colliding with existing tags. With ~8.5e11 possible codes this is
// practically unreachable, but it is a defined terminal failure rather than
// an infinite loop. Handlers should map this to HTTP 500.
var ErrIdentifierExhausted = errors.New("identifier space exhausted")

// RateLimitError reports a cooldown rejection together with how long the
// caller has to wait. It unwraps to ErrRateLimited, so both
// errors.Is(err, ErrRateLimited) and errors.As(err, *RateLimitError) work.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
