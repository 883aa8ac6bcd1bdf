package errors

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError represents a catalog that kept answering 429 Too Many Requests
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// NewRateLimitErrorWithRetry creates a RateLimitError carrying the server's Retry-After hint
func NewRateLimitErrorWithRetry(message string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Message: message, RetryAfter: retryAfter}
}

// IsRateLimitError reports whether err is a RateLimitError (even when wrapped).
func IsRateLimitError(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}
