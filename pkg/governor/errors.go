package governor

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited matches any rate-limit denial via errors.Is.
var ErrRateLimited = errors.New("rate limited")

// ErrQuotaExceeded is returned when the daily request quota or cost ceiling
// is exhausted. Not retryable until the next UTC day.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// ErrGrantAlreadyUsed is returned when a grant is recorded twice.
var ErrGrantAlreadyUsed = errors.New("grant already recorded")

// RateLimitedError carries the retry-after hint for a bucket denial.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
