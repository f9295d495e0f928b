package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// SearchError is a failed call to one backend: a transport error or a non-2xx reply.
type SearchError struct {
	Backend string
	Status  int
	Err     error
}

func (e *SearchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Backend, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// BlockedError means the backend answered with a bot-detection page.
type BlockedError struct {
	Backend   string
	Indicator string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: blocked (%q)", e.Backend, e.Indicator)
}

// TimeoutError means one call ran past its own deadline.
type TimeoutError struct {
	Backend string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Backend, e.After)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	var (
		blocked *BlockedError
		timeout *TimeoutError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &blocked):
		return "blocked"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "open"
	default:
		return "error"
	}
}
