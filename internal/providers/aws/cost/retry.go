package cost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
)

// DefaultAttempts is the number of tries made for each Cost Explorer call.
const DefaultAttempts = 3

// ErrAllAttemptsFailed wraps the last error once every retry is used up.
var ErrAllAttemptsFailed = errors.New("all attempts failed")

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff returns the pause after failed attempt i (0-based): 2^i seconds.
func backoff(i int) time.Duration {
	return time.Duration(1<<i) * time.Second
}

// permanentCodes are API error codes that no retry can fix.
var permanentCodes = map[string]bool{
	"AccessDeniedException":    true,
	"UnauthorizedOperation":    true,
	"ValidationException":      true,
	"DataUnavailableException": true,
}

// permanent reports whether err is an API error listed in permanentCodes.
func permanent(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && permanentCodes[ae.ErrorCode()]
}

// withRetry calls fn up to attempts times. After each failed attempt that
// has a successor it sleeps backoff(i). A sleep interrupted by ctx ends the
// loop with the context error; a permanent API error ends it at once.
func withRetry[T any](ctx context.Context, attempts int, sleep SleepFunc, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero T
		last error
	)
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		last = err
		if permanent(err) {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrAllAttemptsFailed, i+1, err)
		}
		if i == attempts-1 {
			break
		}
		if serr := sleep(ctx, backoff(i)); serr != nil {
			return zero, serr
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrAllAttemptsFailed, attempts, last)
}
