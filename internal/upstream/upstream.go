// Package upstream wraps calls to external collaborators (evidence store,
// rewrite service, JD fetching) with a bounded timeout and optional retries.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single attempt when the caller passes zero.
const DefaultTimeout = 10 * time.Second

// Error reports a failed or timed-out call to an external service.
type Error struct {
	Service string
	Message string
	Timeout bool
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream %s: %s: %v", e.Service, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream %s: %s", e.Service, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Policy configures a call. Attempts below one mean one attempt; only
// idempotent reads should use more.
type Policy struct {
	Service  string
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// Call runs fn with a per-attempt timeout, retrying up to p.Attempts times
// with linear backoff. Cancellation of ctx stops retries immediately. Any
// failure is returned as *Error.
func Call[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return zero, wrap(p.Service, ctx.Err(), attempts)
			case <-time.After(backoff * time.Duration(i)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var perm *PermanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			break
		}
	}
	return zero, wrap(p.Service, lastErr, attempts)
}

// PermanentError marks a failure that retrying cannot fix, such as a 4xx response.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so Call does not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Timeout
}

func wrap(service string, err error, attempts int) error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	msg := fmt.Sprintf("call failed after %d attempt(s)", attempts)
	if timeout {
		msg = "call timed out"
	}
	return &Error{Service: service, Message: msg, Timeout: timeout, Cause: err}
}
