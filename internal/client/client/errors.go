package client

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAuth means the caller is not authenticated or the token was
	// rejected. It is never retried.
	ErrAuth = errors.New("not authenticated")
	// ErrNetwork marks transient transport or service failures.
	ErrNetwork = errors.New("network error")
	// ErrNotFound means the remote object or folder does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCache means the local store could not be used.
	ErrCache = errors.New("local cache unavailable")

	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// NetworkError is returned once retries of a transient failure are
// exhausted. It matches both ErrNetwork and the last underlying error.
type NetworkError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrNotFound) {
		return false
	}
	return errors.Is(err, ErrNetwork)
}

func authError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrAuth, err)
}

func notFoundError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
}

func transientError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
}
