package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackendUnavailable marks transport or authentication failures reaching a backend.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendRejected marks a reachable backend refusing the operation.
	ErrBackendRejected = errors.New("backend rejected operation")
	// ErrConfigurationInvalid marks missing or malformed backend credentials.
	ErrConfigurationInvalid = errors.New("storage configuration invalid")
	// ErrNotConfigured is returned by the no-op service for reads it cannot serve.
	ErrNotConfigured = fmt.Errorf("storage not configured: %w", ErrBackendUnavailable)
)

// Error is the normalized failure every facade operation returns.
type Error struct {
	Op       string
	Resource string
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Rejected tags err as a rejection by a reachable backend.
func Rejected(err error) error {
	if err == nil || errors.Is(err, ErrBackendRejected) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendRejected, err)
}

// Unavailable tags err as a failure to reach a backend.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

// normalize wraps err in *Error. Untagged errors count as unavailability.
func normalize(op, resource string, err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	kind := ErrBackendUnavailable
	if errors.Is(err, ErrBackendRejected) {
		kind = ErrBackendRejected
	}

	return &Error{Op: op, Resource: resource, Kind: kind, Err: err}
}

var placeholderMarkers = []string{"<", "placeholder", "todo"}

// ValidateConnectionString rejects empty strings and unfilled template values.
func ValidateConnectionString(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: connection string is empty", ErrConfigurationInvalid)
	}

	lower := strings.ToLower(s)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: connection string contains placeholder %q", ErrConfigurationInvalid, marker)
		}
	}

	return nil
}
