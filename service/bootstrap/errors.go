package bootstrap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoServiceFound is returned when the registry was loaded successfully
	// but has no service for the identifier.
	ErrNoServiceFound = errors.New("no service found")

	// ErrInvalidIdentifier is returned when an identifier cannot be parsed.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// FetchError is returned when a registry could not be fetched and no usable
// cached copy exists.
type FetchError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s registry from %s: %s", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a registry document does not have the expected
// structure.
type ParseError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("invalid %s registry: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("invalid %s registry from %s: %s", e.Kind, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StatusError is returned by the HTTP transport for unexpected status codes.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// IsNoServiceFound returns whether err means that no service is known for the
// identifier. This is an expected outcome, not a failure.
func IsNoServiceFound(err error) bool {
	return errors.Is(err, ErrNoServiceFound)
}
