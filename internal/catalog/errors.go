// ABOUTME: Typed errors for catalog fetch failures.
// ABOUTME: Each FetchError kind matches a sentinel through errors.Is.
package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies why a catalog fetch failed.
type Kind string

const (
	KindTimeout Kind = "timeout"
	KindHTTP    Kind = "http"
	KindFormat  Kind = "format"
	KindNetwork Kind = "network"
)

var (
	ErrFetchTimeout = errors.New("catalog fetch timed out")
	ErrFetchHTTP    = errors.New("catalog fetch returned non-success status")
	ErrFetchFormat  = errors.New("catalog payload is not a post array")
	ErrFetchNetwork = errors.New("catalog fetch failed")
)

// FetchError is the single error type returned by a failed fetch.
type FetchError struct {
	Kind       Kind
	StatusCode int // set for KindHTTP
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("catalog fetch: HTTP %d", e.StatusCode)
	case KindTimeout:
		return "catalog fetch: timed out"
	}
	if e.Err != nil {
		return fmt.Sprintf("catalog fetch (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("catalog fetch (%s)", e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a FetchError against the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetchTimeout:
		return e.Kind == KindTimeout
	case ErrFetchHTTP:
		return e.Kind == KindHTTP
	case ErrFetchFormat:
		return e.Kind == KindFormat
	case ErrFetchNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// Retryable reports whether trying again later could plausibly succeed.
func (e *FetchError) Retryable() bool {
	if e.Kind == KindHTTP {
		return e.StatusCode >= 500 || e.StatusCode == 429
	}
	return e.Kind != KindFormat
}
