package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrConfiguration - missing or invalid credential (fatal to the specific call, never to the keeper loop)
	ErrConfiguration = errors.New("configuration error")

	// ErrProvider - upstream API returned a non-success response (recovered locally, surfaced in the journal)
	ErrProvider = errors.New("provider error")

	// ErrTransient - network failure or rate limit (retried with backoff only in the rate-limit path)
	ErrTransient = errors.New("transient error")

	// ErrInvalidModelOutput - model returned malformed structured output (recovered into a degraded result)
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrNotFound - resource not found (unknown provider name, unknown session)
	ErrNotFound = errors.New("not found")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)
