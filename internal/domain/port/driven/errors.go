package driven

import (
	"errors"
	"fmt"
)

// Error kinds shared across ports. Adapters wrap these so the application layer
// can classify failures with errors.Is.
var (
	// ErrLoginFailed means the interactive login did not produce a usable session.
	ErrLoginFailed = errors.New("login failed")

	// ErrCredentialNotFound means login completed but the access-token cookie was
	// absent. It is a LoginFailed-class error.
	ErrCredentialNotFound = fmt.Errorf("credential not found: %w", ErrLoginFailed)

	// ErrMalformedCredential means the access token could not be decoded into
	// an identity and expiry.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrAuthExpired means the metrics API rejected the bearer token (401/403).
	// It is the only kind recovered from within a cycle.
	ErrAuthExpired = errors.New("auth expired")

	// ErrFetchFailed means the metrics API call failed for a non-auth reason.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrStorage means the sample store could not be read or written.
	ErrStorage = errors.New("storage failure")
)

// FetchError carries the status and body of a failed metrics API response.
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("metrics api returned %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrFetchFailed) match.
func (e *FetchError) Unwrap() error {
	return ErrFetchFailed
}
