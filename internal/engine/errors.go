package engine

import "fmt"

// InvalidRequestError marks a request that fails parameter validation.
// Surfaced as a client error; never retried.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// InvalidRequestf builds an InvalidRequestError with a formatted reason.
func InvalidRequestf(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamAuthError marks a batch-level credential or blocking failure on an
// upstream platform. Unlike a single flaky identifier, this indicates systemic
// unavailability and is surfaced to the caller as a server error.
type UpstreamAuthError struct {
	Platform string
	Err      error
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("%s: upstream auth failure: %v", e.Platform, e.Err)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }
