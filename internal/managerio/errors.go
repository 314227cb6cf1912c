package managerio

import "fmt"

// TransportError covers network failures, timeouts and non-auth HTTP errors
// from the Manager.io API. Transient variants are retried by the client.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("manager api %s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("manager api %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthenticationError is returned on a 401 and is never retried.
type AuthenticationError struct {
	URL string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("manager api authentication failed (401) for %s: check the MANAGER_API_KEY setting", e.URL)
}

// ShapeError means a response did not contain a recognizable record list.
// It only ever fails the record or page it describes, never a whole sync.
type ShapeError struct {
	Resource string
	Reason   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected %s response shape: %s", e.Resource, e.Reason)
}

// ValidationError marks a record missing a required field. Records failing
// validation are skipped and counted, not fatal.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record missing required field %q", e.Field)
}
