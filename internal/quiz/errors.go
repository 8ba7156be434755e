package quiz

import "fmt"

// NetworkError wraps a failed round-trip to the completion collaborator.
// During generation it aborts the whole batch loop: no partial question set
// ever reaches a session.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the collaborator replied, but the reply could
// not be parsed into the expected question shape.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed completion response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed completion response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
