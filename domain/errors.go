package domain

import "errors"

// ErrMalformedResponse matches any MalformedResponseError via errors.Is
var ErrMalformedResponse = errors.New("speech-to-text response malformed")

// MalformedResponseError is returned when a backend answers with a non-empty
// result that lacks the expected transcript path.
type MalformedResponseError struct {
	// Payload is the pretty-printed raw response.
	Payload string
}

func (e *MalformedResponseError) Error() string {
	return ErrMalformedResponse.Error() + ":\n" + e.Payload
}

// Is implements errors.Is
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}
