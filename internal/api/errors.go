package api

import "fmt"

// ValidationError rejects user input before any network call is made.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.Input, e.Reason)
}

// SubmissionError means job creation failed. The caller surfaces it to the
// user; no retry is attempted.
type SubmissionError struct {
	URL string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.URL, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// TransientError covers a failed poll, result, history, or delete call.
// StatusCode is zero when the request never produced a response.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
