package sonarqube

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required argument is empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedResolution is returned when no transition exists for a resolution.
	ErrUnsupportedResolution = errors.New("cannot update issue resolution to value")

	// ErrNotConfigured is returned when the client has no base URL or credentials.
	ErrNotConfigured = errors.New("sonarqube client not configured")
)

// StatusError is returned when the server answers with a non-2xx status.
// It is an expected outcome, not a transport failure: reads treat it as the
// end of data and writes treat it as a lost mutation.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sonarqube %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsStatusError reports whether err (or any error in its chain) is a StatusError.
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

// CommentError is returned by UpdateIssueResolution when the transition went
// through but one or more comment posts were rejected.
type CommentError struct {
	IssueKey string
	Err      error
}

func (e *CommentError) Error() string {
	return fmt.Sprintf("issue %s resolved, comments rejected: %v", e.IssueKey, e.Err)
}

func (e *CommentError) Unwrap() error { return e.Err }
