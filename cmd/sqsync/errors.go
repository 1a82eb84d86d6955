package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sqtriage/sqsync/internal/config"
	"github.com/sqtriage/sqsync/internal/sonarqube"
)

const exitCodeCanceled = 130

// errRunDeclined is returned when the user answers no to the confirmation
// prompt. It is not a failure.
var errRunDeclined = errors.New("run declined")

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// errorCode classifies err for --json consumers.
func errorCode(err error) string {
	var verr *config.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid_config"
	case errors.Is(err, sonarqube.ErrNotConfigured), errors.Is(err, sonarqube.ErrInvalidArgument):
		return "invalid_argument"
	case sonarqube.IsStatusError(err):
		return "server_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return ""
	}
}

// reportError writes err to stderr, as a JSON object with --json.
func (a *app) reportError(err error) {
	if a.jsonOutput {
		outputJSONError(a.stderr, err, errorCode(err))
		return
	}
	FatalError(a.stderr, "%v", err)
}

// FatalError writes an error message to w. The caller exits with code 1.
//
// Use this for errors that prevent the command from completing: validation
// failures, unreachable server, unreadable config.
func FatalError(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "Error: "+format+"\n", args...)
}

// WarnError writes a warning message to w and returns.
// Use this for optional operations that enhance functionality but aren't required.
func WarnError(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "Warning: "+format+"\n", args...)
}

// outputJSONError writes an error object to w.
func outputJSONError(w io.Writer, err error, code string) {
	errObj := map[string]string{"error": err.Error()}
	if code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(errObj) // Best effort: nothing else to report to
}
