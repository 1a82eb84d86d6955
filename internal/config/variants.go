package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Operation selects the workflow a run performs.
type Operation string

const (
	// OperationNone means no operation was configured.
	OperationNone Operation = ""
	// OperationCopyResolution copies manual resolutions between projects.
	OperationCopyResolution Operation = "CopyResolution"
	// OperationAutoAssign assigns open issues to their authors' users.
	OperationAutoAssign Operation = "AutoAssign"
)

// ParseOperation accepts "CopyResolution", "copy-resolution",
// "copy_resolution" and any case variant; likewise for AutoAssign.
func ParseOperation(s string) (Operation, error) {
	switch normalizeName(s) {
	case "":
		return OperationNone, nil
	case "copyresolution":
		return OperationCopyResolution, nil
	case "autoassign":
		return OperationAutoAssign, nil
	default:
		return OperationNone, fmt.Errorf("unknown operation '%s' (valid: CopyResolution, AutoAssign)", s)
	}
}

// LogLevel is the minimum severity written to the console.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLogLevel parses a level name, case-insensitively. An empty string is
// LogLevelInfo.
func ParseLogLevel(s string) (LogLevel, error) {
	switch normalizeName(s) {
	case "":
		return LogLevelInfo, nil
	case "debug", "trace":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return "", fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", s)
	}
}

// SlogLevel maps the level to its slog equivalent.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}
