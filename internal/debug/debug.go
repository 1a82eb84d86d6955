// Package debug controls sqsync's console logging: verbosity switches and
// the slog handler that renders records for humans.
package debug

import (
	"log/slog"
	"os"
	"sync"
)

var (
	enabled     = os.Getenv("SQ_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	stateMu     sync.RWMutex
)

// Enabled reports whether debug output was requested through SQ_DEBUG or
// --verbose.
func Enabled() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	stateMu.Lock()
	verboseMode = verbose
	stateMu.Unlock()
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	stateMu.Lock()
	quietMode = quiet
	stateMu.Unlock()
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return quietMode
}

// ResolveLevel picks the effective log level. Debug mode wins over quiet
// mode, which wins over the configured level.
func ResolveLevel(configured slog.Level) slog.Level {
	switch {
	case Enabled():
		return slog.LevelDebug
	case IsQuiet():
		return slog.LevelError
	default:
		return configured
	}
}
