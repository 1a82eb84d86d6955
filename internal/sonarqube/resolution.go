package sonarqube

import (
	"fmt"
	"strings"
)

// Resolution is the terminal disposition of an issue. The empty value means
// the issue is unresolved.
type Resolution string

const (
	ResolutionNone          Resolution = ""
	ResolutionFalsePositive Resolution = "FALSE-POSITIVE"
	ResolutionWontFix       Resolution = "WONTFIX"
	ResolutionFixed         Resolution = "FIXED"
	ResolutionRemoved       Resolution = "REMOVED"
)

// ParseResolution normalizes a resolution name. Unknown names are kept as-is
// (upper-cased) so that server values added later still round-trip.
func ParseResolution(s string) Resolution {
	return Resolution(strings.ToUpper(strings.TrimSpace(s)))
}

// IsResolved reports whether r is any non-empty resolution.
func (r Resolution) IsResolved() bool {
	return r != ResolutionNone
}

// Copyable reports whether r is a disposition a reviewer chose by hand and
// therefore worth carrying to other projects.
func (r Resolution) Copyable() bool {
	switch ParseResolution(string(r)) {
	case ResolutionFalsePositive, ResolutionWontFix:
		return true
	default:
		return false
	}
}

// CopyableResolutions lists the resolutions the copy workflow looks for.
var CopyableResolutions = []Resolution{ResolutionFalsePositive, ResolutionWontFix}

// Transition is the name of a server-side workflow action on an issue.
type Transition string

const (
	TransitionFalsePositive Transition = "falsepositive"
	TransitionWontFix       Transition = "wontfix"
)

// TransitionFor maps a resolution to the transition that produces it.
// Only manual dispositions have a transition; anything else is a caller bug.
func TransitionFor(r Resolution) (Transition, error) {
	switch ParseResolution(string(r)) {
	case ResolutionFalsePositive:
		return TransitionFalsePositive, nil
	case ResolutionWontFix:
		return TransitionWontFix, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedResolution, string(r))
	}
}
