package config

import (
	"net/url"
	"strings"
)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return "invalid configuration:\n  - " + strings.Join(e.Problems, "\n  - ")
}

// Validate checks that the settings are complete for their operation.
// It reports all problems at once.
func (s *Settings) Validate() error {
	var problems []string

	switch s.Operation {
	case OperationCopyResolution:
		if len(s.DestinationProjectKeys) < 1 {
			problems = append(problems, "List of destination project keys is empty.")
		}
	case OperationAutoAssign:
		if len(s.UserMap) == 0 {
			problems = append(problems, "No user map defined.")
		}
	default:
		problems = append(problems, "No operation specified")
	}

	if s.URL == "" {
		problems = append(problems, "SonarQube url is empty.")
	} else if u, err := url.Parse(s.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, "SonarQube url must be an absolute http(s) URL: "+s.URL)
	}
	if s.Username == "" {
		problems = append(problems, "SonarQube user name is empty.")
	}
	if s.Password == "" {
		problems = append(problems, "SonarQube password is empty.")
	}
	if s.SourceProjectKey == "" {
		problems = append(problems, "Source project key is empty.")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
