package triage

import (
	"strconv"

	"github.com/sqtriage/sqsync/internal/sonarqube"
)

// Operation names a workflow.
type Operation string

const (
	OperationCopyResolution Operation = "CopyResolution"
	OperationAutoAssign     Operation = "AutoAssign"
)

// Stats tracks what a workflow run did. In dry-run mode Updated and Assigned
// count the writes that would have been made.
type Stats struct {
	Fetched         int `json:"fetched"`          // Source issues retrieved
	Matched         int `json:"matched"`          // Source issues found in a destination
	Updated         int `json:"updated"`          // Resolutions copied
	Assigned        int `json:"assigned"`         // Issues assigned
	AlreadyResolved int `json:"already_resolved"` // Matches left alone because already resolved
	NotFound        int `json:"not_found"`        // Source issues with no destination match
	Unmapped        int `json:"unmapped"`         // Issues whose author has no mapped user
	Skipped         int `json:"skipped"`          // Source issues with a non-copyable resolution
	Errors          int `json:"errors"`           // Writes rejected by the server
}

// ActionKind is the outcome recorded for one issue.
type ActionKind string

const (
	ActionUpdated         ActionKind = "updated"
	ActionAssigned        ActionKind = "assigned"
	ActionAlreadyResolved ActionKind = "already_resolved"
	ActionNotFound        ActionKind = "not_found"
	ActionUnmapped        ActionKind = "unmapped"
	ActionFailed          ActionKind = "failed"
)

// Action records the outcome for one source issue (and destination project,
// for copy runs).
type Action struct {
	Kind       ActionKind           `json:"kind"`
	Project    string               `json:"project"`
	SourceKey  string               `json:"source_key"`
	TargetKey  string               `json:"target_key,omitempty"`
	Rule       string               `json:"rule"`
	Location   string               `json:"location"`
	Resolution sonarqube.Resolution `json:"resolution,omitempty"`
	Author     string               `json:"author,omitempty"`
	Assignee   string               `json:"assignee,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Result represents the result of a complete workflow run.
type Result struct {
	Operation Operation `json:"operation"`
	Project   string    `json:"project"`
	Branch    string    `json:"branch,omitempty"`
	DryRun    bool      `json:"dry_run"`
	Success   bool      `json:"success"`
	Stats     Stats     `json:"stats"`
	Actions   []Action  `json:"actions,omitempty"`
	Error     string    `json:"error,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
}

func newAction(kind ActionKind, project string, issue *sonarqube.Issue) Action {
	return Action{
		Kind:      kind,
		Project:   project,
		SourceKey: issue.Key,
		Rule:      issue.Rule,
		Location:  location(issue),
	}
}

func location(issue *sonarqube.Issue) string {
	if line := issue.StartLine(); line > 0 {
		return issue.ComponentPath() + ":" + strconv.Itoa(line)
	}
	return issue.ComponentPath()
}
