// Package triage implements the two SonarQube housekeeping workflows:
// copying manual resolutions from one project to others, and assigning
// open issues to the users who authored them.
package triage

import (
	"context"

	"github.com/sqtriage/sqsync/internal/sonarqube"
)

// Tracker is the part of the SonarQube client the workflows depend on.
// *sonarqube.Client implements it; telemetry.WrapTracker decorates it.
type Tracker interface {
	// FetchAllIssues returns every issue of a project matching filter.
	FetchAllIssues(ctx context.Context, projectKey string, filter sonarqube.Filter) ([]sonarqube.Issue, error)

	// UpdateIssueResolution transitions an issue and copies comments onto it.
	UpdateIssueResolution(ctx context.Context, issueKey string, resolution sonarqube.Resolution, comments []sonarqube.Comment, note string) error

	// AssignIssue assigns an issue to a user login.
	AssignIssue(ctx context.Context, issueKey, assignee string) error
}

var _ Tracker = (*sonarqube.Client)(nil)
