package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sqtriage/sqsync/internal/sonarqube"
)

// CopyOptions selects the source and destinations of a copy run.
type CopyOptions struct {
	SourceProjectKey       string
	SourceBranch           string
	DestinationProjectKeys []string
	DestinationBranch      string
}

// AssignOptions selects the project of an auto-assign run. UserMap maps VCS
// author names to SonarQube logins.
type AssignOptions struct {
	ProjectKey string
	Branch     string
	UserMap    map[string]string
}

// Engine runs the triage workflows against a Tracker. All calls are made
// one at a time, in retrieval order.
type Engine struct {
	Tracker Tracker
	Logger  *slog.Logger

	// DryRun performs retrieval, matching and logging but no writes.
	DryRun bool

	// AddNote appends a "(copy from ...)" note to copied comments, or posts
	// it alone when the source issue has none.
	AddNote bool
}

// NewEngine creates a new engine for the given tracker.
func NewEngine(tracker Tracker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		Tracker: tracker,
		Logger:  logger,
	}
}

// CopyNote returns the note attached to copied resolutions.
func CopyNote(projectKey, branch string) string {
	if branch == "" {
		return fmt.Sprintf("(copy from %s)", projectKey)
	}
	return fmt.Sprintf("(copy from %s, branch %s)", projectKey, branch)
}

// CopyResolutions copies FALSE-POSITIVE and WONTFIX resolutions from the
// source project to every destination project. Destination issues are found
// by fingerprint; an issue that already has a resolution is never changed.
//
// Writes rejected by the server are counted in Stats.Errors and the run
// continues. Transport errors abort the run and are returned along with the
// partial result.
func (e *Engine) CopyResolutions(ctx context.Context, opts CopyOptions) (*Result, error) {
	result := &Result{
		Operation: OperationCopyResolution,
		Project:   opts.SourceProjectKey,
		Branch:    opts.SourceBranch,
		DryRun:    e.DryRun,
		Success:   true,
	}
	if opts.SourceProjectKey == "" {
		return e.fail(result, fmt.Errorf("%w: source project key is empty", sonarqube.ErrInvalidArgument))
	}

	e.Logger.InfoContext(ctx, "Getting list of issues for project "+opts.SourceProjectKey)
	sourceIssues, err := e.Tracker.FetchAllIssues(ctx, opts.SourceProjectKey, sonarqube.Filter{
		Branch:      opts.SourceBranch,
		Resolutions: sonarqube.CopyableResolutions,
	})
	if err != nil {
		return e.fail(result, fmt.Errorf("fetch source issues: %w", err))
	}
	result.Stats.Fetched = len(sourceIssues)

	if len(sourceIssues) == 0 {
		e.warn(ctx, result, "There are no issues to copy!")
		return result, nil
	}
	e.Logger.InfoContext(ctx, fmt.Sprintf("%d issues found", len(sourceIssues)))

	var note string
	if e.AddNote {
		note = CopyNote(opts.SourceProjectKey, opts.SourceBranch)
		e.Logger.DebugContext(ctx, fmt.Sprintf("Will be adding a note '%s'", note))
	}

	for _, destKey := range opts.DestinationProjectKeys {
		if err := ctx.Err(); err != nil {
			return e.fail(result, err)
		}
		if err := e.copyToProject(ctx, result, sourceIssues, destKey, opts.DestinationBranch, note); err != nil {
			return e.fail(result, err)
		}
	}

	return result, nil
}

// copyToProject handles one destination. Destinations share nothing.
func (e *Engine) copyToProject(ctx context.Context, result *Result, sourceIssues []sonarqube.Issue, destKey, destBranch, note string) error {
	e.Logger.InfoContext(ctx, "Copying resolutions to project "+destKey)

	destIssues, err := e.Tracker.FetchAllIssues(ctx, destKey, sonarqube.Filter{Branch: destBranch})
	if err != nil {
		return fmt.Errorf("fetch issues of %s: %w", destKey, err)
	}
	index := NewIndex(destIssues)
	e.Logger.InfoContext(ctx, fmt.Sprintf("%d issues found", index.Len()), "project", destKey)

	for i := range sourceIssues {
		source := &sourceIssues[i]

		// The fetch filter already restricts resolutions; anything else here
		// came from a server that ignored it.
		if !source.Resolution.Copyable() {
			e.Logger.DebugContext(ctx, "Skipping issue with resolution "+string(source.Resolution), "issue", source.Key)
			result.Stats.Skipped++
			continue
		}

		e.Logger.InfoContext(ctx, "Issue "+source.String())

		match := index.FindMatch(source)
		if match == nil {
			e.Logger.WarnContext(ctx, "Not found in the destination project", "project", destKey)
			result.Stats.NotFound++
			result.Actions = append(result.Actions, newAction(ActionNotFound, destKey, source))
			continue
		}
		result.Stats.Matched++

		action := newAction(ActionUpdated, destKey, source)
		action.TargetKey = match.Key
		action.Resolution = source.Resolution

		if match.Resolution.IsResolved() {
			e.Logger.InfoContext(ctx, fmt.Sprintf("Issue is already marked as %s in the destination project.", match.Resolution),
				"issue", match.Key)
			result.Stats.AlreadyResolved++
			action.Kind = ActionAlreadyResolved
			action.Resolution = match.Resolution
			result.Actions = append(result.Actions, action)
			continue
		}

		e.Logger.InfoContext(ctx, "Updating issue resolution to "+string(source.Resolution), "issue", match.Key)
		if e.DryRun {
			e.Logger.DebugContext(ctx, "[dry-run] Would transition "+match.Key, "comments", len(source.Comments))
			result.Stats.Updated++
			result.Actions = append(result.Actions, action)
			continue
		}

		err := e.Tracker.UpdateIssueResolution(ctx, match.Key, source.Resolution, source.Comments, note)
		var commentErr *sonarqube.CommentError
		switch {
		case err == nil:
		case errors.As(err, &commentErr):
			// The resolution changed; only the comment copy is incomplete.
			e.warn(ctx, result, commentErr.Error())
		case !sonarqube.IsStatusError(err):
			return fmt.Errorf("update issue %s: %w", match.Key, err)
		default:
			result.Stats.Errors++
			action.Kind = ActionFailed
			action.Error = err.Error()
			result.Actions = append(result.Actions, action)
			continue
		}
		result.Stats.Updated++
		result.Actions = append(result.Actions, action)
	}

	return nil
}

// AutoAssign assigns every unresolved, unassigned issue of a project to the
// user mapped from its author. Issues by unmapped authors are left alone
// with one warning each.
func (e *Engine) AutoAssign(ctx context.Context, opts AssignOptions) (*Result, error) {
	result := &Result{
		Operation: OperationAutoAssign,
		Project:   opts.ProjectKey,
		Branch:    opts.Branch,
		DryRun:    e.DryRun,
		Success:   true,
	}
	if opts.ProjectKey == "" {
		return e.fail(result, fmt.Errorf("%w: project key is empty", sonarqube.ErrInvalidArgument))
	}

	e.Logger.InfoContext(ctx, "Getting list of issues for project "+opts.ProjectKey)
	issues, err := e.Tracker.FetchAllIssues(ctx, opts.ProjectKey, sonarqube.Filter{
		Branch:   opts.Branch,
		Resolved: sonarqube.Bool(false),
		Assigned: sonarqube.Bool(false),
	})
	if err != nil {
		return e.fail(result, fmt.Errorf("fetch issues: %w", err))
	}
	result.Stats.Fetched = len(issues)

	if len(issues) == 0 {
		e.warn(ctx, result, "There are no issues to assign!")
		return result, nil
	}
	e.Logger.InfoContext(ctx, fmt.Sprintf("%d issues found", len(issues)))

	for i := range issues {
		issue := &issues[i]
		e.Logger.InfoContext(ctx, "Issue "+issue.String())

		action := newAction(ActionAssigned, opts.ProjectKey, issue)
		action.TargetKey = issue.Key
		action.Author = issue.Author

		login, ok := opts.UserMap[issue.Author]
		if !ok || login == "" {
			e.Logger.WarnContext(ctx, fmt.Sprintf("Unable to assign issue authored by unmapped user '%s'", issue.Author),
				"issue", issue.Key)
			result.Stats.Unmapped++
			action.Kind = ActionUnmapped
			result.Actions = append(result.Actions, action)
			continue
		}
		action.Assignee = login

		e.Logger.InfoContext(ctx, "Assigning issue to "+login, "issue", issue.Key)
		if e.DryRun {
			e.Logger.DebugContext(ctx, "[dry-run] Would assign "+issue.Key+" to "+login)
			result.Stats.Assigned++
			result.Actions = append(result.Actions, action)
			continue
		}

		if err := e.Tracker.AssignIssue(ctx, issue.Key, login); err != nil {
			if !sonarqube.IsStatusError(err) {
				return e.fail(result, fmt.Errorf("assign issue %s: %w", issue.Key, err))
			}
			result.Stats.Errors++
			action.Kind = ActionFailed
			action.Error = err.Error()
			result.Actions = append(result.Actions, action)
			continue
		}
		result.Stats.Assigned++
		result.Actions = append(result.Actions, action)
	}

	return result, nil
}

func (e *Engine) fail(result *Result, err error) (*Result, error) {
	result.Success = false
	result.Error = err.Error()
	return result, err
}

func (e *Engine) warn(ctx context.Context, result *Result, msg string) {
	e.Logger.WarnContext(ctx, msg)
	result.Warnings = append(result.Warnings, msg)
}
