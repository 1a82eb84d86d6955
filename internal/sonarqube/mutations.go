package sonarqube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// UpdateIssueResolution moves an issue to newResolution and then copies
// comments onto it. Each comment is re-posted with note appended (space
// separated) when note is set; with no comments, note is posted alone.
// Comments that end up with no text are skipped.
//
// A failed transition is returned immediately and no comment is posted.
// Failed comment posts (non-2xx) do not stop the remaining ones; they are
// returned joined in a *CommentError. Transport errors are returned as soon
// as they happen.
func (c *Client) UpdateIssueResolution(ctx context.Context, issueKey string, newResolution Resolution, comments []Comment, note string) error {
	if issueKey == "" {
		return fmt.Errorf("%w: issue key is empty", ErrInvalidArgument)
	}
	if newResolution == ResolutionNone {
		return fmt.Errorf("%w: resolution is empty", ErrInvalidArgument)
	}

	transition, err := TransitionFor(newResolution)
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "Updating resolution", "issue", issueKey, "resolution", string(newResolution))

	if err := c.DoTransition(ctx, issueKey, transition); err != nil {
		return err
	}

	if len(comments) == 0 {
		if note == "" {
			return nil
		}
		return c.AddComment(ctx, issueKey, note)
	}

	var errs []error
	for _, comment := range comments {
		text := strings.TrimSpace(strings.TrimSpace(comment.HTMLText) + " " + note)
		if text == "" {
			c.logger.DebugContext(ctx, "Skipping empty comment", "issue", issueKey, "comment", comment.Key)
			continue
		}
		if err := c.AddComment(ctx, issueKey, text); err != nil {
			if !IsStatusError(err) {
				return err
			}
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &CommentError{IssueKey: issueKey, Err: errors.Join(errs...)}
	}
	return nil
}

// DoTransition applies a workflow transition to an issue.
func (c *Client) DoTransition(ctx context.Context, issueKey string, transition Transition) error {
	if issueKey == "" || transition == "" {
		return fmt.Errorf("%w: issue key and transition are required", ErrInvalidArgument)
	}
	return c.postForm(ctx, "/api/issues/do_transition", url.Values{
		"issue":      {issueKey},
		"transition": {string(transition)},
	})
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, issueKey, text string) error {
	if issueKey == "" || text == "" {
		return fmt.Errorf("%w: issue key and text are required", ErrInvalidArgument)
	}
	return c.postForm(ctx, "/api/issues/add_comment", url.Values{
		"issue": {issueKey},
		"text":  {text},
	})
}

// AssignIssue assigns an issue to a user login.
func (c *Client) AssignIssue(ctx context.Context, issueKey, assignee string) error {
	if issueKey == "" {
		return fmt.Errorf("%w: issue key is empty", ErrInvalidArgument)
	}
	if assignee == "" {
		return fmt.Errorf("%w: assignee is empty", ErrInvalidArgument)
	}

	c.logger.DebugContext(ctx, "Assigning issue", "issue", issueKey, "assignee", assignee)

	return c.postForm(ctx, "/api/issues/assign", url.Values{
		"issue":    {issueKey},
		"assignee": {assignee},
	})
}
