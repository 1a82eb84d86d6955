package sonarqube

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
)

const (
	// MaxResultWindow is the number of results the server lets a single
	// query address, whatever the paging parameters.
	MaxResultWindow = 10000

	// DefaultPageSize is the page size used for every list call.
	DefaultPageSize = 500
)

// CountIssues returns the number of issues of a project matching the filter,
// using a single-item probe.
func (c *Client) CountIssues(ctx context.Context, projectKey string, filter Filter) (int, error) {
	c.logger.DebugContext(ctx, "Getting number of issues", "project", projectKey, "branch", filter.Branch)

	query := fmt.Sprintf("projectKeys=%s&p=1&ps=1%s", url.QueryEscape(projectKey), filter.QueryString())
	body, err := c.get(ctx, "/api/issues/search", query)
	if err != nil {
		return 0, err
	}

	var result IssuesSearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("parse issue count response: %w", err)
	}
	return result.Paging.Total, nil
}

// SearchIssues returns a lazy page sequence over api/issues/search. scope is
// either "projectKeys" or "componentKeys". Comments are always requested.
func (c *Client) SearchIssues(ctx context.Context, scope, key string, filter Filter) iter.Seq2[Page[Issue], error] {
	return pages(ctx, DefaultPageSize, func(ctx context.Context, pageIndex, pageSize int) (Page[Issue], error) {
		query := fmt.Sprintf("%s=%s&additionalFields=comments&p=%d&ps=%d%s",
			scope, url.QueryEscape(key), pageIndex, pageSize, filter.QueryString())

		body, err := c.get(ctx, "/api/issues/search", query)
		if err != nil {
			return Page[Issue]{}, err
		}

		var result IssuesSearchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return Page[Issue]{}, fmt.Errorf("parse issue search response: %w", err)
		}
		return Page[Issue]{Items: result.Issues, Paging: result.Paging}, nil
	})
}

// ProjectComponents lists the directory components of a project.
func (c *Client) ProjectComponents(ctx context.Context, projectKey, branch string) ([]Component, error) {
	c.logger.DebugContext(ctx, "Getting list of components", "project", projectKey, "branch", branch)

	seq := pages(ctx, DefaultPageSize, func(ctx context.Context, pageIndex, pageSize int) (Page[Component], error) {
		query := fmt.Sprintf("baseComponentKey=%s&qualifiers=DIR&p=%d&ps=%d",
			url.QueryEscape(projectKey), pageIndex, pageSize)
		if branch != "" {
			query += "&branch=" + url.QueryEscape(branch)
		}

		body, err := c.get(ctx, "/api/components/tree", query)
		if err != nil {
			return Page[Component]{}, err
		}

		var result ComponentsTreeResult
		if err := json.Unmarshal(body, &result); err != nil {
			return Page[Component]{}, fmt.Errorf("parse components response: %w", err)
		}
		return Page[Component]{Items: result.Components, Paging: result.Paging}, nil
	})

	components, err := collect(seq)
	if err != nil {
		return nil, fmt.Errorf("list components of %s: %w", projectKey, err)
	}

	c.logger.DebugContext(ctx, "Components found", "project", projectKey, "count", len(components))
	return components, nil
}

// FetchAllIssues returns every issue of a project matching the filter.
//
// Projects below MaxResultWindow are paged directly. Larger projects are
// fetched directory by directory, since no single query can reach past the
// window. A directory that itself holds MaxResultWindow issues or more is
// only partially fetched; a warning names it.
//
// A non-2xx response ends retrieval early and keeps what was already read.
// Transport and decoding errors are returned.
func (c *Client) FetchAllIssues(ctx context.Context, projectKey string, filter Filter) ([]Issue, error) {
	c.logger.DebugContext(ctx, "Getting list of issues", "project", projectKey, "branch", filter.Branch)

	total, err := c.CountIssues(ctx, projectKey, filter)
	if err != nil {
		if IsStatusError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("count issues of %s: %w", projectKey, err)
	}
	if total <= 0 {
		c.logger.DebugContext(ctx, "Issues found", "project", projectKey, "count", 0)
		return nil, nil
	}

	var issues []Issue
	if total < MaxResultWindow {
		issues, err = collect(c.SearchIssues(ctx, "projectKeys", projectKey, filter))
		if err != nil {
			return nil, fmt.Errorf("search issues of %s: %w", projectKey, err)
		}
	} else {
		issues, err = c.fetchIssuesByComponent(ctx, projectKey, filter)
		if err != nil {
			return nil, err
		}
	}

	if len(issues) > total {
		issues = issues[:total]
	}

	c.logger.DebugContext(ctx, "Issues found", "project", projectKey, "count", len(issues))
	return issues, nil
}

// fetchIssuesByComponent concatenates the issues of every directory of a
// project. Directory queries may overlap, so issues are kept once by key.
func (c *Client) fetchIssuesByComponent(ctx context.Context, projectKey string, filter Filter) ([]Issue, error) {
	components, err := c.ProjectComponents(ctx, projectKey, filter.Branch)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var issues []Issue
	for _, component := range components {
		c.logger.DebugContext(ctx, "Getting list of issues for component", "component", component.Key, "branch", filter.Branch)

		count := 0
		for page, err := range c.SearchIssues(ctx, "componentKeys", component.Key, filter) {
			if err != nil {
				return nil, fmt.Errorf("search issues of component %s: %w", component.Key, err)
			}
			if page.Paging.PageIndex == 1 && page.Paging.Total >= MaxResultWindow {
				c.logger.WarnContext(ctx, "Component exceeds the search window, results will be incomplete",
					"component", component.Key, "total", page.Paging.Total, "window", MaxResultWindow)
			}
			for _, issue := range page.Items {
				if seen[issue.Key] {
					continue
				}
				seen[issue.Key] = true
				issues = append(issues, issue)
				count++
			}
			// The server rejects any page past the window.
			if page.Paging.PageIndex*page.Paging.PageSize >= MaxResultWindow {
				break
			}
		}
		c.logger.DebugContext(ctx, "Issues found", "component", component.Key, "count", count)
	}
	return issues, nil
}
