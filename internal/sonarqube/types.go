package sonarqube

import (
	"fmt"
	"strings"
)

// Issue represents a SonarQube issue from api/issues/search.
type Issue struct {
	Key        string     `json:"key"`
	Rule       string     `json:"rule"`
	Severity   string     `json:"severity,omitempty"`
	Type       string     `json:"type,omitempty"`
	Component  string     `json:"component"`
	Project    string     `json:"project,omitempty"`
	Line       int        `json:"line,omitempty"`
	TextRange  *TextRange `json:"textRange,omitempty"`
	Message    string     `json:"message"`
	Status     string     `json:"status,omitempty"`
	Resolution Resolution `json:"resolution,omitempty"`
	Author     string     `json:"author,omitempty"`
	Assignee   string     `json:"assignee,omitempty"`
	Comments   []Comment  `json:"comments,omitempty"`
}

// TextRange locates an issue inside its file.
type TextRange struct {
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine"`
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`
}

// Comment is a single comment attached to an issue (additionalFields=comments).
type Comment struct {
	Key       string `json:"key,omitempty"`
	Login     string `json:"login,omitempty"`
	HTMLText  string `json:"htmlText"`
	Markdown  string `json:"markdown,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ComponentPath returns the component key without its project prefix.
// Component keys look like "projectKey:src/main/Foo.java"; the path part is
// what stays stable when the same code is analyzed under another project.
func (i *Issue) ComponentPath() string {
	if idx := strings.Index(i.Component, ":"); idx >= 0 {
		return i.Component[idx+1:]
	}
	return i.Component
}

// StartLine returns the first line of the issue, or 0 for file-level issues.
func (i *Issue) StartLine() int {
	if i.TextRange != nil {
		return i.TextRange.StartLine
	}
	return i.Line
}

// StartOffset returns the column offset on the first line, or 0 when unknown.
func (i *Issue) StartOffset() int {
	if i.TextRange != nil {
		return i.TextRange.StartOffset
	}
	return 0
}

func (i *Issue) String() string {
	return fmt.Sprintf("%s %s %s:%d %s", i.Key, i.Rule, i.ComponentPath(), i.StartLine(), i.Message)
}

// Component is a node of a project's component tree (api/components/tree).
type Component struct {
	Key       string `json:"key"`
	Name      string `json:"name,omitempty"`
	Qualifier string `json:"qualifier,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Paging is the paging block returned with every list response.
type Paging struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

// Exhausted reports whether the server has no results beyond this page.
func (p Paging) Exhausted() bool {
	return p.PageIndex*p.PageSize >= p.Total
}

// IssuesSearchResult is the response of api/issues/search.
type IssuesSearchResult struct {
	Issues []Issue `json:"issues"`
	Paging Paging  `json:"paging"`
}

// ComponentsTreeResult is the response of api/components/tree.
type ComponentsTreeResult struct {
	Components []Component `json:"components"`
	Paging     Paging      `json:"paging"`
}
