package sonarqube

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Filter holds the optional predicates of an issue search. Zero values are
// omitted from the query.
type Filter struct {
	Branch      string
	IssueType   string
	Resolved    *bool
	Assigned    *bool
	Severities  []string
	Rules       []string
	Assignees   []string
	Resolutions []Resolution
}

// QueryString renders the filter as a query fragment where every present
// predicate appears as "&name=value". Fields always come out in the same
// order; multi-valued predicates are de-duplicated and sorted so that equal
// sets render identically.
func (f Filter) QueryString() string {
	var sb strings.Builder
	appendParam := func(name, value string) {
		sb.WriteString("&")
		sb.WriteString(name)
		sb.WriteString("=")
		sb.WriteString(value)
	}

	if f.Branch != "" {
		appendParam("branch", url.QueryEscape(f.Branch))
	}
	if f.IssueType != "" {
		appendParam("type", url.QueryEscape(f.IssueType))
	}
	if f.Resolved != nil {
		appendParam("resolved", strconv.FormatBool(*f.Resolved))
	}
	if f.Assigned != nil {
		appendParam("assigned", strconv.FormatBool(*f.Assigned))
	}
	if v := joinSet(f.Severities); v != "" {
		appendParam("severities", v)
	}
	if v := joinSet(f.Rules); v != "" {
		appendParam("rules", v)
	}
	if v := joinSet(f.Assignees); v != "" {
		appendParam("assignees", v)
	}
	resolutions := make([]string, len(f.Resolutions))
	for i, r := range f.Resolutions {
		resolutions[i] = string(r)
	}
	if v := joinSet(resolutions); v != "" {
		appendParam("resolutions", v)
	}

	return sb.String()
}

// joinSet escapes, de-duplicates and sorts values, then joins them with commas.
// Empty strings are dropped.
func joinSet(values []string) string {
	if len(values) == 0 {
		return ""
	}
	set := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set = append(set, url.QueryEscape(v))
	}
	slices.Sort(set)
	set = slices.Compact(set)
	return strings.Join(set, ",")
}

// Bool returns a pointer to b, for the tri-state Filter fields.
func Bool(b bool) *bool { return &b }
