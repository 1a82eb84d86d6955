// Package testutil provides an in-memory SonarQube Web API for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/sqtriage/sqsync/internal/sonarqube"
)

// RecordedRequest stores information about a request made to the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

// MockServer serves api/issues/search, api/components/tree and the issue
// write endpoints from in-memory data. Write calls are recorded, not applied.
type MockServer struct {
	Server *httptest.Server
	mu     sync.RWMutex

	requests []RecordedRequest

	// issues by project key; componentIssues by directory component key
	issues          map[string][]sonarqube.Issue
	components      map[string][]sonarqube.Component
	componentIssues map[string][]sonarqube.Issue

	// reported totals that override the matched count, by project or component key
	totals map[string]int

	// status codes forced for "path" or "path#page" keys
	failures map[string]int
}

// NewMockServer creates and starts a mock server. Call Close when done.
func NewMockServer() *MockServer {
	m := &MockServer{
		issues:          make(map[string][]sonarqube.Issue),
		components:      make(map[string][]sonarqube.Component),
		componentIssues: make(map[string][]sonarqube.Issue),
		totals:          make(map[string]int),
		failures:        make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handleRequest))
	return m
}

// URL returns the mock server URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.Server.Close()
}

// SetIssues sets the issues of a project.
func (m *MockServer) SetIssues(projectKey string, issues ...sonarqube.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[projectKey] = issues
}

// SetReportedTotal makes a project or component report total issues
// regardless of how many it holds, to simulate data past the search window.
func (m *MockServer) SetReportedTotal(key string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[key] = total
}

// SetComponents sets the directory components of a project.
func (m *MockServer) SetComponents(projectKey string, components ...sonarqube.Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[projectKey] = components
}

// SetComponentIssues sets the issues found under a directory component.
func (m *MockServer) SetComponentIssues(componentKey string, issues ...sonarqube.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.componentIssues[componentKey] = issues
}

// FailPath forces a status code for every request to path.
func (m *MockServer) FailPath(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = status
}

// FailPage forces a status code for one page (1-based) of a list path.
func (m *MockServer) FailPage(path string, page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path+"#"+strconv.Itoa(page)] = status
}

// Requests returns all recorded requests.
func (m *MockServer) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]RecordedRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// RequestsTo returns the recorded requests for one path.
func (m *MockServer) RequestsTo(path string) []RecordedRequest {
	var result []RecordedRequest
	for _, r := range m.Requests() {
		if r.Path == path {
			result = append(result, r)
		}
	}
	return result
}

// Writes returns the recorded POST requests.
func (m *MockServer) Writes() []RecordedRequest {
	var result []RecordedRequest
	for _, r := range m.Requests() {
		if r.Method == http.MethodPost {
			result = append(result, r)
		}
	}
	return result
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	var form url.Values
	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
	}

	query := r.URL.Query()
	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  query,
		Form:   form,
	})
	status, failAll := m.failures[r.URL.Path]
	if !failAll {
		status, failAll = m.failures[r.URL.Path+"#"+query.Get("p")]
	}
	m.mu.Unlock()

	if _, _, ok := r.BasicAuth(); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if failAll {
		w.WriteHeader(status)
		writeJSON(w, map[string]any{"errors": []map[string]string{{"msg": "forced failure"}}})
		return
	}

	switch r.URL.Path {
	case "/api/issues/search":
		m.handleSearch(w, query)
	case "/api/components/tree":
		m.handleTree(w, query)
	case "/api/issues/do_transition", "/api/issues/add_comment", "/api/issues/assign":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]any{})
	default:
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"errors": []map[string]string{{"msg": "unknown url"}}})
	}
}

func (m *MockServer) handleSearch(w http.ResponseWriter, query url.Values) {
	m.mu.RLock()
	var (
		all   []sonarqube.Issue
		total = -1
	)
	key := query.Get("projectKeys")
	if key != "" {
		all = m.issues[key]
	} else {
		key = query.Get("componentKeys")
		all = m.componentIssues[key]
	}
	if t, ok := m.totals[key]; ok {
		total = t
	}
	m.mu.RUnlock()

	matched := filterIssues(all, query)
	if total < 0 {
		total = len(matched)
	}

	p, ps := paging(query)
	page := pageOf(matched, p, ps)
	if query.Get("additionalFields") != "comments" {
		stripped := make([]sonarqube.Issue, len(page))
		for i, issue := range page {
			issue.Comments = nil
			stripped[i] = issue
		}
		page = stripped
	}

	writeJSON(w, sonarqube.IssuesSearchResult{
		Issues: page,
		Paging: sonarqube.Paging{PageIndex: p, PageSize: ps, Total: total},
	})
}

func (m *MockServer) handleTree(w http.ResponseWriter, query url.Values) {
	m.mu.RLock()
	all := m.components[query.Get("baseComponentKey")]
	m.mu.RUnlock()

	p, ps := paging(query)
	writeJSON(w, sonarqube.ComponentsTreeResult{
		Components: pageOf(all, p, ps),
		Paging:     sonarqube.Paging{PageIndex: p, PageSize: ps, Total: len(all)},
	})
}

// filterIssues applies the resolved, assigned and resolutions predicates.
func filterIssues(issues []sonarqube.Issue, query url.Values) []sonarqube.Issue {
	var resolutions map[string]bool
	if v := query.Get("resolutions"); v != "" {
		resolutions = make(map[string]bool)
		for _, r := range strings.Split(v, ",") {
			resolutions[r] = true
		}
	}

	var result []sonarqube.Issue
	for _, issue := range issues {
		if v := query.Get("resolved"); v != "" && (v == "true") != issue.Resolution.IsResolved() {
			continue
		}
		if v := query.Get("assigned"); v != "" && (v == "true") != (issue.Assignee != "") {
			continue
		}
		if resolutions != nil && !resolutions[string(issue.Resolution)] {
			continue
		}
		result = append(result, issue)
	}
	return result
}

func paging(query url.Values) (int, int) {
	p, err := strconv.Atoi(query.Get("p"))
	if err != nil || p < 1 {
		p = 1
	}
	ps, err := strconv.Atoi(query.Get("ps"))
	if err != nil || ps < 1 {
		ps = 100
	}
	return p, ps
}

func pageOf[T any](all []T, p, ps int) []T {
	start := (p - 1) * ps
	if start >= len(all) {
		return []T{}
	}
	end := min(start+ps, len(all))
	return all[start:end]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
