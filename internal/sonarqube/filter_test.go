package sonarqube_test

import (
	"testing"

	"github.com/sqtriage/sqsync/internal/sonarqube"
	"github.com/stretchr/testify/assert"
)

func TestFilterQueryString(t *testing.T) {
	tests := []struct {
		name   string
		filter sonarqube.Filter
		want   string
	}{
		{
			name:   "empty filter",
			filter: sonarqube.Filter{},
			want:   "",
		},
		{
			name:   "branch only",
			filter: sonarqube.Filter{Branch: "main"},
			want:   "&branch=main",
		},
		{
			name: "copy source filter",
			filter: sonarqube.Filter{
				Branch:      "develop",
				Resolutions: []sonarqube.Resolution{sonarqube.ResolutionWontFix, sonarqube.ResolutionFalsePositive},
			},
			want: "&branch=develop&resolutions=FALSE-POSITIVE,WONTFIX",
		},
		{
			name:   "assign filter",
			filter: sonarqube.Filter{Resolved: sonarqube.Bool(false), Assigned: sonarqube.Bool(false)},
			want:   "&resolved=false&assigned=false",
		},
		{
			name: "every field in fixed order",
			filter: sonarqube.Filter{
				Resolutions: []sonarqube.Resolution{sonarqube.ResolutionFixed},
				Assignees:   []string{"bob", "alice"},
				Rules:       []string{"java:S100"},
				Severities:  []string{"MAJOR", "BLOCKER", "MAJOR"},
				Assigned:    sonarqube.Bool(true),
				Resolved:    sonarqube.Bool(true),
				IssueType:   "BUG",
				Branch:      "feature/login",
			},
			want: "&branch=feature%2Flogin&type=BUG&resolved=true&assigned=true" +
				"&severities=BLOCKER,MAJOR&rules=java%3AS100&assignees=alice,bob&resolutions=FIXED",
		},
		{
			name:   "empty values dropped from sets",
			filter: sonarqube.Filter{Severities: []string{"", "MINOR", ""}},
			want:   "&severities=MINOR",
		},
		{
			name:   "set of only empty values omitted",
			filter: sonarqube.Filter{Rules: []string{""}},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.QueryString())
		})
	}
}

func TestFilterQueryStringDeterministic(t *testing.T) {
	a := sonarqube.Filter{Severities: []string{"MINOR", "MAJOR", "INFO"}}
	b := sonarqube.Filter{Severities: []string{"INFO", "MINOR", "MAJOR", "MINOR"}}
	assert.Equal(t, a.QueryString(), b.QueryString())
}
