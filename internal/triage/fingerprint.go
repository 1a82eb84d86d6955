package triage

import (
	"github.com/sqtriage/sqsync/internal/sonarqube"
)

// Fingerprint identifies "the same issue" in two projects that do not share
// issue keys. Two issues match only when all five fields are equal.
type Fingerprint struct {
	Message       string
	Rule          string
	ComponentPath string
	StartLine     int
	StartOffset   int
}

// FingerprintOf returns the fingerprint of an issue.
func FingerprintOf(issue *sonarqube.Issue) Fingerprint {
	return Fingerprint{
		Message:       issue.Message,
		Rule:          issue.Rule,
		ComponentPath: issue.ComponentPath(),
		StartLine:     issue.StartLine(),
		StartOffset:   issue.StartOffset(),
	}
}

// Index finds destination issues by fingerprint. When several issues share a
// fingerprint, the first one in retrieval order is the match.
type Index struct {
	issues []sonarqube.Issue
	byFP   map[Fingerprint]int
}

// NewIndex indexes issues, keeping their order for tie-breaks.
func NewIndex(issues []sonarqube.Issue) *Index {
	idx := &Index{
		issues: issues,
		byFP:   make(map[Fingerprint]int, len(issues)),
	}
	for i := range issues {
		fp := FingerprintOf(&issues[i])
		if _, ok := idx.byFP[fp]; !ok {
			idx.byFP[fp] = i
		}
	}
	return idx
}

// Len returns the number of indexed issues.
func (idx *Index) Len() int {
	return len(idx.issues)
}

// FindMatch returns the first indexed issue with the same fingerprint as
// issue, or nil.
func (idx *Index) FindMatch(issue *sonarqube.Issue) *sonarqube.Issue {
	i, ok := idx.byFP[FingerprintOf(issue)]
	if !ok {
		return nil
	}
	return &idx.issues[i]
}
