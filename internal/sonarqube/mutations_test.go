package sonarqube_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/sqtriage/sqsync/internal/sonarqube"
	"github.com/sqtriage/sqsync/internal/sonarqube/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateIssueResolution(t *testing.T) {
	tests := []struct {
		name         string
		resolution   sonarqube.Resolution
		comments     []sonarqube.Comment
		note         string
		wantTransit  string
		wantComments []string
	}{
		{
			name:         "comments with note",
			resolution:   sonarqube.ResolutionFalsePositive,
			comments:     []sonarqube.Comment{{HTMLText: "not reachable"}, {HTMLText: "checked by <b>ops</b>"}},
			note:         "(copy from proj-a)",
			wantTransit:  "falsepositive",
			wantComments: []string{"not reachable (copy from proj-a)", "checked by <b>ops</b> (copy from proj-a)"},
		},
		{
			name:         "comments without note",
			resolution:   sonarqube.ResolutionWontFix,
			comments:     []sonarqube.Comment{{HTMLText: "legacy code"}},
			wantTransit:  "wontfix",
			wantComments: []string{"legacy code"},
		},
		{
			name:         "note only",
			resolution:   sonarqube.ResolutionWontFix,
			note:         "(copy from proj-a, branch main)",
			wantTransit:  "wontfix",
			wantComments: []string{"(copy from proj-a, branch main)"},
		},
		{
			name:        "nothing to comment",
			resolution:  "false-positive",
			wantTransit: "falsepositive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockServer()
			defer server.Close()
			client, _ := newTestClient(t, server)

			err := client.UpdateIssueResolution(context.Background(), "AX-dst", tt.resolution, tt.comments, tt.note)
			require.NoError(t, err)

			writes := server.Writes()
			require.Len(t, writes, 1+len(tt.wantComments))
			assert.Equal(t, "/api/issues/do_transition", writes[0].Path)
			assert.Equal(t, "AX-dst", writes[0].Form.Get("issue"))
			assert.Equal(t, tt.wantTransit, writes[0].Form.Get("transition"))

			for i, want := range tt.wantComments {
				w := writes[i+1]
				assert.Equal(t, "/api/issues/add_comment", w.Path)
				assert.Equal(t, "AX-dst", w.Form.Get("issue"))
				assert.Equal(t, want, w.Form.Get("text"))
			}
		})
	}
}

func TestUpdateIssueResolutionRejectsBadInput(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	client, _ := newTestClient(t, server)
	ctx := context.Background()

	err := client.UpdateIssueResolution(ctx, "", sonarqube.ResolutionWontFix, nil, "")
	assert.ErrorIs(t, err, sonarqube.ErrInvalidArgument)

	err = client.UpdateIssueResolution(ctx, "AX1", sonarqube.ResolutionNone, nil, "")
	assert.ErrorIs(t, err, sonarqube.ErrInvalidArgument)

	err = client.UpdateIssueResolution(ctx, "AX1", sonarqube.ResolutionFixed, nil, "note")
	assert.ErrorIs(t, err, sonarqube.ErrUnsupportedResolution)
	assert.Contains(t, err.Error(), "cannot update issue resolution to value")

	assert.Empty(t, server.Requests(), "no request for rejected input")
}

func TestUpdateIssueResolutionTransitionRejected(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.FailPath("/api/issues/do_transition", http.StatusBadRequest)
	client, logs := newTestClient(t, server)

	err := client.UpdateIssueResolution(context.Background(), "AX1", sonarqube.ResolutionWontFix,
		[]sonarqube.Comment{{HTMLText: "a"}}, "note")
	require.Error(t, err)
	assert.True(t, sonarqube.IsStatusError(err))
	assert.Len(t, server.Writes(), 1, "comments skipped after failed transition")
	assert.Contains(t, logs.String(), "status=400")
}

func TestUpdateIssueResolutionCommentRejected(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.FailPath("/api/issues/add_comment", http.StatusInternalServerError)
	client, _ := newTestClient(t, server)

	err := client.UpdateIssueResolution(context.Background(), "AX1", sonarqube.ResolutionWontFix,
		[]sonarqube.Comment{{HTMLText: "a"}, {HTMLText: "b"}}, "")
	require.Error(t, err)
	assert.True(t, sonarqube.IsStatusError(err))
	var commentErr *sonarqube.CommentError
	require.ErrorAs(t, err, &commentErr)
	assert.Equal(t, "AX1", commentErr.IssueKey)
	assert.Len(t, server.RequestsTo("/api/issues/do_transition"), 1)
	assert.Len(t, server.RequestsTo("/api/issues/add_comment"), 2, "every comment attempted")
}

func TestUpdateIssueResolutionSkipsEmptyComments(t *testing.T) {
	tests := []struct {
		name         string
		comments     []sonarqube.Comment
		note         string
		wantComments []string
	}{
		{
			name:     "empty comment without note",
			comments: []sonarqube.Comment{{HTMLText: ""}, {HTMLText: "  "}},
		},
		{
			name:         "empty comment between others",
			comments:     []sonarqube.Comment{{HTMLText: "first"}, {HTMLText: ""}, {HTMLText: "last"}},
			wantComments: []string{"first", "last"},
		},
		{
			name:         "empty comment with note",
			comments:     []sonarqube.Comment{{HTMLText: ""}},
			note:         "(copy from proj-a)",
			wantComments: []string{"(copy from proj-a)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockServer()
			defer server.Close()
			client, _ := newTestClient(t, server)

			err := client.UpdateIssueResolution(context.Background(), "AX1", sonarqube.ResolutionWontFix, tt.comments, tt.note)
			require.NoError(t, err)

			posted := server.RequestsTo("/api/issues/add_comment")
			require.Len(t, posted, len(tt.wantComments))
			for i, want := range tt.wantComments {
				assert.Equal(t, want, posted[i].Form.Get("text"))
			}
			assert.Len(t, server.RequestsTo("/api/issues/do_transition"), 1)
		})
	}
}

func TestAssignIssue(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	client, _ := newTestClient(t, server)

	require.NoError(t, client.AssignIssue(context.Background(), "AX1", "alice"))

	writes := server.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "/api/issues/assign", writes[0].Path)
	assert.Equal(t, "AX1", writes[0].Form.Get("issue"))
	assert.Equal(t, "alice", writes[0].Form.Get("assignee"))
}

func TestAssignIssueErrors(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	client, _ := newTestClient(t, server)
	ctx := context.Background()

	assert.ErrorIs(t, client.AssignIssue(ctx, "AX1", ""), sonarqube.ErrInvalidArgument)
	assert.ErrorIs(t, client.AssignIssue(ctx, "", "alice"), sonarqube.ErrInvalidArgument)
	assert.Empty(t, server.Requests())

	server.FailPath("/api/issues/assign", http.StatusNotFound)
	err := client.AssignIssue(ctx, "AX1", "ghost")
	var statusErr *sonarqube.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
