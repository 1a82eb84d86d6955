package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqtriage/sqsync/internal/sonarqube"
	"github.com/sqtriage/sqsync/internal/sonarqube/testutil"
	"github.com/sqtriage/sqsync/internal/triage"
)

// TestMain isolates the command tests from config files, SQ_* variables and
// terminal color settings on the developer's machine.
func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "sqsync-cmd-tests-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	oldWD, _ := os.Getwd()
	_ = os.Chdir(tmp)
	_ = os.Setenv("HOME", tmp)
	_ = os.Setenv("USERPROFILE", tmp)
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg-config"))
	_ = os.Setenv("NO_COLOR", "1")
	_ = os.Unsetenv("CLICOLOR_FORCE")
	_ = os.Unsetenv("SQ_DEBUG")
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "SQ_") || strings.HasPrefix(name, "OTEL_") {
			_ = os.Unsetenv(name)
		}
	}

	code := m.Run()

	_ = os.Chdir(oldWD)
	_ = os.RemoveAll(tmp)
	os.Exit(code)
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func serverArgs(server *testutil.MockServer, args ...string) []string {
	return append([]string{"--url", server.URL(), "--username", "admin", "--password", "admin"}, args...)
}

func issueAt(key, project string, r sonarqube.Resolution) sonarqube.Issue {
	return sonarqube.Issue{
		Key:        key,
		Rule:       "go:S1192",
		Component:  project + ":pkg/store.go",
		Message:    "Define a constant instead of duplicating this literal",
		TextRange:  &sonarqube.TextRange{StartLine: 42, EndLine: 42, StartOffset: 7, EndOffset: 19},
		Resolution: r,
		Author:     "alice@example.com",
	}
}

func copyFixture(t *testing.T) *testutil.MockServer {
	t.Helper()
	server := testutil.NewMockServer()
	t.Cleanup(server.Close)

	src := issueAt("S1", "core", sonarqube.ResolutionFalsePositive)
	src.Comments = []sonarqube.Comment{{HTMLText: "Generated code"}}
	server.SetIssues("core", src)
	server.SetIssues("core-fork", issueAt("D1", "core-fork", sonarqube.ResolutionNone))
	return server
}

func TestCopyResolutionCommand(t *testing.T) {
	server := copyFixture(t)

	res := runCLI(t, serverArgs(server,
		"copy-resolution",
		"--source-project-key", "core",
		"--destination-project-keys", "core-fork",
		"--add-note",
	)...)
	require.Equal(t, 0, res.code, res.stderr)

	writes := server.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, "/api/issues/do_transition", writes[0].Path)
	assert.Equal(t, "falsepositive", writes[0].Form.Get("transition"))
	assert.Equal(t, "D1", writes[0].Form.Get("issue"))
	assert.Equal(t, "Generated code (copy from core)", writes[1].Form.Get("text"))

	assert.Contains(t, res.stderr, "INFO  sqsync v"+Version)
	assert.Contains(t, res.stderr, "Copying resolutions to project core-fork")
	assert.Contains(t, res.stderr, "Updating issue resolution to FALSE-POSITIVE")
	assert.Contains(t, res.stdout, "CopyResolution core finished")
	assert.Regexp(t, `Updated:\s+1`, res.stdout)
}

func TestCopyResolutionCommandDryRun(t *testing.T) {
	server := copyFixture(t)

	res := runCLI(t, serverArgs(server,
		"copy", "--dry-run",
		"--source-project-key", "core",
		"--destination-project-keys", "core-fork",
	)...)
	require.Equal(t, 0, res.code, res.stderr)

	assert.Empty(t, server.Writes())
	assert.Contains(t, res.stdout, "[dry run]")
	assert.Regexp(t, `Updated:\s+1`, res.stdout)
}

func TestCopyResolutionCommandJSON(t *testing.T) {
	server := copyFixture(t)

	res := runCLI(t, serverArgs(server,
		"copy-resolution", "--json",
		"--source-project-key", "core",
		"--destination-project-keys", "core-fork,core-legacy",
	)...)
	require.Equal(t, 0, res.code, res.stderr)

	var result triage.Result
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &result))
	assert.Equal(t, triage.OperationCopyResolution, result.Operation)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.Updated)
	assert.Equal(t, 1, result.Stats.NotFound, "core-legacy has no issues")
}

func TestCopyResolutionCommandReport(t *testing.T) {
	server := copyFixture(t)

	res := runCLI(t, serverArgs(server,
		"copy-resolution", "--report", "--dry-run",
		"--source-project-key", "core",
		"--destination-project-keys", "core-fork",
	)...)
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "# CopyResolution: core")
	assert.Contains(t, res.stdout, "| updated | core-fork | `S1` → `D1` | go:S1192 | pkg/store.go:42 | FALSE-POSITIVE |")
}

func TestAutoAssignCommand(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	mapped := issueAt("I1", "core", sonarqube.ResolutionNone)
	unmapped := issueAt("I2", "core", sonarqube.ResolutionNone)
	unmapped.Author = "mallory@example.com"
	server.SetIssues("core", mapped, unmapped)

	res := runCLI(t, serverArgs(server,
		"auto-assign",
		"--source-project-key", "core",
		"--user-map", "alice@example.com=a.smith",
	)...)
	require.Equal(t, 0, res.code, res.stderr)

	writes := server.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "/api/issues/assign", writes[0].Path)
	assert.Equal(t, "I1", writes[0].Form.Get("issue"))
	assert.Equal(t, "a.smith", writes[0].Form.Get("assignee"))
	assert.Contains(t, res.stderr, "Unable to assign issue authored by unmapped user 'mallory@example.com'")
	assert.Regexp(t, `Unmapped:\s+1`, res.stdout)
}

func TestRunCommandOperation(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetIssues("core", issueAt("I1", "core", sonarqube.ResolutionNone))

	t.Run("from argument", func(t *testing.T) {
		res := runCLI(t, serverArgs(server,
			"run", "auto-assign", "--dry-run",
			"--source-project-key", "core",
			"--user-map", "alice@example.com=a.smith",
		)...)
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "AutoAssign core")
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("SQ_OPERATION", "AutoAssign")
		t.Setenv("SQ_USER_MAP", "alice@example.com=a.smith")
		res := runCLI(t, serverArgs(server, "run", "--dry-run", "--source-project-key", "core")...)
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "AutoAssign core")
	})

	t.Run("unknown operation", func(t *testing.T) {
		res := runCLI(t, serverArgs(server, "run", "purge")...)
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Error: unknown operation 'purge'")
	})

	t.Run("no operation", func(t *testing.T) {
		res := runCLI(t, serverArgs(server, "run", "--source-project-key", "core")...)
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "No operation specified")
	})
}

func TestInvalidConfigurationMakesNoRequests(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()

	res := runCLI(t, serverArgs(server, "copy-resolution", "--source-project-key", "core")...)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "ERROR List of destination project keys is empty.")
	assert.Contains(t, res.stderr, "Error: invalid configuration")
	assert.Empty(t, server.Requests())
}

func TestJSONErrorOutput(t *testing.T) {
	res := runCLI(t, "auto-assign", "--json", "--no-input")
	assert.Equal(t, 1, res.code)

	// Log lines precede the JSON object on stderr.
	start := strings.Index(res.stderr, "{")
	require.GreaterOrEqual(t, start, 0, res.stderr)
	var obj map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stderr[start:]), &obj))
	assert.Equal(t, "invalid_config", obj["code"])
	assert.Contains(t, obj["error"], "No user map defined.")
}

func TestTransportFailureExitsNonZero(t *testing.T) {
	server := testutil.NewMockServer()
	url := server.URL()
	server.Close()

	res := runCLI(t,
		"copy-resolution",
		"--url", url, "--username", "admin", "--password", "admin",
		"--source-project-key", "core",
		"--destination-project-keys", "core-fork",
	)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error:")
}

func TestConfigFileFlag(t *testing.T) {
	server := copyFixture(t)
	path := filepath.Join(t.TempDir(), "sqsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`
operation: CopyResolution
url: %s
username: admin
password: admin
source:
  project_key: core
destination:
  project_keys: [core-fork]
dry_run: true
`, server.URL())), 0o600))

	res := runCLI(t, "run", "--config", path, "-v")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "DEBUG Using config file "+path)
	assert.Empty(t, server.Writes())
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, "version")
	require.Equal(t, 0, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "sqsync version "+Version))

	res = runCLI(t, "version", "--json")
	require.Equal(t, 0, res.code)
	var obj map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &obj))
	assert.Equal(t, Version, obj["version"])

	res = runCLI(t, "-V")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "sqsync version "+Version)
}

func TestQuietSuppressesSummary(t *testing.T) {
	server := copyFixture(t)

	res := runCLI(t, serverArgs(server,
		"copy-resolution", "-q", "--dry-run",
		"--source-project-key", "core",
		"--destination-project-keys", "core-fork",
	)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.NotContains(t, res.stderr, "INFO")
}
