package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sqtriage/sqsync/internal/debug"
	"github.com/sqtriage/sqsync/internal/triage"
	"github.com/sqtriage/sqsync/internal/ui"
)

// outputJSON outputs data as pretty-printed JSON to w.
func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// writeResult prints the run result in the format selected by flags.
func (a *app) writeResult(result *triage.Result) error {
	switch {
	case a.jsonOutput:
		return outputJSON(a.stdout, result)
	case a.report:
		return ui.ToPager(a.stdout, ui.RenderMarkdown(buildReport(result)), ui.PagerOptions{NoPager: a.noInput})
	case debug.IsQuiet():
		return nil
	default:
		_, err := io.WriteString(a.stdout, formatSummary(result))
		return err
	}
}

// formatSummary renders the short human summary printed after a run.
func formatSummary(r *triage.Result) string {
	var sb strings.Builder

	title := fmt.Sprintf("%s %s", r.Operation, r.Project)
	if r.Branch != "" {
		title += " (branch " + r.Branch + ")"
	}
	if r.DryRun {
		title += " [dry run]"
	}

	sb.WriteString("\n")
	switch {
	case !r.Success:
		fmt.Fprintf(&sb, "%s %s failed: %s\n", ui.RenderFailIcon(), title, r.Error)
	case r.Stats.Errors > 0:
		fmt.Fprintf(&sb, "%s %s finished with %d rejected writes\n", ui.RenderWarnIcon(), title, r.Stats.Errors)
	default:
		fmt.Fprintf(&sb, "%s %s finished\n", ui.RenderPassIcon(), title)
	}
	sb.WriteString(ui.RenderSeparator())
	sb.WriteString("\n")

	for _, line := range summaryLines(r) {
		fmt.Fprintf(&sb, "  %-18s %d\n", line.label+":", line.value)
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "%s %s\n", ui.RenderWarnIcon(), ui.RenderWarn(w))
	}
	return sb.String()
}

type summaryLine struct {
	label string
	value int
}

func summaryLines(r *triage.Result) []summaryLine {
	s := r.Stats
	lines := []summaryLine{{"Fetched", s.Fetched}}
	switch r.Operation {
	case triage.OperationCopyResolution:
		lines = append(lines,
			summaryLine{"Matched", s.Matched},
			summaryLine{"Updated", s.Updated},
			summaryLine{"Already resolved", s.AlreadyResolved},
			summaryLine{"Not found", s.NotFound},
		)
		if s.Skipped > 0 {
			lines = append(lines, summaryLine{"Skipped", s.Skipped})
		}
	case triage.OperationAutoAssign:
		lines = append(lines,
			summaryLine{"Assigned", s.Assigned},
			summaryLine{"Unmapped", s.Unmapped},
		)
	}
	if s.Errors > 0 {
		lines = append(lines, summaryLine{"Errors", s.Errors})
	}
	return lines
}
