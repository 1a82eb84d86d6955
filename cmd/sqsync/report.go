package main

import (
	"fmt"
	"strings"

	"github.com/sqtriage/sqsync/internal/triage"
	"github.com/sqtriage/sqsync/internal/ui"
)

// buildReport renders a run result as markdown for ui.RenderMarkdown.
func buildReport(r *triage.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s: %s\n\n", r.Operation, r.Project)
	if r.Branch != "" {
		fmt.Fprintf(&sb, "Branch `%s`. ", r.Branch)
	}
	if r.DryRun {
		sb.WriteString("**Dry run**, nothing was written. ")
	}
	if !r.Success {
		fmt.Fprintf(&sb, "**Failed:** %s", ui.SingleLine(r.Error))
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Metric | Count |\n|---|---:|\n")
	for _, line := range summaryLines(r) {
		fmt.Fprintf(&sb, "| %s | %d |\n", line.label, line.value)
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "- %s\n", ui.SingleLine(w))
		}
	}

	if len(r.Actions) > 0 {
		sb.WriteString("\n## Actions\n\n")
		sb.WriteString("| Outcome | Project | Issue | Rule | Location | Detail |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, act := range r.Actions {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
				act.Kind, act.Project, issueRef(act), escapeCell(act.Rule),
				escapeCell(act.Location), escapeCell(actionDetail(act)))
		}
	}
	return sb.String()
}

func issueRef(act triage.Action) string {
	if act.TargetKey != "" && act.TargetKey != act.SourceKey {
		return fmt.Sprintf("`%s` → `%s`", act.SourceKey, act.TargetKey)
	}
	return fmt.Sprintf("`%s`", act.SourceKey)
}

func actionDetail(act triage.Action) string {
	switch act.Kind {
	case triage.ActionUpdated, triage.ActionAlreadyResolved:
		return string(act.Resolution)
	case triage.ActionAssigned:
		return act.Assignee
	case triage.ActionUnmapped:
		return "author " + act.Author
	case triage.ActionFailed:
		return act.Error
	default:
		return ""
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(ui.CellText(s), "|", `\|`)
}
