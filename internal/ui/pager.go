package ui

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls pager behavior
type PagerOptions struct {
	// NoPager disables the pager for this command (--no-input, --json)
	NoPager bool
}

// shouldUsePager determines if output should be piped to a pager.
// Returns false if:
// - NoPager option is set
// - SQ_NO_PAGER environment variable is set
// - w is not stdout attached to a TTY
func shouldUsePager(w io.Writer, opts PagerOptions) bool {
	if opts.NoPager {
		return false
	}

	if os.Getenv("SQ_NO_PAGER") != "" {
		return false
	}

	f, ok := w.(*os.File)
	return ok && f == os.Stdout && IsTerminal(f)
}

// getPagerCommand returns the pager command to use.
// Checks SQ_PAGER, then PAGER, defaults to "less".
func getPagerCommand() string {
	if pager := os.Getenv("SQ_PAGER"); pager != "" {
		return pager
	}
	if pager := os.Getenv("PAGER"); pager != "" {
		return pager
	}
	return "less"
}

// getTerminalHeight returns the height of the terminal in lines.
// Returns 0 if unable to determine (not a TTY).
func getTerminalHeight() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}

	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}

// contentHeight counts the number of lines in the content.
func contentHeight(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// ToPager writes content to w, through a pager when w is an interactive
// stdout and the content is taller than the terminal.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	if !shouldUsePager(w, opts) {
		_, err := io.WriteString(w, content)
		return err
	}

	// Content fits in terminal, no pager needed
	termHeight := getTerminalHeight()
	if termHeight > 0 && contentHeight(content) <= termHeight-1 {
		_, err := io.WriteString(w, content)
		return err
	}

	// Parse pager command (may include arguments like "less -R")
	parts := strings.Fields(getPagerCommand())
	if len(parts) == 0 {
		_, err := io.WriteString(w, content)
		return err
	}

	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 - pager command is user-configurable
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// -R: Allow ANSI color codes
	// -F: Quit if content fits on one screen
	// -X: Don't clear screen on exit
	if os.Getenv("LESS") == "" {
		cmd.Env = append(os.Environ(), "LESS=-RFX")
	} else {
		cmd.Env = os.Environ()
	}

	return cmd.Run()
}
