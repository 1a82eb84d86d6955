package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sqtriage/sqsync/internal/config"
	"github.com/sqtriage/sqsync/internal/ui"
)

// interactive reports whether prompts may be shown: both stdin and stdout
// must be terminals and --no-input / --json must be off.
func (a *app) interactive() bool {
	if a.noInput || a.jsonOutput {
		return false
	}
	out, ok := a.stdout.(*os.File)
	return ok && ui.IsTerminal(os.Stdin) && ui.IsTerminal(out)
}

// promptPassword asks for the SonarQube password when none was configured.
func (a *app) promptPassword(s *config.Settings) error {
	if s.Password != "" || !a.interactive() {
		return nil
	}

	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("SonarQube password for %s", s.Username)).
				Description(s.URL).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errRunDeclined
		}
		return fmt.Errorf("password prompt: %w", err)
	}
	s.Password = password
	return nil
}

// confirmRun asks before a run that writes to SonarQube. Dry runs, --yes and
// non-interactive sessions skip the question.
func (a *app) confirmRun(s *config.Settings) error {
	if s.DryRun || a.assumeYes || !a.interactive() {
		return nil
	}

	var target string
	switch s.Operation {
	case config.OperationCopyResolution:
		target = fmt.Sprintf("Copy resolutions from %s to %s?", s.SourceProjectKey, strings.Join(s.DestinationProjectKeys, ", "))
	default:
		target = fmt.Sprintf("Assign open issues of %s to %d mapped users?", s.SourceProjectKey, len(s.UserMap))
	}

	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(target).
				Description("Changes are written to " + s.URL).
				Affirmative("Run").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errRunDeclined
		}
		return fmt.Errorf("confirmation prompt: %w", err)
	}
	if !confirmed {
		return errRunDeclined
	}
	return nil
}
