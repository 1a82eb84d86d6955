package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sqtriage/sqsync/internal/config"
	"github.com/sqtriage/sqsync/internal/sonarqube"
	"github.com/sqtriage/sqsync/internal/telemetry"
	"github.com/sqtriage/sqsync/internal/triage"
)

func (a *app) copyResolutionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "copy-resolution",
		Aliases: []string{"copy"},
		GroupID: "workflows",
		Short:   "Copy FALSE-POSITIVE/WONTFIX resolutions to other projects",
		Long: `Reads every FALSE-POSITIVE and WONTFIX issue of the source project and applies
the same resolution, with its comments, to the matching unresolved issue of each
destination project. Issues match when rule, message, file, start line and start
offset are equal. Issues already resolved in a destination are never changed.`,
		Example: `  sqsync copy-resolution --url https://sonar.example.com --username ci \
    --source-project-key core --destination-project-keys core-fork,core-legacy --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(config.OperationCopyResolution)
		},
	}
}

func (a *app) autoAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "auto-assign",
		Aliases: []string{"assign"},
		GroupID: "workflows",
		Short:   "Assign open, unassigned issues to their authors",
		Long: `Reads every unresolved, unassigned issue of the source project and assigns it to
the SonarQube login mapped to the issue's author. Authors without a mapping are
reported and skipped.`,
		Example: `  sqsync auto-assign --source-project-key core --user-map "alice=a.smith;bob=b.jones"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(config.OperationAutoAssign)
		},
	}
}

func (a *app) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "run [operation]",
		GroupID: "workflows",
		Short:   "Run the operation named in the config file or argument",
		Long: `Runs CopyResolution or AutoAssign. The operation comes from the argument when
given, otherwise from the 'operation' config key ($SQ_OPERATION).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := config.OperationNone
			if len(args) == 1 {
				parsed, err := config.ParseOperation(args[0])
				if err != nil {
					return err
				}
				op = parsed
			}
			return a.execute(op)
		},
	}
}

// execute validates the settings for op and runs the workflow. op overrides
// the configured operation unless it is OperationNone.
func (a *app) execute(op config.Operation) error {
	s := a.settings
	if op != config.OperationNone {
		s.Operation = op
	}

	a.logger.Info(fmt.Sprintf("sqsync v%s (%s)", Version, Build))

	if err := a.promptPassword(s); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, problem := range verr.Problems {
				a.logger.Error(problem)
			}
		}
		return err
	}
	if err := a.confirmRun(s); err != nil {
		return err
	}

	engine := a.newEngine(s)
	ctx := a.rootCtx

	var (
		result *triage.Result
		err    error
	)
	switch s.Operation {
	case config.OperationCopyResolution:
		result, err = engine.CopyResolutions(ctx, triage.CopyOptions{
			SourceProjectKey:       s.SourceProjectKey,
			SourceBranch:           s.SourceBranch,
			DestinationProjectKeys: s.DestinationProjectKeys,
			DestinationBranch:      s.DestinationBranch,
		})
	case config.OperationAutoAssign:
		result, err = engine.AutoAssign(ctx, triage.AssignOptions{
			ProjectKey: s.SourceProjectKey,
			Branch:     s.SourceBranch,
			UserMap:    s.UserMap,
		})
	default:
		return fmt.Errorf("unsupported operation %q", s.Operation)
	}

	if result != nil {
		if werr := a.writeResult(result); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func (a *app) newEngine(s *config.Settings) *triage.Engine {
	httpClient := &http.Client{
		Timeout:   s.HTTPTimeout,
		Transport: telemetry.HTTPTransport(http.DefaultTransport),
	}
	client := sonarqube.NewClient(s.URL, s.Username, s.Password, a.logger).WithHTTPClient(httpClient)

	engine := triage.NewEngine(telemetry.WrapTracker(client), a.logger)
	engine.DryRun = s.DryRun
	engine.AddNote = s.AddNote
	return engine
}
