package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/hooks"
	"github.com/glorpus-work/nupack/pkg/orchestrator"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/project"
	"github.com/glorpus-work/nupack/pkg/resolver"
)

type updateOptions struct {
	safe               bool
	minor              bool
	prerelease         bool
	updateDependencies bool
	dryRun             bool
	projectFile        string
	sources            []string
	target             string
}

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	var opts updateOptions

	cmd := &cobra.Command{
		Use:   "update [ID...]",
		Short: "Update package references",
		Long: `Update the package references of a project to the newest versions the
update policy allows. Without ids every reference is updated, dependencies
first. A failure on one package does not stop the others; the command exits
non-zero when any package failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.safe, "safe", false, "Only take patch updates (same major.minor)")
	cmd.Flags().BoolVar(&opts.minor, "minor", false, "Only take minor updates (same major)")
	cmd.Flags().BoolVar(&opts.prerelease, "prerelease", false, "Allow prerelease versions")
	cmd.Flags().BoolVar(&opts.updateDependencies, "update-dependencies", true, "Check the new version's dependencies against the project")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Resolve and print actions without changing the project")
	cmd.Flags().StringVar(&opts.projectFile, "project", "", "Project reference file (defaults to config)")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Only query these sources (repeatable)")
	cmd.Flags().StringVar(&opts.target, "target", "", "Target platform profile (defaults to config)")
	cmd.MarkFlagsMutuallyExclusive("safe", "minor")

	return cmd
}

func runUpdate(cmd *cobra.Command, ids []string, opts updateOptions) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	settings := e.cfg.Settings
	if !cmd.Flags().Changed("update-dependencies") {
		opts.updateDependencies = settings.UpdateDependencies
	}

	mode := e.cfg.UpdateMode()
	switch {
	case opts.safe:
		mode = resolver.Safe
	case opts.minor:
		mode = resolver.Minor
	}

	targetText := opts.target
	if targetText == "" {
		targetText = settings.TargetProfile
	}
	var target *platform.Profile
	if targetText != "" {
		if target, err = e.profiles.Parse(targetText); err != nil {
			return err
		}
	}

	projectFile := opts.projectFile
	if projectFile == "" {
		projectFile = settings.ProjectFile
	}
	store, err := project.Load(projectFile)
	if err != nil {
		return err
	}

	source, err := e.openAggregate(opts.sources)
	if err != nil {
		return err
	}

	orch := &orchestrator.Orchestrator{
		Source:  source,
		Project: store,
		Hooks: orchestrator.Hooks{OnEvent: func(ev orchestrator.Event) {
			logger.Debug("Update progress", logger.Fields{"phase": ev.Phase, "package": ev.ID, "message": ev.Msg})
		}},
	}
	if files := settings.Hooks.Files(); len(files) > 0 {
		manager := hooks.NewHookManager()
		if err := hooks.LoadHookFiles(manager, files); err != nil {
			return err
		}
		orch.Scripts = manager
	}

	report, err := orch.Run(cmd.Context(), orchestrator.Request{
		Mode:               mode,
		IDs:                ids,
		AllowPrerelease:    opts.prerelease || settings.Prerelease,
		UpdateDependencies: opts.updateDependencies,
		Target:             target,
		DryRun:             opts.dryRun,
	})
	if err != nil {
		return err
	}
	for name, state := range source.BreakerStates() {
		if state != "closed" {
			logger.Warn("Package source circuit is open", logger.Fields{"source": name})
		}
	}

	if err := printReport(cmd, report); err != nil {
		return err
	}
	if report.Failed() {
		return fmt.Errorf("%d package(s) failed to update", report.Count(orchestrator.Failed))
	}
	return nil
}

func printReport(cmd *cobra.Command, report *orchestrator.Report) error {
	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, report); done || err != nil {
		return err
	}

	if len(report.Results) == 0 {
		_, _ = fmt.Fprintln(out, "No package references to update")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PACKAGE\tCURRENT\tTARGET\tOUTCOME\tDETAIL")
	for _, res := range report.Results {
		target := "-"
		if res.Target != nil {
			target = res.Target.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.ID, res.Current, target, res.Outcome, res.Error)
	}
	_ = tw.Flush()

	if report.Saved {
		_, _ = fmt.Fprintf(out, "\n%d reference(s) updated\n", report.Count(orchestrator.Updated))
	}
	return nil
}
