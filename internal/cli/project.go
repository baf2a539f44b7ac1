package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/project"
	"github.com/glorpus-work/nupack/pkg/repository"
	"github.com/glorpus-work/nupack/pkg/version"
)

// NewProjectCmd creates the project command with subcommands.
func NewProjectCmd() *cobra.Command {
	var projectFile string

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage project package references",
		Long:  "List and add the package references of a project",
	}
	cmd.PersistentFlags().StringVar(&projectFile, "project", "", "Project reference file (defaults to config)")

	cmd.AddCommand(
		newProjectListCmd(&projectFile),
		newProjectAddCmd(&projectFile),
	)

	return cmd
}

func openProject(e *env, path string) (*project.Store, error) {
	if path == "" {
		path = e.cfg.Settings.ProjectFile
	}
	return project.Load(path)
}

type referenceView struct {
	ID           string   `json:"id" yaml:"id"`
	Version      string   `json:"version" yaml:"version"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

func newProjectListCmd(projectFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List package references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			store, err := openProject(e, *projectFile)
			if err != nil {
				return err
			}

			installed, err := store.InstalledReferences(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]referenceView, 0, len(installed))
			for _, meta := range installed {
				v := referenceView{ID: meta.Identity.ID, Version: meta.Identity.Version.String()}
				for _, d := range meta.Dependencies {
					v.Dependencies = append(v.Dependencies, d.ID+" "+d.Spec.String())
				}
				views = append(views, v)
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, views); done || err != nil {
				return err
			}
			if len(views) == 0 {
				_, _ = fmt.Fprintln(out, "No package references")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tw, "PACKAGE\tVERSION\tDEPENDENCIES")
			for _, v := range views {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Version, strings.Join(v.Dependencies, ", "))
			}
			return tw.Flush()
		},
	}
}

func newProjectAddCmd(projectFile *string) *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "add ID VERSION",
		Short: "Add a package reference",
		Long: `Reference one exact package version. The package must exist in the
enabled sources; its declared dependencies are recorded with the reference.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[1])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			store, err := openProject(e, *projectFile)
			if err != nil {
				return err
			}
			source, err := e.openAggregate(sources)
			if err != nil {
				return err
			}

			meta, err := source.FindPackage(cmd.Context(), repository.Query{
				ID:              args[0],
				Spec:            version.Exact(v),
				AllowPrerelease: v.IsPrerelease(),
			})
			if err != nil {
				return err
			}

			store.Add(&project.Reference{
				ID:           meta.Identity.ID,
				Version:      meta.Identity.Version,
				Dependencies: meta.Dependencies,
			})
			if err := store.Save(cmd.Context()); err != nil {
				return err
			}
			logger.Success("Reference added", logger.Fields{"package": meta.Identity.String(), "project": store.Path()})
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Only query these sources (repeatable)")

	return cmd
}
