package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/project"
	"github.com/glorpus-work/nupack/pkg/version"
)

// NewRepoCmd creates the repo command with subcommands.
func NewRepoCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage a package source",
		Long:  "List, search, add and remove packages of a configured source (the first enabled source unless --source is given)",
	}
	cmd.PersistentFlags().StringVar(&source, "source", "", "Source name (defaults to the first enabled source)")

	cmd.AddCommand(
		newRepoListCmd(&source),
		newRepoSearchCmd(&source),
		newRepoAddCmd(&source),
		newRepoRemoveCmd(&source),
		newRepoUpdatesCmd(&source),
	)

	return cmd
}

// packageView is the printable form of a package and its derived data.
type packageView struct {
	ID            string    `json:"id" yaml:"id"`
	Version       string    `json:"version" yaml:"version"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	Size          int64     `json:"size" yaml:"size"`
	Hash          string    `json:"hash" yaml:"hash"`
	HashAlgorithm string    `json:"hash_algorithm" yaml:"hash_algorithm"`
	Published     time.Time `json:"published" yaml:"published"`
	Prerelease    bool      `json:"prerelease" yaml:"prerelease"`
	PURL          string    `json:"purl" yaml:"purl"`
	Path          string    `json:"path" yaml:"path"`
}

func newPackageView(p *model.Package) packageView {
	v := packageView{
		ID:          p.Identity.ID,
		Version:     p.Identity.Version.String(),
		Description: p.Description,
		PURL:        p.Identity.PURL(),
		Path:        p.Path,
	}
	if d := p.Derived; d != nil {
		v.Size = d.Size
		v.Hash = d.Hash
		v.HashAlgorithm = d.HashAlgorithm
		v.Published = d.Published
		v.Prerelease = d.IsPrerelease
		v.Path = d.FullPath
	}
	return v
}

func printPackages(cmd *cobra.Command, pkgs []*model.Package) error {
	views := make([]packageView, len(pkgs))
	for i, p := range pkgs {
		views[i] = newPackageView(p)
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, views); done || err != nil {
		return err
	}
	if len(views) == 0 {
		_, _ = fmt.Fprintln(out, "No packages found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tVERSION\tSIZE\tHASH\tPURL\tDESCRIPTION")
	for _, v := range views {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			v.ID, v.Version, v.Size, truncate(v.Hash, HashDisplayLength), v.PURL, truncate(v.Description, MaxDescriptionLength))
	}
	return tw.Flush()
}

func newRepoListCmd(source *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List packages",
		Long:  "List every package of the source with its size, hash and package URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			repo, err := e.openServer(*source)
			if err != nil {
				return err
			}
			pkgs, err := repo.GetPackagesWithDerivedData(cmd.Context())
			if err != nil {
				return err
			}
			return printPackages(cmd, pkgs)
		},
	}
}

func newRepoSearchCmd(source *string) *cobra.Command {
	var prerelease bool

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search packages",
		Long:  "Search package ids, titles, descriptions and authors for any word of TERM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			repo, err := e.openServer(*source)
			if err != nil {
				return err
			}
			pkgs, err := repo.Search(cmd.Context(), args[0], prerelease || e.cfg.Settings.Prerelease)
			if err != nil {
				return err
			}
			return printPackages(cmd, pkgs)
		},
	}
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prerelease versions")

	return cmd
}

func newRepoAddCmd(source *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE",
		Short: "Add a package file",
		Long:  "Copy a package file into the source under its canonical file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			repo, err := e.openServer(*source)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			meta, err := repo.AddPackage(cmd.Context(), f)
			if err != nil {
				return err
			}
			logger.Success("Package added", logger.Fields{"package": meta.Identity.String(), "source": repo.Name()})
			return nil
		},
	}
}

func newRepoRemoveCmd(source *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID VERSION",
		Short: "Remove a package",
		Long:  "Delete one package version from the source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[1])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			repo, err := e.openServer(*source)
			if err != nil {
				return err
			}
			if err := repo.RemovePackage(cmd.Context(), args[0], v); err != nil {
				return err
			}
			logger.Success("Package removed", logger.Fields{"package": args[0] + " " + v.String(), "source": repo.Name()})
			return nil
		},
	}
}

func newRepoUpdatesCmd(source *string) *cobra.Command {
	var (
		prerelease  bool
		allVersions bool
		projectFile string
		targetText  string
	)

	cmd := &cobra.Command{
		Use:   "updates",
		Short: "List available updates",
		Long:  "List newer versions in the source of the packages the project references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			repo, err := e.openServer(*source)
			if err != nil {
				return err
			}

			if projectFile == "" {
				projectFile = e.cfg.Settings.ProjectFile
			}
			store, err := project.Load(projectFile)
			if err != nil {
				return err
			}
			installed, err := store.InstalledReferences(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]model.PackageIdentity, len(installed))
			for i, meta := range installed {
				ids[i] = meta.Identity
			}

			if targetText == "" {
				targetText = e.cfg.Settings.TargetProfile
			}
			var target *platform.Profile
			if targetText != "" {
				if target, err = e.profiles.Parse(targetText); err != nil {
					return err
				}
			}

			pkgs, err := repo.GetUpdates(cmd.Context(), ids, prerelease || e.cfg.Settings.Prerelease, allVersions, target)
			if err != nil {
				return err
			}
			return printPackages(cmd, pkgs)
		},
	}
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prerelease versions")
	cmd.Flags().BoolVar(&allVersions, "all-versions", false, "List every newer version, not only the highest")
	cmd.Flags().StringVar(&projectFile, "project", "", "Project reference file (defaults to config)")
	cmd.Flags().StringVar(&targetText, "target", "", "Target platform profile (defaults to config)")

	return cmd
}
