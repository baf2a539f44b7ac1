package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/nupack/pkg/platform"
)

// NewProfileCmd creates the profile command with subcommands.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect platform profiles",
		Long:  "Parse platform profiles and check whether a package built for one profile can be used from another",
	}

	cmd.AddCommand(
		newProfileParseCmd(),
		newProfileCompatCmd(),
		newProfileListCmd(),
	)

	return cmd
}

// profileView is the printable form of a profile.
type profileView struct {
	Input   string   `json:"input,omitempty" yaml:"input,omitempty"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Compact string   `json:"compact" yaml:"compact"`
	Targets []string `json:"targets" yaml:"targets"`
}

func newProfileView(input string, p *platform.Profile) profileView {
	v := profileView{Input: input, Name: p.Name(), Compact: p.String()}
	for _, t := range p.Targets() {
		v.Targets = append(v.Targets, t.String())
	}
	return v
}

func newProfileParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse PROFILE...",
		Short: "Parse profile names",
		Long: `Parse compact profiles such as "net45+sl4", portable folder names such as
"portable-net45+win8", full portable framework names and registered profile
names such as "Profile7".`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProfileParse,
	}
}

func runProfileParse(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	views := make([]profileView, 0, len(args))
	for _, arg := range args {
		p, err := e.profiles.Parse(arg)
		if err != nil {
			return err
		}
		views = append(views, newProfileView(arg, p))
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, views); done || err != nil {
		return err
	}
	for _, v := range views {
		_, _ = fmt.Fprintf(out, "%s: %s\n", v.Input, v.Compact)
		for _, t := range v.Targets {
			_, _ = fmt.Fprintf(out, "  %s\n", t)
		}
	}
	return nil
}

func newProfileCompatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compat PACKAGE_PROFILE TARGET_PROFILE",
		Short: "Check profile compatibility",
		Long:  "Report whether a package built for PACKAGE_PROFILE can be used by a project targeting TARGET_PROFILE",
		Args:  cobra.ExactArgs(2),
		RunE:  runProfileCompat,
	}
}

type compatView struct {
	Package    string `json:"package" yaml:"package"`
	Target     string `json:"target" yaml:"target"`
	Compatible bool   `json:"compatible" yaml:"compatible"`
}

func runProfileCompat(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	pkg, err := e.profiles.Parse(args[0])
	if err != nil {
		return err
	}
	target, err := e.profiles.Parse(args[1])
	if err != nil {
		return err
	}

	view := compatView{Package: pkg.String(), Target: target.String(), Compatible: pkg.IsCompatibleWith(target)}
	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, view); done || err != nil {
		return err
	}
	verdict := "compatible"
	if !view.Compatible {
		verdict = "not compatible"
	}
	_, _ = fmt.Fprintf(out, "%s -> %s: %s\n", view.Package, view.Target, verdict)
	return nil
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered profiles",
		Long:  "List the named profiles of the built-in table and the configured profiles file",
		RunE:  runProfileList,
	}
}

func runProfileList(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	names := e.profiles.Names()
	views := make([]profileView, 0, len(names))
	for _, name := range names {
		p, ok := e.profiles.Lookup(name)
		if !ok {
			continue
		}
		views = append(views, newProfileView("", p))
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, views); done || err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tPROFILE")
	for _, v := range views {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", v.Name, v.Compact)
	}
	return tw.Flush()
}
