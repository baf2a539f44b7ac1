package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/config"
	"github.com/glorpus-work/nupack/pkg/errutils"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and modify nupack configuration settings and package sources",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
		newConfigSourceCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration settings and package sources",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	return cmd
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration key to a specific value. Keys: " + fmt.Sprint(config.SettingKeys()),
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Get the value of a specific configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

type sourceView struct {
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path" yaml:"path"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type configView struct {
	Settings map[string]string `json:"settings" yaml:"settings"`
	Sources  []sourceView      `json:"sources" yaml:"sources"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	view := configView{Settings: cfg.ToMap(), Sources: make([]sourceView, 0, len(cfg.Sources))}
	for _, src := range cfg.Sources {
		view.Sources = append(view.Sources, sourceView{Name: src.Name, Path: src.Path, Enabled: src.Enabled})
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, view); done || err != nil {
		return err
	}

	keys := make([]string, 0, len(view.Settings))
	for key := range view.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "SETTING\tVALUE")
	_, _ = fmt.Fprintln(tabWriter, "-------\t-----")
	for _, key := range keys {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", key, view.Settings[key])
	}
	_ = tabWriter.Flush()

	_, _ = fmt.Fprintf(out, "\nSources (%d):\n", len(view.Sources))
	for _, src := range view.Sources {
		status := "enabled"
		if !src.Enabled {
			status = "disabled"
		}
		_, _ = fmt.Fprintf(out, "  %s: %s (%s)\n", src.Name, src.Path, status)
	}

	return nil
}

func runConfigSet(key, value string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.SetValue(key, value); err != nil {
		return fmt.Errorf("failed to set configuration value: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}

	logger.Success("Configuration updated", logger.Fields{"key": key, "value": value})
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := cfg.GetValue(key)
	if err != nil {
		return fmt.Errorf("failed to get configuration value: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigInit(force bool) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		return errutils.ErrConfigFileExistsWithPath(configPath)
	}

	if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save default configuration: %w", err)
	}

	logger.Success("Configuration file created", logger.Fields{"path": configPath})
	return nil
}

func saveConfig(cfg *config.Config) error {
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

func newConfigSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage package sources",
		Long:  "Add, remove, enable and disable the package source folders",
	}

	var disabled bool
	add := &cobra.Command{
		Use:   "add NAME PATH",
		Short: "Add a package source",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return editSources(func(cfg *config.Config) error {
				return cfg.AddSource(args[0], args[1], !disabled)
			}, "Source added", args[0])
		},
	}
	add.Flags().BoolVar(&disabled, "disabled", false, "Add the source disabled")

	remove := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a package source",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return editSources(func(cfg *config.Config) error {
				if !cfg.RemoveSource(args[0]) {
					return errutils.ErrSourceNotFoundWithName(args[0])
				}
				return nil
			}, "Source removed", args[0])
		},
	}

	cmd.AddCommand(add, remove, newSourceToggleCmd("enable", "Enable a package source", true), newSourceToggleCmd("disable", "Disable a package source", false))
	return cmd
}

func newSourceToggleCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return editSources(func(cfg *config.Config) error {
				if !cfg.EnableSource(args[0], enabled) {
					return errutils.ErrSourceNotFoundWithName(args[0])
				}
				return nil
			}, "Source updated", args[0])
		},
	}
}

func editSources(edit func(*config.Config) error, msg, name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := edit(cfg); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	logger.Success(msg, logger.Fields{"source": name})
	return nil
}
