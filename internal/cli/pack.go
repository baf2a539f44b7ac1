package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/fsutil"
)

// NewPackCmd creates the pack command.
func NewPackCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "pack DIR",
		Short: "Build a package from a folder",
		Long: `Build a package archive from DIR. The folder must hold exactly one manifest
at its root; every other file is packed as content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = "."
			}
			if err := os.MkdirAll(outputDir, fsutil.DirModeDefault); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			path, err := e.archives.Pack(cmd.Context(), args[0], outputDir)
			if err != nil {
				return err
			}
			logger.Success("Package created", logger.Fields{"path": path})
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Directory for the package file (defaults to the working directory)")

	return cmd
}
