package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	setupPath  string
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qupulsectl",
		Short: "qupulse - quantum pulse compilation toolkit",
		Long: `qupulsectl compiles pulse templates into hardware programs and manages
them on arbitrary waveform generators.

Features:
  - Symbolic pulse templates with parameter and channel mappings
  - Cooperative sequencing into instruction programs
  - Sampling pipeline with amplitude/offset scaling
  - Device workflow backed by a SQLite template store`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&setupPath, "setup", "c", "", "setup file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newSampleCommand())
	rootCmd.AddCommand(newUploadCommand())
	rootCmd.AddCommand(newProgramsCommand())
	rootCmd.AddCommand(newArmCommand())

	return rootCmd
}
