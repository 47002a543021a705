// Package main provides the entry point for the dramanet CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalNetwork string
	globalFormat  string
	logLevel      string
	logFormat     string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dramanet",
		Short:         "Diagnose and treat the structure of a story's character network",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, logFormat)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globalNetwork, "network", "n", "", "Network to operate on")
	flags.StringVarP(&globalFormat, "format", "f", "table", "Output format (table, markdown, json)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(
		newInitCmd(),
		newNetworksCmd(),
		newImportCmd(),
		newExportCmd(),
		newCharacterCmd(),
		newRelateCmd(),
		newConflictCmd(),
		newSnapshotCmd(),
		newDiagnoseCmd(),
		newTreatCmd(),
		newEfficiencyCmd(),
		newAnalyzeCmd(),
		newCompareCmd(),
		newIndexCmd(),
		newSimilarCmd(),
	)

	return rootCmd
}
