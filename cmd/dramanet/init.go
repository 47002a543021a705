package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
	"github.com/ersonp/dramanet/internal/infrastructure/relationaldb/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a dramanet workspace",
		Long:  "Creates a .dramanet directory with default configuration, an empty network registry and the SQLite schema.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := handlers.NewInitHandler(openStore).Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	fmt.Fprintf(out, "Created %s\n", result.NetworksPath)
	fmt.Fprintf(out, "Database: %s\n", result.DatabasePath)
	fmt.Fprintln(out, "Dramanet initialized successfully!")
	return nil
}

func openStore(path string) (ports.NetworkStore, error) {
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
	if err != nil {
		return nil, err
	}
	return repo, nil
}
