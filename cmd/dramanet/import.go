package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/format"
	"github.com/ersonp/dramanet/internal/infrastructure/parsers"
)

func newImportCmd() *cobra.Command {
	var opts handlers.ImportOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a network document",
		Long: `Imports a network from a JSON, YAML or CSV document.

The whole document is validated before anything is stored; every rejected
element is reported. CSV files hold one relationship per row
(source,target,type,strength[,id,nature,mutual,description]) and need --name.

Examples:
  dramanet import hamlet.yaml
  dramanet import edges.csv --name macbeth
  dramanet import hamlet.json --replace
  dramanet import hamlet.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Name == "" {
				opts.Name = globalNetwork
			}
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "doc-format", "auto", "Document format: "+strings.Join(parsers.Formats, ", ")+" or auto")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Network name (overrides the document; defaults to --network)")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "Replace an existing network of the same name")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, path string, opts handlers.ImportOptions) error {
	return withDeps(func(deps *Deps) error {
		result, err := deps.Import.Handle(cmd.Context(), path, opts)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}

		out := cmd.OutOrStdout()
		if globalFormat == "json" {
			if err := format.WriteJSON(out, result); err != nil {
				return err
			}
		} else {
			printImportResult(cmd, result, opts.DryRun)
		}

		if len(result.Errors) > 0 {
			return fmt.Errorf("%d invalid entries in %s, nothing imported", len(result.Errors), path)
		}
		return nil
	})
}

func printImportResult(cmd *cobra.Command, result *handlers.ImportResult, dryRun bool) {
	out := cmd.OutOrStdout()
	for _, e := range result.Errors {
		if e.ID != "" {
			fmt.Fprintf(out, "  invalid %s %s: %s\n", e.Entity, e.ID, e.Message)
		} else {
			fmt.Fprintf(out, "  invalid %s: %s\n", e.Entity, e.Message)
		}
	}
	switch {
	case len(result.Errors) > 0:
	case dryRun:
		fmt.Fprintf(out, "Valid: %s (%d characters, %d relationships, %d conflicts)\n",
			result.Network, result.Characters, result.Relationships, result.Conflicts)
	default:
		fmt.Fprintf(out, "Imported %s: %d characters, %d relationships, %d conflicts\n",
			result.Network, result.Characters, result.Relationships, result.Conflicts)
	}
}

func newExportCmd() *cobra.Command {
	var docFormat string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export a network document",
		Long: `Exports the network named by --network. Without a file the document is
written to stdout in --doc-format (yaml by default).

Examples:
  dramanet export -n hamlet hamlet.yaml
  dramanet export -n hamlet --doc-format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := requireNetwork()
			if err != nil {
				return err
			}
			return withDeps(func(deps *Deps) error {
				if len(args) == 0 {
					f := docFormat
					if f == "" {
						f = "yaml"
					}
					return deps.Import.HandleExport(cmd.Context(), network, cmd.OutOrStdout(), f)
				}
				if err := deps.Import.HandleExportFile(cmd.Context(), network, args[0], docFormat); err != nil {
					return fmt.Errorf("exporting %s: %w", network, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", network, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&docFormat, "doc-format", "", "Document format: "+strings.Join(parsers.Formats, ", ")+" (default from file extension)")

	return cmd
}
