package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/format"
)

func newNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "Manage networks",
		RunE:  runNetworksList,
	}

	cmd.AddCommand(
		newNetworksListCmd(),
		newNetworksCreateCmd(),
		newNetworksDeleteCmd(),
		newNetworksShowCmd(),
		newNetworksHistoryCmd(),
	)

	return cmd
}

func newNetworksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all networks",
		Args:  cobra.NoArgs,
		RunE:  runNetworksList,
	}
}

func runNetworksList(cmd *cobra.Command, args []string) error {
	return withDeps(func(deps *Deps) error {
		result, err := deps.Networks.HandleList(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing networks: %w", err)
		}
		if result.Total == 0 && globalFormat != "json" {
			fmt.Fprintln(cmd.OutOrStdout(), "No networks. Create one with 'dramanet networks create <name>' or 'dramanet import <file>'.")
			return nil
		}
		return render(cmd.OutOrStdout(), result, func(m format.Mode) string {
			return format.Networks(result.Networks, m)
		})
	})
}

func newNetworksCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(deps *Deps) error {
				n, err := deps.Networks.HandleCreate(cmd.Context(), args[0], description)
				if err != nil {
					return fmt.Errorf("creating network: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created network: %s\n", n.Name())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Network description")

	return cmd
}

func newNetworksDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a network with its snapshots and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete %s without --force", args[0])
			}
			return withDeps(func(deps *Deps) error {
				if err := deps.Networks.HandleDelete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("deleting network: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted network: %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")

	return cmd
}

func newNetworksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show the contents of a network",
		Long:  "Shows the characters, relationships and conflicts of a network. Defaults to --network.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := networkArg(args)
			if err != nil {
				return err
			}
			return withDeps(func(deps *Deps) error {
				n, err := deps.Networks.HandleShow(cmd.Context(), name)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), n.State(), func(m format.Mode) string {
					return format.Network(n, m)
				})
			})
		},
	}
}

func newNetworksHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "Show recent changes to a network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := networkArg(args)
			if err != nil {
				return err
			}
			return withDeps(func(deps *Deps) error {
				entries, err := deps.Networks.HandleHistory(cmd.Context(), name, limit)
				if err != nil {
					return fmt.Errorf("reading history: %w", err)
				}
				return render(cmd.OutOrStdout(), entries, func(m format.Mode) string {
					return format.Audit(entries, m)
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Maximum number of entries")

	return cmd
}

// networkArg returns the first positional argument, or --network.
func networkArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return requireNetwork()
}
