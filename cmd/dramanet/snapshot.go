package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/format"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage snapshots of a network",
	}

	cmd.AddCommand(
		newSnapshotCreateCmd(),
		newSnapshotListCmd(),
		newSnapshotRestoreCmd(),
	)

	return cmd
}

func newSnapshotCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <label>",
		Short: "Capture the network under a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				snap, err := deps.Snapshots.HandleCreate(cmd.Context(), network, args[0])
				if err != nil {
					return fmt.Errorf("creating snapshot: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created snapshot %q at %s\n", snap.Label, snap.CreatedAt.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				snaps, err := deps.Snapshots.HandleList(cmd.Context(), network)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), snaps, func(m format.Mode) string {
					return format.Snapshots(snaps, m)
				})
			})
		},
	}
}

func newSnapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <label>",
		Short: "Replace the network's contents with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				n, err := deps.Snapshots.HandleRestore(cmd.Context(), network, args[0])
				if err != nil {
					return fmt.Errorf("restoring snapshot: %w", err)
				}
				chars, rels, conflicts := n.Counts()
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %q: %d characters, %d relationships, %d conflicts\n",
					network, args[0], chars, rels, conflicts)
				return nil
			})
		},
	}
}
