package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/format"
)

func newRelateCmd() *cobra.Command {
	var (
		id          string
		nature      string
		strength    int
		mutual      bool
		description string
	)

	cmd := &cobra.Command{
		Use:   "relate <source> <type> <target>",
		Short: "Create a relationship between two characters",
		Long: `Creates a directed relationship between two existing characters.

Built-in types: love, enmity, kinship, rivalry, alliance, mentorship, other.
Natures: positive, negative, ambivalent (default).

Examples:
  dramanet relate hamlet enmity claudius --strength 9 --nature negative
  dramanet relate hamlet alliance horatio --strength 7 --mutual`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := entities.Relationship{
				ID:          id,
				Source:      args[0],
				Type:        entities.RelationType(args[1]),
				Target:      args[2],
				Nature:      entities.Nature(nature),
				Strength:    strength,
				Mutual:      mutual,
				Description: description,
			}
			return withNetwork(func(deps *Deps, network string) error {
				rel, err := deps.Relationships.HandleCreate(cmd.Context(), network, r)
				if err != nil {
					return fmt.Errorf("creating relationship: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created relationship: %s\n", rel.ID)
				fmt.Fprintf(out, "  %s -[%s %d]-> %s\n", rel.Source, rel.Type, rel.Strength, rel.Target)
				if rel.Mutual {
					fmt.Fprintln(out, "  (mutual)")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Relationship id")
	cmd.Flags().StringVar(&nature, "nature", "", "Relationship nature (positive, negative, ambivalent)")
	cmd.Flags().IntVarP(&strength, "strength", "s", 5, "Strength from 1 to 10")
	cmd.Flags().BoolVar(&mutual, "mutual", false, "The relationship holds in both directions")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Relationship description")

	cmd.AddCommand(
		newRelateDeleteCmd(),
		newRelateStrengthCmd(),
		newRelateListCmd(),
	)

	return cmd
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relationship-id>",
		Short: "Delete a relationship",
		Long:  "Deletes a relationship no conflict links to.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Relationships.HandleDelete(cmd.Context(), network, args[0]); err != nil {
					return fmt.Errorf("deleting relationship: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted relationship: %s\n", args[0])
				return nil
			})
		},
	}
}

func newRelateStrengthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strength <relationship-id> <1-10>",
		Short: "Change a relationship's strength",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			strength, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid strength %q: %w", args[1], err)
			}
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Relationships.HandleSetStrength(cmd.Context(), network, args[0], strength); err != nil {
					return fmt.Errorf("updating relationship: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set strength of %s to %d\n", args[0], strength)
				return nil
			})
		},
	}
}

func newRelateListCmd() *cobra.Command {
	var opts handlers.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				rels, err := deps.Relationships.HandleList(cmd.Context(), network, opts)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), rels, func(m format.Mode) string {
					return format.Relationships(rels, m)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Character, "character", "c", "", "Only relationships touching this character")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Only relationships of this type")

	return cmd
}
