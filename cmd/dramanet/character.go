package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/format"
)

func newCharacterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "Manage characters",
	}

	cmd.AddCommand(
		newCharacterAddCmd(),
		newCharacterRemoveCmd(),
		newCharacterListCmd(),
		newCharacterShowCmd(),
		newCharacterProfileCmd(),
	)

	return cmd
}

func newCharacterAddCmd() *cobra.Command {
	var (
		id          string
		description string
		profile     []string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a character",
		Long: `Adds a character to the network. An id is generated when --id is not given.

Examples:
  dramanet character add Hamlet --id hamlet -p personality_traits="brooding, witty"
  dramanet character add "The Ghost" -d "Hamlet's murdered father"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseProfile(profile)
			if err != nil {
				return err
			}
			c := entities.Character{ID: id, Name: args[0], Description: description, Profile: fields}
			return withNetwork(func(deps *Deps, network string) error {
				added, err := deps.Characters.HandleAdd(cmd.Context(), network, c)
				if err != nil {
					return fmt.Errorf("adding character: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added character: %s (%s)\n", added.Name, added.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Character id")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Character description")
	cmd.Flags().StringArrayVarP(&profile, "profile", "p", nil, "Profile field as key=value (repeatable)")

	return cmd
}

func newCharacterRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a character no relationship or conflict references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Characters.HandleRemove(cmd.Context(), network, args[0]); err != nil {
					return fmt.Errorf("removing character: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed character: %s\n", args[0])
				return nil
			})
		},
	}
}

func newCharacterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List characters with their involvement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				infos, err := deps.Characters.HandleList(cmd.Context(), network)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), infos, func(m format.Mode) string {
					return characterTable(infos, m)
				})
			})
		},
	}
}

func newCharacterShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				info, err := deps.Characters.HandleShow(cmd.Context(), network, args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), info, func(m format.Mode) string {
					return characterDetail(info, m)
				})
			})
		},
	}
}

func newCharacterProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <id> <key=value>...",
		Short: "Set profile fields (an empty value removes the field)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseProfile(args[1:])
			if err != nil {
				return err
			}
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Characters.HandleSetProfile(cmd.Context(), network, args[0], fields); err != nil {
					return fmt.Errorf("updating profile: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d profile field(s) of %s\n", len(fields), args[0])
				return nil
			})
		},
	}
}

// parseProfile parses key=value pairs. Keys are lowercased with spaces
// turned into underscores.
func parseProfile(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid profile field %q (want key=value)", pair)
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields, nil
}

func characterTable(infos []handlers.CharacterInfo, m format.Mode) string {
	t := format.NewTable(m)
	t.Header("ID", "Name", "Relationships", "Conflicts", "Neighbors")
	t.Columns(
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	for _, info := range infos {
		t.Row(info.Character.ID, info.Character.Name, info.Relationships, info.Conflicts, format.List(info.Neighbors))
	}
	return t.String()
}

func characterDetail(info *handlers.CharacterInfo, m format.Mode) string {
	c := info.Character
	t := format.NewTable(m)
	t.Title(c.Name + " (" + c.ID + ")")
	t.Header("Field", "Value")
	t.Columns(format.ColumnConfig{Number: 2, MaxWidth: 70})
	if c.Description != "" {
		t.Row("description", c.Description)
	}
	for _, key := range slices.Sorted(maps.Keys(c.Profile)) {
		t.Row(key, c.Profile[key])
	}
	t.Row("relationships", info.Relationships)
	t.Row("conflicts", info.Conflicts)
	t.Row("neighbors", format.List(info.Neighbors))
	return t.String()
}
