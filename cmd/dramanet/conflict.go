package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/format"
)

func newConflictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflict",
		Short: "Manage conflicts",
	}

	cmd.AddCommand(
		newConflictAddCmd(),
		newConflictRemoveCmd(),
		newConflictListCmd(),
		newConflictPhaseCmd(),
		newConflictAdvanceCmd(),
		newConflictTouchCmd(),
		newConflictMembersCmd("link", "Link relationships to a conflict", "relationship-id"),
		newConflictMembersCmd("unlink", "Unlink relationships from a conflict", "relationship-id"),
		newConflictMembersCmd("involve", "Add characters to a conflict", "character-id"),
		newConflictMembersCmd("release", "Remove characters from a conflict", "character-id"),
	)

	return cmd
}

func newConflictAddCmd() *cobra.Command {
	var (
		c        entities.Conflict
		subject  string
		scope    string
		phase    string
		involved []string
		related  []string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a conflict",
		Long: `Adds a conflict between existing characters.

Subjects: value, resource, power, identity, relationship, information, survival, other.
Scopes: personal, interpersonal (default), societal.
Phases: latent (default), escalating, climactic, resolving, resolved.

Examples:
  dramanet conflict add "The Crown" --involve hamlet,claudius --subject power --strength 8 --link r1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
			c.Subject = entities.ConflictSubject(subject)
			c.Scope = entities.Scope(scope)
			c.Phase = entities.Phase(phase)
			c.InvolvedCharacters = involved
			c.RelatedRelationships = related
			return withNetwork(func(deps *Deps, network string) error {
				added, err := deps.Conflicts.HandleAdd(cmd.Context(), network, c)
				if err != nil {
					return fmt.Errorf("adding conflict: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added conflict: %s (%s, %s)\n", added.Name, added.ID, added.Phase)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&c.ID, "id", "", "Conflict id")
	cmd.Flags().StringVarP(&c.Description, "description", "d", "", "Conflict description")
	cmd.Flags().StringVar(&subject, "subject", string(entities.SubjectOther), "Contested subject")
	cmd.Flags().StringVar(&scope, "scope", "", "Conflict scope")
	cmd.Flags().StringVar(&phase, "phase", "", "Conflict phase")
	cmd.Flags().IntVarP(&c.Strength, "strength", "s", 5, "Strength from 1 to 10")
	cmd.Flags().StringSliceVarP(&involved, "involve", "i", nil, "Involved character ids (comma separated)")
	cmd.Flags().StringSliceVarP(&related, "link", "l", nil, "Related relationship ids (comma separated)")
	_ = cmd.MarkFlagRequired("involve")

	return cmd
}

func newConflictRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <conflict-id>",
		Short: "Remove a conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Conflicts.HandleRemove(cmd.Context(), network, args[0]); err != nil {
					return fmt.Errorf("removing conflict: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed conflict: %s\n", args[0])
				return nil
			})
		},
	}
}

func newConflictListCmd() *cobra.Command {
	var phase string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				conflicts, err := deps.Conflicts.HandleList(cmd.Context(), network, entities.Phase(phase))
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), conflicts, func(m format.Mode) string {
					return format.Conflicts(conflicts, m)
				})
			})
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "Only conflicts in this phase")

	return cmd
}

func newConflictPhaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phase <conflict-id> <phase>",
		Short: "Move a conflict to a phase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Conflicts.HandleSetPhase(cmd.Context(), network, args[0], entities.Phase(args[1])); err != nil {
					return fmt.Errorf("updating conflict: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Conflict %s is now %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newConflictAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <conflict-id>",
		Short: "Move a conflict to its next phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				next, err := deps.Conflicts.HandleAdvance(cmd.Context(), network, args[0])
				if err != nil {
					return fmt.Errorf("advancing conflict: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Conflict %s is now %s\n", args[0], next)
				return nil
			})
		},
	}
}

func newConflictTouchCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "touch <conflict-id>",
		Short: "Record activity on a conflict",
		Long:  "Appends a timestamp to the conflict's activity history. Stale-conflict detection uses the latest one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTime(at)
			if err != nil {
				return err
			}
			return withNetwork(func(deps *Deps, network string) error {
				if err := deps.Conflicts.HandleTouch(cmd.Context(), network, args[0], when); err != nil {
					return fmt.Errorf("touching conflict: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Touched conflict: %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Time of the activity (RFC 3339 or YYYY-MM-DD, default now)")

	return cmd
}

// newConflictMembersCmd builds the link, unlink, involve and release
// subcommands, which share a shape.
func newConflictMembersCmd(verb, short, member string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <conflict-id> <%s>...", verb, member),
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(func(deps *Deps, network string) error {
				ctx := cmd.Context()
				id, ids := args[0], args[1:]

				var err error
				switch verb {
				case "link":
					err = deps.Conflicts.HandleLink(ctx, network, id, ids...)
				case "unlink":
					err = deps.Conflicts.HandleUnlink(ctx, network, id, ids...)
				case "involve":
					err = deps.Conflicts.HandleInvolve(ctx, network, id, ids...)
				case "release":
					err = deps.Conflicts.HandleRelease(ctx, network, id, ids...)
				}
				if err != nil {
					return fmt.Errorf("updating conflict: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated conflict %s: %s %s\n", id, verb, format.List(ids))
				return nil
			})
		},
	}
}

// parseTime accepts RFC 3339 timestamps and plain dates. Empty means zero.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or YYYY-MM-DD)", s)
	}
	return t, nil
}
