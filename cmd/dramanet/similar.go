package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/format"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Embed character profiles into the vector database",
		Long: `Embeds every character's name, description and profile fields and
stores them in the network's Qdrant collection, replacing earlier entries.
Requires a running Qdrant and an embedder API key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfileHandler(func(h *handlers.ProfileHandler) error {
				count, err := h.HandleIndex(cmd.Context(), globalNetwork)
				if err != nil {
					return fmt.Errorf("indexing profiles: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d character profiles\n", count)
				return nil
			})
		},
	}
}

func newSimilarCmd() *cobra.Command {
	var (
		limit int
		query string
	)

	cmd := &cobra.Command{
		Use:   "similar [character-id]",
		Short: "Find characters with similar profiles",
		Long: `Lists the characters whose indexed profiles are closest to the given
character, or to a free-text --query. Run "dramanet index" first.

Examples:
  dramanet similar hamlet -n hamlet
  dramanet similar -n hamlet --query "grieving heir who doubts himself"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (query != "") {
				return errors.New("give either a character id or --query")
			}
			return withProfileHandler(func(h *handlers.ProfileHandler) error {
				var (
					result *handlers.SimilarResult
					err    error
				)
				if query != "" {
					result, err = h.HandleSearch(cmd.Context(), globalNetwork, query, limit)
				} else {
					result, err = h.HandleSimilar(cmd.Context(), globalNetwork, args[0], limit)
				}
				if err != nil {
					return fmt.Errorf("searching profiles: %w", err)
				}
				return render(cmd.OutOrStdout(), result, func(m format.Mode) string {
					return format.Matches(result.Matches, m)
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSimilarLimit, "Maximum number of matches")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Free-text description to search for")

	return cmd
}
