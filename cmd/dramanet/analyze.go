package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/domain/services"
	"github.com/ersonp/dramanet/internal/format"
)

// analysisFlags are shared by every command that runs the engines.
type analysisFlags struct {
	snapshot string
	asOf     string
	narrate  int
}

func (f *analysisFlags) register(cmd *cobra.Command, narrate bool) {
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Analyze a snapshot instead of the current contents")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "Reference time for stale-conflict detection (RFC 3339 or YYYY-MM-DD, default now)")
	if narrate {
		cmd.Flags().IntVar(&f.narrate, "narrate", 0, "Narrate the top N actions through the configured LLM (--narrate=N)")
		cmd.Flags().Lookup("narrate").NoOptDefVal = strconv.Itoa(DefaultNarrateLimit)
	}
}

func (f *analysisFlags) options() (handlers.AnalysisOptions, error) {
	asOf, err := parseTime(f.asOf)
	if err != nil {
		return handlers.AnalysisOptions{}, err
	}
	if f.narrate < 0 {
		return handlers.AnalysisOptions{}, fmt.Errorf("--narrate must not be negative, got %d", f.narrate)
	}
	return handlers.AnalysisOptions{Snapshot: f.snapshot, AsOf: asOf, Narrate: f.narrate}, nil
}

// withAnalysis provides the AnalysisHandler, with narration only when asked.
func withAnalysis(narrate bool, fn func(*handlers.AnalysisHandler, string) error) error {
	network, err := requireNetwork()
	if err != nil {
		return err
	}
	if narrate {
		return withNarratedAnalysis(func(h *handlers.AnalysisHandler) error {
			return fn(h, network)
		})
	}
	return withDeps(func(deps *Deps) error {
		return fn(deps.Analysis, network)
	})
}

func newDiagnoseCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Detect structural problems in the network",
		Long: `Runs every diagnostic over the network: isolated and weakly connected
characters, weak relationships and conflicts, abandoned and stale conflicts,
overloaded characters, duplicates, disconnected components and bottlenecks.

Examples:
  dramanet diagnose -n hamlet
  dramanet diagnose -n hamlet --snapshot act-2 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return withAnalysis(false, func(h *handlers.AnalysisHandler, network string) error {
				report, err := h.HandleDiagnose(cmd.Context(), network, opts)
				if err != nil {
					return fmt.Errorf("diagnosing network: %w", err)
				}
				return render(cmd.OutOrStdout(), report, func(m format.Mode) string {
					return format.Diagnostics(report, m)
				})
			})
		},
	}

	flags.register(cmd, false)

	return cmd
}

func newTreatCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "treat",
		Short: "Recommend treatments for the network's problems",
		Long: `Diagnoses the network and turns every issue into prioritized actions,
quick fixes, structural revisions and development suggestions.

With --narrate=N, the top N actions are also rewritten as prose by the
configured LLM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return withAnalysis(opts.Narrate > 0, func(h *handlers.AnalysisHandler, network string) error {
				recs, narrated, err := h.HandleTreat(cmd.Context(), network, opts)
				if err != nil {
					return fmt.Errorf("recommending treatments: %w", err)
				}
				out := struct {
					*services.Recommendations
					Narrated []services.NarratedAction `json:"narrated,omitempty"`
				}{recs, narrated}
				return render(cmd.OutOrStdout(), out, func(m format.Mode) string {
					return joinSections(format.Treatment(recs, m), format.Narrated(narrated, m))
				})
			})
		},
	}

	flags.register(cmd, true)

	return cmd
}

func newEfficiencyCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "efficiency",
		Short: "Measure how economically the network is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return withAnalysis(false, func(h *handlers.AnalysisHandler, network string) error {
				metrics, err := h.HandleEfficiency(cmd.Context(), network, opts)
				if err != nil {
					return fmt.Errorf("measuring efficiency: %w", err)
				}
				return render(cmd.OutOrStdout(), metrics, func(m format.Mode) string {
					return format.Efficiency(metrics, m)
				})
			})
		},
	}

	flags.register(cmd, false)

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run diagnostics, efficiency and treatment together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return withAnalysis(opts.Narrate > 0, func(h *handlers.AnalysisHandler, network string) error {
				result, err := h.Handle(cmd.Context(), network, opts)
				if err != nil {
					return fmt.Errorf("analyzing network: %w", err)
				}
				return render(cmd.OutOrStdout(), result, func(m format.Mode) string {
					return joinSections(
						format.Diagnostics(result.Diagnostics, m),
						format.Efficiency(result.Efficiency, m),
						format.Treatment(result.Treatment, m),
						format.Narrated(result.Narrated, m),
					)
				})
			})
		},
	}

	flags.register(cmd, true)

	return cmd
}

func newCompareCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "compare <snapshot>",
		Short: "Compare a snapshot with the current network",
		Long: `Analyzes a snapshot and the current contents side by side and lists
the structural issues resolved or introduced since the snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return withAnalysis(false, func(h *handlers.AnalysisHandler, network string) error {
				cmp, err := h.HandleCompare(cmd.Context(), network, args[0], opts)
				if err != nil {
					return fmt.Errorf("comparing snapshot: %w", err)
				}
				return render(cmd.OutOrStdout(), cmp, func(m format.Mode) string {
					return comparison(cmp, m)
				})
			})
		},
	}

	cmd.Flags().StringVar(&flags.asOf, "as-of", "", "Reference time for stale-conflict detection (RFC 3339 or YYYY-MM-DD, default now)")

	return cmd
}

func comparison(c *handlers.ComparisonResult, m format.Mode) string {
	t := format.NewTable(m)
	t.Title(fmt.Sprintf("%s: %s vs current", c.Network, c.Snapshot))
	t.Header("Metric", "Snapshot", "Current", "Change")
	t.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	t.Row("Health", format.Score(c.HealthBefore), format.Score(c.HealthAfter), signed(c.HealthAfter-c.HealthBefore))
	t.Row("Efficiency", format.Score(c.EfficiencyBefore), format.Score(c.EfficiencyAfter), signed(c.EfficiencyAfter-c.EfficiencyBefore))
	t.Row("Issues", c.IssuesBefore, c.IssuesAfter, fmt.Sprintf("%+d", c.IssuesAfter-c.IssuesBefore))

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n\nResolved: ")
	b.WriteString(format.List(c.Resolved))
	b.WriteString("\nIntroduced: ")
	b.WriteString(format.List(c.Introduced))
	return b.String()
}

func signed(v float64) string {
	return fmt.Sprintf("%+.1f", v)
}

// joinSections separates non-empty rendered sections with a blank line.
func joinSections(sections ...string) string {
	var parts []string
	for _, s := range sections {
		if s = strings.TrimRight(s, "\n"); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
