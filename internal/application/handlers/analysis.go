package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/services"
	"github.com/ersonp/dramanet/internal/logging"
)

// AnalysisHandler runs the analysis engines over a stored network.
type AnalysisHandler struct {
	networks  *services.NetworkService
	narration *services.NarrationService
	cfg       services.AnalysisConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalysisHandler creates a new AnalysisHandler. narration may be nil, in
// which case narration requests are rejected.
func NewAnalysisHandler(networks *services.NetworkService, narration *services.NarrationService, cfg services.AnalysisConfig) *AnalysisHandler {
	return &AnalysisHandler{
		networks:  networks,
		narration: narration,
		cfg:       cfg,
		logger:    logging.New("analysis"),
		now:       time.Now,
	}
}

// AnalysisOptions selects what to analyze.
type AnalysisOptions struct {
	// Snapshot analyzes a snapshot instead of the current contents.
	Snapshot string
	// AsOf is the reference time for stale-conflict detection. Zero means now.
	AsOf time.Time
	// Narrate expands the top N prioritized actions into prose. Zero skips narration.
	Narrate int
}

// AnalysisResult holds every report produced for one network.
type AnalysisResult struct {
	Network     string                      `json:"network"`
	Snapshot    string                      `json:"snapshot,omitempty"`
	Diagnostics *services.DiagnosticsReport `json:"diagnostics"`
	Efficiency  *services.EfficiencyMetrics `json:"efficiency"`
	Treatment   *services.Recommendations   `json:"treatment"`
	Narrated    []services.NarratedAction   `json:"narrated,omitempty"`
}

// HandleDiagnose runs the diagnostics engine.
func (h *AnalysisHandler) HandleDiagnose(ctx context.Context, network string, opts AnalysisOptions) (*services.DiagnosticsReport, error) {
	n, cfg, err := h.prepare(ctx, network, opts)
	if err != nil {
		return nil, err
	}
	return services.NewDiagnosticsService(cfg).RunAllDiagnostics(n)
}

// HandleEfficiency runs the efficiency engine.
func (h *AnalysisHandler) HandleEfficiency(ctx context.Context, network string, opts AnalysisOptions) (*services.EfficiencyMetrics, error) {
	n, cfg, err := h.prepare(ctx, network, opts)
	if err != nil {
		return nil, err
	}
	return services.NewEfficiencyService(cfg).AnalyzeEfficiency(n)
}

// HandleTreat runs diagnostics followed by the treatment engine.
func (h *AnalysisHandler) HandleTreat(ctx context.Context, network string, opts AnalysisOptions) (*services.Recommendations, []services.NarratedAction, error) {
	n, cfg, err := h.prepare(ctx, network, opts)
	if err != nil {
		return nil, nil, err
	}
	report, err := services.NewDiagnosticsService(cfg).RunAllDiagnostics(n)
	if err != nil {
		return nil, nil, err
	}
	recs, err := services.NewTreatmentService(cfg).AnalyzeAndRecommendTreatments(n, report)
	if err != nil {
		return nil, nil, err
	}
	narrated, err := h.narrate(ctx, n, recs, opts.Narrate)
	if err != nil {
		return nil, nil, err
	}
	return recs, narrated, nil
}

// Handle runs diagnostics and efficiency concurrently, then treatment.
func (h *AnalysisHandler) Handle(ctx context.Context, network string, opts AnalysisOptions) (*AnalysisResult, error) {
	n, cfg, err := h.prepare(ctx, network, opts)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{Network: network, Snapshot: opts.Snapshot}

	// The engines only read the network.
	var g errgroup.Group
	g.Go(func() error {
		report, err := services.NewDiagnosticsService(cfg).RunAllDiagnostics(n)
		if err != nil {
			return fmt.Errorf("diagnostics: %w", err)
		}
		result.Diagnostics = report
		return nil
	})
	g.Go(func() error {
		metrics, err := services.NewEfficiencyService(cfg).AnalyzeEfficiency(n)
		if err != nil {
			return fmt.Errorf("efficiency: %w", err)
		}
		result.Efficiency = metrics
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs, err := services.NewTreatmentService(cfg).AnalyzeAndRecommendTreatments(n, result.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("treatment: %w", err)
	}
	result.Treatment = recs

	result.Narrated, err = h.narrate(ctx, n, recs, opts.Narrate)
	if err != nil {
		return nil, err
	}

	h.logger.Info("network analyzed",
		"network", network,
		"snapshot", opts.Snapshot,
		"health", result.Diagnostics.OverallHealthScore,
		"efficiency", result.Efficiency.OverallEfficiencyScore,
		"actions", recs.TotalRecommendations,
	)
	return result, nil
}

// ComparisonResult contrasts a snapshot with the current contents.
type ComparisonResult struct {
	Network          string   `json:"network"`
	Snapshot         string   `json:"snapshot"`
	HealthBefore     float64  `json:"health_before"`
	HealthAfter      float64  `json:"health_after"`
	EfficiencyBefore float64  `json:"efficiency_before"`
	EfficiencyAfter  float64  `json:"efficiency_after"`
	IssuesBefore     int      `json:"issues_before"`
	IssuesAfter      int      `json:"issues_after"`
	Resolved         []string `json:"resolved"`
	Introduced       []string `json:"introduced"`
}

// HandleCompare analyzes a snapshot and the current contents and reports
// which structural issues were resolved or introduced since.
func (h *AnalysisHandler) HandleCompare(ctx context.Context, network, snapshot string, opts AnalysisOptions) (*ComparisonResult, error) {
	before := opts
	before.Snapshot = snapshot
	before.Narrate = 0
	after := opts
	after.Snapshot = ""
	after.Narrate = 0

	var old, cur *AnalysisResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		old, err = h.Handle(gctx, network, before)
		return err
	})
	g.Go(func() error {
		var err error
		cur, err = h.Handle(gctx, network, after)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	oldIDs := issueIDs(old.Diagnostics)
	curIDs := issueIDs(cur.Diagnostics)
	return &ComparisonResult{
		Network:          network,
		Snapshot:         snapshot,
		HealthBefore:     old.Diagnostics.OverallHealthScore,
		HealthAfter:      cur.Diagnostics.OverallHealthScore,
		EfficiencyBefore: old.Efficiency.OverallEfficiencyScore,
		EfficiencyAfter:  cur.Efficiency.OverallEfficiencyScore,
		IssuesBefore:     len(oldIDs),
		IssuesAfter:      len(curIDs),
		Resolved:         missingFrom(oldIDs, curIDs),
		Introduced:       missingFrom(curIDs, oldIDs),
	}, nil
}

// prepare loads the network (or one of its snapshots) and fixes the
// reference time.
func (h *AnalysisHandler) prepare(ctx context.Context, network string, opts AnalysisOptions) (*entities.Network, services.AnalysisConfig, error) {
	cfg := h.cfg
	cfg.AsOf = opts.AsOf
	if cfg.AsOf.IsZero() {
		cfg.AsOf = h.now().UTC()
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfg, err
	}

	n, err := h.networks.Load(ctx, network)
	if err != nil {
		return nil, cfg, err
	}
	if opts.Snapshot == "" {
		return n, cfg, nil
	}

	for _, snap := range n.Snapshots() {
		if snap.Label == opts.Snapshot {
			sn, err := snap.Network()
			if err != nil {
				return nil, cfg, fmt.Errorf("rebuilding snapshot %s: %w", snap.Label, err)
			}
			return sn, cfg, nil
		}
	}
	return nil, cfg, entities.NewNotFoundError("snapshot", opts.Snapshot)
}

func (h *AnalysisHandler) narrate(ctx context.Context, n *entities.Network, recs *services.Recommendations, limit int) ([]services.NarratedAction, error) {
	if limit <= 0 {
		return nil, nil
	}
	if h.narration == nil {
		return nil, errors.New("narration is not configured")
	}
	return h.narration.Narrate(ctx, n, recs, limit)
}

func issueIDs(r *services.DiagnosticsReport) []string {
	ids := make([]string, len(r.StructuralIssues))
	for i, issue := range r.StructuralIssues {
		ids[i] = issue.ID
	}
	return ids
}

// missingFrom returns the ids of a that are not in b, in a's order.
func missingFrom(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	out := []string{}
	for _, id := range a {
		if !in[id] {
			out = append(out, id)
		}
	}
	return out
}
