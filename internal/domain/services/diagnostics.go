package services

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/logging"
)

// Health score weights. They sum to 100 so the score stays in [0,100]
// without clamping when every ratio is at most 1.
const (
	WeightUnanchored = 25.0
	WeightAbandoned  = 20.0
	WeightOverloaded = 15.0
	WeightWeak       = 15.0
	WeightStructural = 15.0
	WeightRedundancy = 10.0
)

// Isolation types.
const (
	IsolationComplete = "completely_isolated"
	IsolationWeak     = "weakly_connected"
)

// Abandonment reasons.
const (
	ReasonNoLinkedRelationships = "no_linked_relationships"
	ReasonStale                 = "stale"
)

// maxSuggestedPartners caps the partner suggestions per isolated character.
const maxSuggestedPartners = 3

// Criticality is a coarse rating derived from the health score.
type Criticality string

const (
	CriticalityHealthy  Criticality = "healthy"
	CriticalityMild     Criticality = "mild"
	CriticalityModerate Criticality = "moderate"
	CriticalitySevere   Criticality = "severe"
	CriticalityCritical Criticality = "critical"
)

// CriticalityFor maps a health score to its criticality level.
func CriticalityFor(score float64) Criticality {
	switch {
	case score >= 85:
		return CriticalityHealthy
	case score >= 70:
		return CriticalityMild
	case score >= 50:
		return CriticalityModerate
	case score >= 30:
		return CriticalitySevere
	default:
		return CriticalityCritical
	}
}

// IsolatedCharacter describes one unanchored character.
type IsolatedCharacter struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	IsolationType     string   `json:"isolation_type"`
	WeakRelationships []string `json:"weak_relationships,omitempty"`
	SuggestedPartners []string `json:"suggested_partners,omitempty"`
}

// IsolatedCharacters lists characters with no relationship and no conflict
// (ids, total_isolated) plus the softer weakly connected and peripheral groups.
type IsolatedCharacters struct {
	IDs                  []string            `json:"ids"`
	TotalIsolated        int                 `json:"total_isolated"`
	WeaklyConnected      []string            `json:"weakly_connected"`
	PeripheralCharacters []string            `json:"peripheral_characters"`
	Details              []IsolatedCharacter `json:"details"`
}

// AbandonedConflict describes one unresolved conflict that lost its footing.
type AbandonedConflict struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Phase        entities.Phase `json:"phase"`
	Reason       string         `json:"reason"`
	DaysInactive int            `json:"days_inactive,omitempty"`
}

// AbandonedConflicts lists unresolved conflicts without linked relationships
// or without recent activity.
type AbandonedConflicts struct {
	IDs            []string            `json:"ids"`
	TotalAbandoned int                 `json:"total_abandoned"`
	Details        []AbandonedConflict `json:"details"`
}

// OverloadedCharacter describes a character carrying too much of the story.
type OverloadedCharacter struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Relationships int    `json:"relationships"`
	Conflicts     int    `json:"conflicts"`
	Load          int    `json:"load"`
}

// OverloadedCharacters lists characters whose load exceeds mean + k*stddev.
type OverloadedCharacters struct {
	IDs             []string              `json:"ids"`
	TotalOverloaded int                   `json:"total_overloaded"`
	Mean            float64               `json:"mean"`
	StdDev          float64               `json:"std_dev"`
	Threshold       float64               `json:"threshold"`
	Skipped         bool                  `json:"skipped,omitempty"`
	Details         []OverloadedCharacter `json:"details"`
}

// WeakConnections lists relationships (ids) and conflicts at or below the
// weak strength threshold. TotalWeak counts both.
type WeakConnections struct {
	IDs           []string `json:"ids"`
	WeakConflicts []string `json:"weak_conflicts"`
	TotalWeak     int      `json:"total_weak"`
	Threshold     int      `json:"threshold"`
}

// RedundancyGroup is a set of entities duplicating each other.
type RedundancyGroup struct {
	Key string   `json:"key"`
	IDs []string `json:"ids"`
}

// RedundancyIssues lists duplicate groups. Each group counts once.
type RedundancyIssues struct {
	RelationshipGroups []RedundancyGroup `json:"relationship_groups"`
	ConflictGroups     []RedundancyGroup `json:"conflict_groups"`
	TotalRedundant     int               `json:"total_redundant"`
}

// StructureAnalysis describes connectivity of the load-bearing graph.
type StructureAnalysis struct {
	ComponentCount         int        `json:"component_count"`
	LargestComponent       []string   `json:"largest_component"`
	DisconnectedComponents [][]string `json:"disconnected_components"`
	DisconnectedCharacters []string   `json:"disconnected_characters"`
	BottleneckCharacters   []string   `json:"bottleneck_characters"`
}

// HealthComponent is one weighted term of the health score.
type HealthComponent struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Population int     `json:"population"`
	Ratio      float64 `json:"ratio"`
	Weight     float64 `json:"weight"`
	Penalty    float64 `json:"penalty"`
}

// DiagnosticsReport is the result of RunAllDiagnostics.
type DiagnosticsReport struct {
	Network              string               `json:"network"`
	CharacterCount       int                  `json:"character_count"`
	RelationshipCount    int                  `json:"relationship_count"`
	ConflictCount        int                  `json:"conflict_count"`
	IsolatedCharacters   IsolatedCharacters   `json:"isolated_characters"`
	AbandonedConflicts   AbandonedConflicts   `json:"abandoned_conflicts"`
	OverloadedCharacters OverloadedCharacters `json:"overloaded_characters"`
	WeakConnections      WeakConnections      `json:"weak_connections"`
	RedundancyIssues     RedundancyIssues     `json:"redundancy_issues"`
	Structure            StructureAnalysis    `json:"structure"`
	StructuralIssues     []StructuralIssue    `json:"structural_issues"`
	HealthBreakdown      []HealthComponent    `json:"health_breakdown"`
	OverallHealthScore   float64              `json:"overall_health_score"`
	CriticalityLevel     Criticality          `json:"criticality_level"`
	Summary              string               `json:"summary"`
}

// DiagnosticsService detects structural weaknesses in a network.
type DiagnosticsService struct {
	cfg    AnalysisConfig
	logger *slog.Logger
}

// NewDiagnosticsService creates a new DiagnosticsService.
func NewDiagnosticsService(cfg AnalysisConfig) *DiagnosticsService {
	return &DiagnosticsService{
		cfg:    cfg,
		logger: logging.New("diagnostics"),
	}
}

// RunAllDiagnostics analyzes the network without modifying it. Findings are
// normal output; errors are returned only for a nil network or an invalid
// configuration.
func (s *DiagnosticsService) RunAllDiagnostics(n *entities.Network) (*DiagnosticsReport, error) {
	if n == nil {
		return nil, entities.NewValidationError("network", "", "network is required")
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating analysis config: %w", err)
	}

	v := newNetworkView(n, s.cfg)
	report := &DiagnosticsReport{
		Network:           n.Name(),
		CharacterCount:    len(v.characters),
		RelationshipCount: len(v.relationships),
		ConflictCount:     len(v.conflicts),
	}

	report.OverloadedCharacters = s.findOverloaded(v)
	report.IsolatedCharacters = s.findIsolated(v, report.OverloadedCharacters.IDs)
	report.AbandonedConflicts = s.findAbandoned(v)
	report.WeakConnections = s.findWeak(v)
	report.RedundancyIssues = findRedundancy(v)
	report.Structure = s.analyzeStructure(v)
	report.StructuralIssues = s.collectIssues(v, report)
	report.HealthBreakdown = healthBreakdown(report)

	score := 100.0
	for _, c := range report.HealthBreakdown {
		score -= c.Penalty
	}
	report.OverallHealthScore = round2(clamp(score, 0, 100))
	report.CriticalityLevel = CriticalityFor(report.OverallHealthScore)
	report.Summary = summarizeDiagnostics(report)

	s.logger.Debug("diagnostics complete",
		"network", report.Network,
		"health", report.OverallHealthScore,
		"issues", len(report.StructuralIssues),
	)
	return report, nil
}

func (s *DiagnosticsService) findOverloaded(v *networkView) OverloadedCharacters {
	out := OverloadedCharacters{IDs: []string{}, Details: []OverloadedCharacter{}}
	if len(v.characters) < s.cfg.OverloadMinCharacters || len(v.characters) == 0 {
		out.Skipped = true
		return out
	}

	loads := make([]float64, len(v.characters))
	for i, c := range v.characters {
		loads[i] = float64(v.load(c.ID))
	}
	mean, std := meanStdDev(loads)
	out.Mean = round2(mean)
	out.StdDev = round2(std)
	threshold := mean + s.cfg.OverloadK*std
	out.Threshold = round2(threshold)

	for _, c := range v.characters {
		load := v.load(c.ID)
		if float64(load) <= threshold {
			continue
		}
		out.IDs = append(out.IDs, c.ID)
		out.Details = append(out.Details, OverloadedCharacter{
			ID:            c.ID,
			Name:          c.Name,
			Relationships: v.strongRelCount[c.ID],
			Conflicts:     v.conflictCount[c.ID],
			Load:          load,
		})
	}
	out.TotalOverloaded = len(out.IDs)
	return out
}

func (s *DiagnosticsService) findIsolated(v *networkView, overloaded []string) IsolatedCharacters {
	out := IsolatedCharacters{
		IDs:                  []string{},
		WeaklyConnected:      []string{},
		PeripheralCharacters: []string{},
		Details:              []IsolatedCharacter{},
	}

	skip := make(map[string]bool, len(overloaded))
	for _, id := range overloaded {
		skip[id] = true
	}

	unanchored := make(map[string]bool)
	for _, c := range v.characters {
		if v.conflictCount[c.ID] == 0 && v.strongRelCount[c.ID] == 0 {
			unanchored[c.ID] = true
		}
	}
	partners := suggestPartners(v, unanchored, skip)

	for _, c := range v.characters {
		switch {
		case v.relCount[c.ID] == 0 && v.conflictCount[c.ID] == 0:
			out.IDs = append(out.IDs, c.ID)
			out.Details = append(out.Details, IsolatedCharacter{
				ID:                c.ID,
				Name:              c.Name,
				IsolationType:     IsolationComplete,
				SuggestedPartners: partnersExcept(partners, c.ID),
			})
		case unanchored[c.ID]:
			var weak []string
			for _, r := range v.relationships {
				if r.Involves(c.ID) {
					weak = append(weak, r.ID)
				}
			}
			out.WeaklyConnected = append(out.WeaklyConnected, c.ID)
			out.Details = append(out.Details, IsolatedCharacter{
				ID:                c.ID,
				Name:              c.Name,
				IsolationType:     IsolationWeak,
				WeakRelationships: weak,
				SuggestedPartners: partnersExcept(partners, c.ID),
			})
		case v.conflictCount[c.ID] == 0:
			out.PeripheralCharacters = append(out.PeripheralCharacters, c.ID)
		}
	}
	out.TotalIsolated = len(out.IDs)
	return out
}

// suggestPartners ranks anchored, non-overloaded characters by ascending
// load so isolated characters are pointed at those with spare capacity.
func suggestPartners(v *networkView, unanchored, overloaded map[string]bool) []string {
	var candidates []string
	for _, c := range v.characters {
		if !unanchored[c.ID] && !overloaded[c.ID] {
			candidates = append(candidates, c.ID)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return v.load(candidates[i]) < v.load(candidates[j])
	})
	return candidates
}

func partnersExcept(ranked []string, self string) []string {
	var out []string
	for _, id := range ranked {
		if id == self {
			continue
		}
		out = append(out, id)
		if len(out) == maxSuggestedPartners {
			break
		}
	}
	return out
}

func (s *DiagnosticsService) findAbandoned(v *networkView) AbandonedConflicts {
	out := AbandonedConflicts{IDs: []string{}, Details: []AbandonedConflict{}}
	for _, c := range v.conflicts {
		if c.Phase == entities.PhaseResolved {
			continue
		}
		entry := AbandonedConflict{ID: c.ID, Name: c.Name, Phase: c.Phase}
		last, touched := c.LastTouched()
		switch {
		case len(c.RelatedRelationships) == 0:
			entry.Reason = ReasonNoLinkedRelationships
		case s.cfg.recencyEnabled() && touched && last.Add(s.cfg.StaleAfter).Before(s.cfg.AsOf):
			entry.Reason = ReasonStale
		default:
			continue
		}
		if s.cfg.recencyEnabled() && touched {
			entry.DaysInactive = int(s.cfg.AsOf.Sub(last).Hours() / 24)
		}
		out.IDs = append(out.IDs, c.ID)
		out.Details = append(out.Details, entry)
	}
	out.TotalAbandoned = len(out.IDs)
	return out
}

func (s *DiagnosticsService) findWeak(v *networkView) WeakConnections {
	out := WeakConnections{IDs: []string{}, WeakConflicts: []string{}, Threshold: s.cfg.WeakStrength}
	for _, r := range v.relationships {
		if s.cfg.isWeak(r.Strength) {
			out.IDs = append(out.IDs, r.ID)
		}
	}
	for _, c := range v.conflicts {
		if s.cfg.isWeak(c.Strength) {
			out.WeakConflicts = append(out.WeakConflicts, c.ID)
		}
	}
	out.TotalWeak = len(out.IDs) + len(out.WeakConflicts)
	return out
}

// relationshipKey identifies duplicate relationships. Mutual relationships
// are undirected, so their endpoints are ordered.
func relationshipKey(r entities.Relationship) string {
	if r.Mutual {
		a, b := r.Source, r.Target
		if b < a {
			a, b = b, a
		}
		return fmt.Sprintf("%s|%s<>%s", r.Type, a, b)
	}
	return fmt.Sprintf("%s|%s>%s", r.Type, r.Source, r.Target)
}

func conflictKey(c entities.Conflict) string {
	ids := append([]string(nil), c.InvolvedCharacters...)
	sort.Strings(ids)
	return fmt.Sprintf("%s|%s", c.Subject, strings.Join(ids, ","))
}

func findRedundancy(v *networkView) RedundancyIssues {
	relKeys := make([]string, len(v.relationships))
	relIDs := make([]string, len(v.relationships))
	for i, r := range v.relationships {
		relKeys[i], relIDs[i] = relationshipKey(r), r.ID
	}
	conflictKeys := make([]string, len(v.conflicts))
	conflictIDs := make([]string, len(v.conflicts))
	for i, c := range v.conflicts {
		conflictKeys[i], conflictIDs[i] = conflictKey(c), c.ID
	}

	out := RedundancyIssues{
		RelationshipGroups: groupDuplicates(relKeys, relIDs),
		ConflictGroups:     groupDuplicates(conflictKeys, conflictIDs),
	}
	out.TotalRedundant = len(out.RelationshipGroups) + len(out.ConflictGroups)
	return out
}

// groupDuplicates groups ids sharing a key. ids must be sorted; groups come
// out ordered by their first id.
func groupDuplicates(keys, ids []string) []RedundancyGroup {
	byKey := make(map[string][]string)
	var order []string
	for i, k := range keys {
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], ids[i])
	}
	groups := []RedundancyGroup{}
	for _, k := range order {
		if len(byKey[k]) > 1 {
			groups = append(groups, RedundancyGroup{Key: k, IDs: byKey[k]})
		}
	}
	return groups
}

func (s *DiagnosticsService) analyzeStructure(v *networkView) StructureAnalysis {
	out := StructureAnalysis{
		LargestComponent:       []string{},
		DisconnectedComponents: [][]string{},
		DisconnectedCharacters: []string{},
		BottleneckCharacters:   []string{},
	}
	if len(v.characters) == 0 {
		return out
	}

	adj := v.structuralGraph(s.cfg)
	components := connectedComponents(v.characters, adj)
	out.ComponentCount = len(components)

	largest := 0
	for i, comp := range components {
		if len(comp) > len(components[largest]) {
			largest = i
		}
	}
	out.LargestComponent = components[largest]

	// Singletons are unanchored characters and are reported by isolation.
	for i, comp := range components {
		if i == largest || len(comp) < 2 {
			continue
		}
		out.DisconnectedComponents = append(out.DisconnectedComponents, comp)
		out.DisconnectedCharacters = append(out.DisconnectedCharacters, comp...)
	}
	sort.Strings(out.DisconnectedCharacters)
	out.BottleneckCharacters = articulationPoints(v.characters, adj)
	return out
}

// connectedComponents returns components with sorted members, ordered by
// their smallest member.
func connectedComponents(chars []entities.Character, adj map[string][]string) [][]string {
	seen := make(map[string]bool, len(chars))
	var components [][]string
	for _, c := range chars {
		if seen[c.ID] {
			continue
		}
		var comp []string
		queue := []string{c.ID}
		seen[c.ID] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp = append(comp, id)
			for _, next := range adj[id] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Strings(comp)
		components = append(components, comp)
	}
	return components
}

// articulationPoints returns the sorted characters whose removal would split
// their component.
func articulationPoints(chars []entities.Character, adj map[string][]string) []string {
	disc := make(map[string]int, len(chars))
	low := make(map[string]int, len(chars))
	points := make(map[string]struct{})
	timer := 0

	var visit func(id, parent string)
	visit = func(id, parent string) {
		timer++
		disc[id], low[id] = timer, timer
		children := 0
		for _, next := range adj[id] {
			if disc[next] == 0 {
				children++
				visit(next, id)
				low[id] = min(low[id], low[next])
				if parent != "" && low[next] >= disc[id] {
					points[id] = struct{}{}
				}
			} else if next != parent {
				low[id] = min(low[id], disc[next])
			}
		}
		if parent == "" && children > 1 {
			points[id] = struct{}{}
		}
	}

	for _, c := range chars {
		if disc[c.ID] == 0 {
			visit(c.ID, "")
		}
	}
	return sortedSet(points)
}

func healthBreakdown(r *DiagnosticsReport) []HealthComponent {
	chars, conflicts := r.CharacterCount, r.ConflictCount
	elements := r.RelationshipCount + r.ConflictCount

	components := []HealthComponent{
		{Name: "unanchored_characters", Count: r.IsolatedCharacters.TotalIsolated + len(r.IsolatedCharacters.WeaklyConnected), Population: chars, Weight: WeightUnanchored},
		{Name: "abandoned_conflicts", Count: r.AbandonedConflicts.TotalAbandoned, Population: conflicts, Weight: WeightAbandoned},
		{Name: "overloaded_characters", Count: r.OverloadedCharacters.TotalOverloaded, Population: chars, Weight: WeightOverloaded},
		{Name: "weak_connections", Count: r.WeakConnections.TotalWeak, Population: elements, Weight: WeightWeak},
		{Name: "disconnected_characters", Count: len(r.Structure.DisconnectedCharacters), Population: chars, Weight: WeightStructural},
		{Name: "redundancy", Count: r.RedundancyIssues.TotalRedundant, Population: chars + conflicts, Weight: WeightRedundancy},
	}
	for i := range components {
		c := &components[i]
		c.Ratio = round4(ratio(c.Count, c.Population))
		c.Penalty = round4(c.Ratio * c.Weight)
	}
	return components
}

func summarizeDiagnostics(r *DiagnosticsReport) string {
	return fmt.Sprintf(
		"Network %q: %d characters, %d relationships, %d conflicts. Health %.1f/100 (%s). "+
			"%d isolated, %d weakly connected, %d abandoned conflicts, %d overloaded characters, "+
			"%d weak connections, %d redundancy groups, %d disconnected characters, %d structural issues.",
		r.Network, r.CharacterCount, r.RelationshipCount, r.ConflictCount,
		r.OverallHealthScore, r.CriticalityLevel,
		r.IsolatedCharacters.TotalIsolated, len(r.IsolatedCharacters.WeaklyConnected),
		r.AbandonedConflicts.TotalAbandoned, r.OverloadedCharacters.TotalOverloaded,
		r.WeakConnections.TotalWeak, r.RedundancyIssues.TotalRedundant,
		len(r.Structure.DisconnectedCharacters), len(r.StructuralIssues),
	)
}

// Numeric helpers shared by the engines.

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/float64(d))
}

func meanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
