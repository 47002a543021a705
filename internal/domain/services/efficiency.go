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

// Overall efficiency weights.
const (
	EfficiencyWeightCohesion   = 0.25
	EfficiencyWeightBalance    = 0.25
	EfficiencyWeightEfficiency = 0.25
	EfficiencyWeightDensity    = 0.15
	EfficiencyWeightRedundancy = 0.10
)

// Rating is the coarse efficiency rating.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// RatingFor maps an overall efficiency score to a rating.
func RatingFor(score float64) Rating {
	switch {
	case score >= 85:
		return RatingExcellent
	case score >= 70:
		return RatingGood
	case score >= 55:
		return RatingFair
	default:
		return RatingPoor
	}
}

// CohesionDetails splits conflicts by whether their relationships back them.
type CohesionDetails struct {
	Cohesive   []string `json:"cohesive"`
	Incohesive []string `json:"incohesive"`
}

// CharacterInvolvement is one character's relationship plus conflict count.
type CharacterInvolvement struct {
	ID          string `json:"id"`
	Involvement int    `json:"involvement"`
}

// DramaticBalance describes how evenly involvement is spread.
type DramaticBalance struct {
	CharacterInvolvementGini float64                `json:"character_involvement_gini"`
	BalanceScore             float64                `json:"balance_score"`
	Involvement              []CharacterInvolvement `json:"involvement"`
}

// NarrativeEfficiency relates live story elements to everything tracked.
type NarrativeEfficiency struct {
	NarrativeEfficiencyScore float64 `json:"narrative_efficiency_score"`
	ActiveConflicts          int     `json:"active_conflicts"`
	ActiveRelationships      int     `json:"active_relationships"`
	TotalElements            int     `json:"total_elements"`
	CharacterEfficiency      float64 `json:"character_efficiency"`
	RelationshipEfficiency   float64 `json:"relationship_efficiency"`
	ConflictEfficiency       float64 `json:"conflict_efficiency"`
}

// RedundancyMetrics is the share of redundant entities of each kind.
type RedundancyMetrics struct {
	Character    float64 `json:"character"`
	Relationship float64 `json:"relationship"`
	Conflict     float64 `json:"conflict"`
}

// EfficiencyMetrics is the result of AnalyzeEfficiency.
type EfficiencyMetrics struct {
	Network                string              `json:"network"`
	ConflictCohesion       float64             `json:"conflict_cohesion"`
	CohesionDetails        CohesionDetails     `json:"cohesion_details"`
	DramaticBalance        DramaticBalance     `json:"dramatic_balance"`
	NarrativeEfficiency    NarrativeEfficiency `json:"narrative_efficiency"`
	NarrativeDensity       float64             `json:"narrative_density"`
	RedundancyMetrics      RedundancyMetrics   `json:"redundancy_metrics"`
	OverallEfficiencyScore float64             `json:"overall_efficiency_score"`
	OverallRating          Rating              `json:"overall_rating"`
	Summary                string              `json:"summary"`
}

// EfficiencyService scores balance, cohesion and efficiency of a network.
type EfficiencyService struct {
	cfg    AnalysisConfig
	logger *slog.Logger
}

// NewEfficiencyService creates a new EfficiencyService.
func NewEfficiencyService(cfg AnalysisConfig) *EfficiencyService {
	return &EfficiencyService{
		cfg:    cfg,
		logger: logging.New("efficiency"),
	}
}

// AnalyzeEfficiency scores the network without modifying it.
func (s *EfficiencyService) AnalyzeEfficiency(n *entities.Network) (*EfficiencyMetrics, error) {
	if n == nil {
		return nil, entities.NewValidationError("network", "", "network is required")
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating analysis config: %w", err)
	}

	v := newNetworkView(n, s.cfg)
	m := &EfficiencyMetrics{Network: n.Name()}

	m.ConflictCohesion, m.CohesionDetails = conflictCohesion(v)
	m.DramaticBalance = dramaticBalance(v)
	m.NarrativeEfficiency = s.narrativeEfficiency(v)
	if len(v.characters) > 0 {
		m.NarrativeDensity = round4(float64(len(v.relationships)+len(v.conflicts)) / float64(len(v.characters)))
	}
	m.RedundancyMetrics = redundancyMetrics(v)

	meanRedundancy := (m.RedundancyMetrics.Character + m.RedundancyMetrics.Relationship + m.RedundancyMetrics.Conflict) / 3
	overall := 100 * (EfficiencyWeightCohesion*m.ConflictCohesion +
		EfficiencyWeightBalance*m.DramaticBalance.BalanceScore +
		EfficiencyWeightEfficiency*m.NarrativeEfficiency.NarrativeEfficiencyScore +
		EfficiencyWeightDensity*math.Min(1, m.NarrativeDensity) +
		EfficiencyWeightRedundancy*(1-meanRedundancy))
	m.OverallEfficiencyScore = round2(clamp(overall, 0, 100))
	m.OverallRating = RatingFor(m.OverallEfficiencyScore)
	m.Summary = fmt.Sprintf(
		"Efficiency %.1f/100 (%s): cohesion %.2f, balance %.2f (gini %.2f), narrative efficiency %.2f, density %.2f.",
		m.OverallEfficiencyScore, m.OverallRating, m.ConflictCohesion, m.DramaticBalance.BalanceScore,
		m.DramaticBalance.CharacterInvolvementGini, m.NarrativeEfficiency.NarrativeEfficiencyScore, m.NarrativeDensity,
	)

	s.logger.Debug("efficiency complete", "network", m.Network, "score", m.OverallEfficiencyScore)
	return m, nil
}

// conflictCohesion counts a conflict as cohesive when at least one related
// relationship joins two of its participants. A single-participant conflict
// is cohesive when a related relationship touches that participant.
func conflictCohesion(v *networkView) (float64, CohesionDetails) {
	d := CohesionDetails{Cohesive: []string{}, Incohesive: []string{}}
	for _, c := range v.conflicts {
		if isCohesive(v, c) {
			d.Cohesive = append(d.Cohesive, c.ID)
		} else {
			d.Incohesive = append(d.Incohesive, c.ID)
		}
	}
	return round4(ratio(len(d.Cohesive), len(v.conflicts))), d
}

func isCohesive(v *networkView, c entities.Conflict) bool {
	single := len(c.InvolvedCharacters) == 1
	for _, id := range c.RelatedRelationships {
		r, ok := v.relByID[id]
		if !ok {
			continue
		}
		if single && r.Involves(c.InvolvedCharacters[0]) {
			return true
		}
		if c.Involves(r.Source) && c.Involves(r.Target) {
			return true
		}
	}
	return false
}

func dramaticBalance(v *networkView) DramaticBalance {
	b := DramaticBalance{Involvement: make([]CharacterInvolvement, len(v.characters))}
	values := make([]float64, len(v.characters))
	for i, c := range v.characters {
		inv := v.involvement(c.ID)
		b.Involvement[i] = CharacterInvolvement{ID: c.ID, Involvement: inv}
		values[i] = float64(inv)
	}
	g := Gini(values)
	b.CharacterInvolvementGini = round4(g)
	b.BalanceScore = round4(1 - g)
	return b
}

// Gini returns the Gini coefficient of xs using the sorted form
// G = sum((2i - n - 1) * x_i) / (n * sum(x)), i = 1..n. It is 0 for fewer
// than two values or an all-zero distribution.
func Gini(xs []float64) float64 {
	n := len(xs)
	if n <= 1 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, x := range sorted {
		sum += x
		weighted += float64(2*(i+1)-n-1) * x
	}
	if sum == 0 {
		return 0
	}
	return clamp(weighted/(float64(n)*sum), 0, 1)
}

func (s *EfficiencyService) narrativeEfficiency(v *networkView) NarrativeEfficiency {
	e := NarrativeEfficiency{TotalElements: len(v.conflicts) + len(v.relationships)}

	linked := make(map[string]bool)
	live := 0
	for _, c := range v.conflicts {
		if c.Phase != entities.PhaseResolved {
			e.ActiveConflicts++
			if !s.cfg.isWeak(c.Strength) {
				live++
			}
		}
		for _, id := range c.RelatedRelationships {
			linked[id] = true
		}
	}
	for _, r := range v.relationships {
		if !s.cfg.isWeak(r.Strength) {
			e.ActiveRelationships++
		}
	}

	inConflict := 0
	for _, c := range v.characters {
		if v.conflictCount[c.ID] > 0 {
			inConflict++
		}
	}

	e.NarrativeEfficiencyScore = round4(ratio(e.ActiveConflicts+e.ActiveRelationships, e.TotalElements))
	e.CharacterEfficiency = round4(ratio(inConflict, len(v.characters)))
	e.RelationshipEfficiency = round4(ratio(len(linked), len(v.relationships)))
	e.ConflictEfficiency = round4(ratio(live, len(v.conflicts)))
	return e
}

// redundancyMetrics reports, per kind, the share of entities that duplicate
// an earlier one. Characters are redundant when another character has the
// same non-empty neighbor set and the same conflicts.
func redundancyMetrics(v *networkView) RedundancyMetrics {
	dup := func(groups []RedundancyGroup) int {
		n := 0
		for _, g := range groups {
			n += len(g.IDs) - 1
		}
		return n
	}
	red := findRedundancy(v)

	neighbors := make(map[string]map[string]struct{}, len(v.characters))
	for _, r := range v.relationships {
		for _, pair := range [][2]string{{r.Source, r.Target}, {r.Target, r.Source}} {
			if neighbors[pair[0]] == nil {
				neighbors[pair[0]] = make(map[string]struct{})
			}
			neighbors[pair[0]][pair[1]] = struct{}{}
		}
	}
	conflictsOf := make(map[string][]string)
	for _, c := range v.conflicts {
		for _, id := range c.InvolvedCharacters {
			conflictsOf[id] = append(conflictsOf[id], c.ID)
		}
	}
	var keys, ids []string
	for _, c := range v.characters {
		ns := neighbors[c.ID]
		if len(ns) == 0 {
			continue
		}
		keys = append(keys, strings.Join(sortedSet(ns), ",")+"|"+strings.Join(conflictsOf[c.ID], ","))
		ids = append(ids, c.ID)
	}

	return RedundancyMetrics{
		Character:    round4(ratio(dup(groupDuplicates(keys, ids)), len(v.characters))),
		Relationship: round4(ratio(dup(red.RelationshipGroups), len(v.relationships))),
		Conflict:     round4(ratio(dup(red.ConflictGroups), len(v.conflicts))),
	}
}
