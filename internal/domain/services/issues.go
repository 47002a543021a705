package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// Severity tags a structural issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; critical is highest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Issue categories.
const (
	CategoryIsolatedCharacter      = "isolated_character"
	CategoryWeaklyConnected        = "weakly_connected_character"
	CategoryAbandonedConflict      = "abandoned_conflict"
	CategoryOverloadedCharacter    = "overloaded_character"
	CategoryWeakRelationship       = "weak_relationship"
	CategoryWeakConflict           = "weak_conflict"
	CategoryDuplicateRelationships = "duplicate_relationships"
	CategoryDuplicateConflicts     = "duplicate_conflicts"
	CategoryDisconnectedComponent  = "disconnected_component"
	CategoryBottleneckCharacter    = "bottleneck_character"
)

// Entity types referenced by issues.
const (
	EntityCharacter    = "character"
	EntityRelationship = "relationship"
	EntityConflict     = "conflict"
)

// StructuralIssue is one consolidated finding.
type StructuralIssue struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Severity      Severity `json:"severity"`
	SeverityScore float64  `json:"severity_score"`
	EntityType    string   `json:"entity_type"`
	EntityIDs     []string `json:"entity_ids"`
	Description   string   `json:"description"`
}

// severityScore combines the severity base with a bounded magnitude so
// issues of the same severity still order by how bad they are.
func severityScore(s Severity, magnitude float64) float64 {
	return round2(float64(s.Rank())*25 + clamp(magnitude, 0, 24))
}

func newIssue(category string, sev Severity, magnitude float64, entityType string, ids []string, description string) StructuralIssue {
	return StructuralIssue{
		ID:            category + ":" + ids[0],
		Category:      category,
		Severity:      sev,
		SeverityScore: severityScore(sev, magnitude),
		EntityType:    entityType,
		EntityIDs:     ids,
		Description:   description,
	}
}

func abandonedSeverity(p entities.Phase) Severity {
	switch p {
	case entities.PhaseClimactic:
		return SeverityCritical
	case entities.PhaseEscalating, entities.PhaseResolving:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

func (s *DiagnosticsService) collectIssues(v *networkView, r *DiagnosticsReport) []StructuralIssue {
	issues := []StructuralIssue{}
	add := func(i StructuralIssue) { issues = append(issues, i) }

	for _, d := range r.IsolatedCharacters.Details {
		if d.IsolationType == IsolationComplete {
			add(newIssue(CategoryIsolatedCharacter, SeverityHigh, 0, EntityCharacter, []string{d.ID},
				fmt.Sprintf("%s has no relationships and no conflicts", d.Name)))
			continue
		}
		add(newIssue(CategoryWeaklyConnected, SeverityMedium, float64(len(d.WeakRelationships)), EntityCharacter, []string{d.ID},
			fmt.Sprintf("%s is tied to the story only through %d weak relationship(s)", d.Name, len(d.WeakRelationships))))
	}

	conflicts := make(map[string]entities.Conflict, len(v.conflicts))
	for _, c := range v.conflicts {
		conflicts[c.ID] = c
	}
	for _, d := range r.AbandonedConflicts.Details {
		desc := fmt.Sprintf("%q is %s but has no linked relationships", d.Name, d.Phase)
		if d.Reason == ReasonStale {
			desc = fmt.Sprintf("%q is %s but has not been touched for %d days", d.Name, d.Phase, d.DaysInactive)
		}
		add(newIssue(CategoryAbandonedConflict, abandonedSeverity(d.Phase), float64(conflicts[d.ID].Strength), EntityConflict, []string{d.ID}, desc))
	}

	for _, d := range r.OverloadedCharacters.Details {
		add(newIssue(CategoryOverloadedCharacter, SeverityMedium, float64(d.Load)-r.OverloadedCharacters.Threshold, EntityCharacter, []string{d.ID},
			fmt.Sprintf("%s carries %d relationships and %d conflicts (threshold %.2f)", d.Name, d.Relationships, d.Conflicts, r.OverloadedCharacters.Threshold)))
	}

	for _, id := range r.WeakConnections.IDs {
		rel := v.relByID[id]
		add(newIssue(CategoryWeakRelationship, SeverityLow, float64(s.cfg.WeakStrength-rel.Strength+1), EntityRelationship, []string{id},
			fmt.Sprintf("%s between %s and %s has strength %d", rel.Type, v.names[rel.Source], v.names[rel.Target], rel.Strength)))
	}
	for _, id := range r.WeakConnections.WeakConflicts {
		c := conflicts[id]
		add(newIssue(CategoryWeakConflict, SeverityLow, float64(s.cfg.WeakStrength-c.Strength+1), EntityConflict, []string{id},
			fmt.Sprintf("%q has strength %d", c.Name, c.Strength)))
	}

	for _, g := range r.RedundancyIssues.RelationshipGroups {
		add(newIssue(CategoryDuplicateRelationships, SeverityLow, float64(len(g.IDs)-1), EntityRelationship, g.IDs,
			fmt.Sprintf("%d relationships duplicate each other: %s", len(g.IDs), strings.Join(g.IDs, ", "))))
	}
	for _, g := range r.RedundancyIssues.ConflictGroups {
		add(newIssue(CategoryDuplicateConflicts, SeverityMedium, float64(len(g.IDs)-1), EntityConflict, g.IDs,
			fmt.Sprintf("%d conflicts share the same participants and subject: %s", len(g.IDs), strings.Join(g.IDs, ", "))))
	}

	for _, comp := range r.Structure.DisconnectedComponents {
		add(newIssue(CategoryDisconnectedComponent, SeverityHigh, float64(len(comp)), EntityCharacter, comp,
			fmt.Sprintf("%d characters form a group cut off from the main cast: %s", len(comp), strings.Join(comp, ", "))))
	}
	for _, id := range r.Structure.BottleneckCharacters {
		add(newIssue(CategoryBottleneckCharacter, SeverityMedium, 0, EntityCharacter, []string{id},
			fmt.Sprintf("%s is the only link holding parts of the cast together", v.names[id])))
	}

	sortIssues(issues)
	return issues
}

// sortIssues orders by severity (highest first), then category, then id.
func sortIssues(issues []StructuralIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.ID < b.ID
	})
}
