package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// document accumulates headings, paragraphs and tables for one report.
type document struct {
	mode Mode
	b    strings.Builder
}

func (d *document) heading(s string) {
	if d.b.Len() > 0 {
		d.b.WriteString("\n")
	}
	if d.mode == Markdown {
		d.b.WriteString("## " + s + "\n\n")
		return
	}
	d.b.WriteString(s + "\n" + strings.Repeat("=", len([]rune(s))) + "\n")
}

func (d *document) line(format string, args ...any) {
	fmt.Fprintf(&d.b, format+"\n", args...)
}

func (d *document) table(t TableBuilder) {
	if t.Len() == 0 {
		return
	}
	d.b.WriteString("\n")
	d.b.WriteString(t.String())
	d.b.WriteString("\n")
}

func (d *document) String() string {
	return d.b.String()
}

// Diagnostics renders a diagnostics report.
func Diagnostics(r *services.DiagnosticsReport, m Mode) string {
	d := &document{mode: m}
	d.heading("Diagnostics: " + r.Network)
	d.line("Health: %s (%s)", Score(r.OverallHealthScore), r.CriticalityLevel)
	d.line("Characters: %d  Relationships: %d  Conflicts: %d", r.CharacterCount, r.RelationshipCount, r.ConflictCount)
	d.line("%s", r.Summary)

	issues := NewTable(m)
	issues.Title("Structural issues")
	issues.Header("Severity", "Score", "Category", "Entities", "Description")
	issues.Columns(
		ColumnConfig{Number: 2, Align: AlignRight},
		ColumnConfig{Number: 5, MaxWidth: 60},
	)
	for _, issue := range r.StructuralIssues {
		issues.Row(issue.Severity, issue.SeverityScore, issue.Category, List(issue.EntityIDs), issue.Description)
	}
	d.table(issues)

	health := NewTable(m)
	health.Title("Health breakdown")
	health.Header("Component", "Count", "Of", "Ratio", "Weight", "Penalty")
	health.Columns(
		ColumnConfig{Number: 2, Align: AlignRight},
		ColumnConfig{Number: 3, Align: AlignRight},
		ColumnConfig{Number: 4, Align: AlignRight},
		ColumnConfig{Number: 5, Align: AlignRight},
		ColumnConfig{Number: 6, Align: AlignRight},
	)
	var total float64
	for _, c := range r.HealthBreakdown {
		health.Row(c.Name, c.Count, c.Population, Percent(c.Ratio), c.Weight, Score(c.Penalty))
		total += c.Penalty
	}
	health.Footer("Total", "", "", "", "", Score(total))
	d.table(health)

	if len(r.Structure.BottleneckCharacters) > 0 || r.Structure.ComponentCount > 1 {
		d.line("")
		d.line("Components: %d  Largest: %s", r.Structure.ComponentCount, List(r.Structure.LargestComponent))
		d.line("Bottlenecks: %s", List(r.Structure.BottleneckCharacters))
	}

	return d.String()
}

// Treatment renders treatment recommendations.
func Treatment(r *services.Recommendations, m Mode) string {
	d := &document{mode: m}
	d.heading("Treatment: " + r.Network)
	d.line("%s", r.ConsolidatedSummary.Text)
	o := r.Outlook
	d.line("Outlook: %s now, %s / %s / %s (pessimistic / realistic / optimistic), feasibility %s",
		Score(o.CurrentScore), Score(o.PessimisticScore), Score(o.RealisticScore), Score(o.OptimisticScore), o.Feasibility)

	actions := NewTable(m)
	actions.Title("Prioritized actions")
	actions.Header("Priority", "Effort", "Action", "Target", "Description", "Time")
	actions.Columns(ColumnConfig{Number: 5, MaxWidth: 60})
	for _, a := range r.PrioritizedActions {
		actions.Row(a.Priority, a.Effort, a.ActionType, targetLabel(a.Target), a.Description, a.EstimatedTime)
	}
	d.table(actions)

	revisions := NewTable(m)
	revisions.Title("Structural revisions")
	revisions.Header("Revision", "Entities", "Description")
	revisions.Columns(ColumnConfig{Number: 3, MaxWidth: 60})
	for _, rev := range r.StructuralRevisions {
		revisions.Row(rev.Type, List(rev.EntityIDs), rev.Description)
	}
	d.table(revisions)

	chars := NewTable(m)
	chars.Title("Character development")
	chars.Header("Character", "Focus", "Suggestions")
	chars.Columns(ColumnConfig{Number: 3, MaxWidth: 70})
	for _, s := range r.CharacterDevelopmentSuggestions {
		chars.Row(s.Name, s.Focus, strings.Join(s.Suggestions, "\n"))
	}
	d.table(chars)

	conflicts := NewTable(m)
	conflicts.Title("Conflict enhancement")
	conflicts.Header("Conflict", "Phase", "Next", "Involve", "Strategy")
	conflicts.Columns(ColumnConfig{Number: 5, MaxWidth: 60})
	for _, s := range r.ConflictEnhancementStrategies {
		conflicts.Row(s.Name, s.CurrentPhase, s.SuggestedPhase, List(s.CharactersToInvolve), s.Strategy)
	}
	d.table(conflicts)

	return d.String()
}

func targetLabel(t services.ActionTarget) string {
	if t.Name != "" && t.Name != t.ID {
		return fmt.Sprintf("%s %s (%s)", t.Type, t.Name, t.ID)
	}
	return t.Type + " " + t.ID
}

// Efficiency renders efficiency metrics.
func Efficiency(e *services.EfficiencyMetrics, m Mode) string {
	d := &document{mode: m}
	d.heading("Efficiency: " + e.Network)
	d.line("Overall: %s (%s)", Score(e.OverallEfficiencyScore), e.OverallRating)
	d.line("%s", e.Summary)

	t := NewTable(m)
	t.Title("Metrics")
	t.Header("Metric", "Value")
	t.Columns(ColumnConfig{Number: 2, Align: AlignRight})
	t.Row("Conflict cohesion", Percent(e.ConflictCohesion))
	t.Row("Involvement Gini", fmt.Sprintf("%.4f", e.DramaticBalance.CharacterInvolvementGini))
	t.Row("Dramatic balance", Percent(e.DramaticBalance.BalanceScore))
	t.Row("Narrative efficiency", Percent(e.NarrativeEfficiency.NarrativeEfficiencyScore))
	t.Row("Character efficiency", Percent(e.NarrativeEfficiency.CharacterEfficiency))
	t.Row("Relationship efficiency", Percent(e.NarrativeEfficiency.RelationshipEfficiency))
	t.Row("Conflict efficiency", Percent(e.NarrativeEfficiency.ConflictEfficiency))
	t.Row("Narrative density", fmt.Sprintf("%.2f", e.NarrativeDensity))
	t.Row("Character redundancy", Percent(e.RedundancyMetrics.Character))
	t.Row("Relationship redundancy", Percent(e.RedundancyMetrics.Relationship))
	t.Row("Conflict redundancy", Percent(e.RedundancyMetrics.Conflict))
	d.table(t)

	inv := NewTable(m)
	inv.Title("Involvement")
	inv.Header("Character", "Involvement")
	inv.Columns(ColumnConfig{Number: 2, Align: AlignRight})
	for _, c := range e.DramaticBalance.Involvement {
		inv.Row(c.ID, c.Involvement)
	}
	d.table(inv)

	return d.String()
}

// Networks renders the stored network listing.
func Networks(list []ports.NetworkSummary, m Mode) string {
	t := NewTable(m)
	t.Header("Network", "Characters", "Relationships", "Conflicts", "Updated")
	for _, s := range list {
		t.Row(s.Name, s.Characters, s.Relationships, s.Conflicts, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return t.String()
}

// Network renders the contents of one network.
func Network(n *entities.Network, m Mode) string {
	d := &document{mode: m}
	d.heading("Network: " + n.Name())

	chars := NewTable(m)
	chars.Title("Characters")
	chars.Header("ID", "Name", "Description")
	chars.Columns(ColumnConfig{Number: 3, MaxWidth: 60})
	for _, c := range n.Characters() {
		chars.Row(c.ID, c.Name, Truncate(c.Description, 120))
	}
	d.table(chars)

	rels := NewTable(m)
	rels.Title("Relationships")
	rels.Header("ID", "Source", "Target", "Type", "Nature", "Strength", "Mutual")
	rels.Columns(ColumnConfig{Number: 6, Align: AlignRight})
	for _, r := range n.Relationships() {
		rels.Row(r.ID, r.Source, r.Target, r.Type, r.Nature, r.Strength, BoolMark(r.Mutual))
	}
	d.table(rels)

	conflicts := NewTable(m)
	conflicts.Title("Conflicts")
	conflicts.Header("ID", "Name", "Subject", "Scope", "Phase", "Strength", "Involved", "Related")
	conflicts.Columns(ColumnConfig{Number: 6, Align: AlignRight})
	for _, c := range n.Conflicts() {
		conflicts.Row(c.ID, c.Name, c.Subject, c.Scope, c.Phase, c.Strength, List(c.InvolvedCharacters), List(c.RelatedRelationships))
	}
	d.table(conflicts)

	return d.String()
}

// Snapshots renders a snapshot history.
func Snapshots(snaps []entities.Snapshot, m Mode) string {
	t := NewTable(m)
	t.Header("Label", "Created", "Characters", "Relationships", "Conflicts")
	for _, s := range snaps {
		st := s.State()
		t.Row(s.Label, s.CreatedAt.Format("2006-01-02 15:04"), len(st.Characters), len(st.Relationships), len(st.Conflicts))
	}
	return t.String()
}

// Audit renders audit log entries.
func Audit(entries []entities.AuditEntry, m Mode) string {
	t := NewTable(m)
	t.Header("Time", "Action", "Entity", "Details")
	t.Columns(ColumnConfig{Number: 4, MaxWidth: 60})
	for _, e := range entries {
		entity := e.EntityType
		if e.EntityID != "" {
			entity += " " + e.EntityID
		}
		details := ""
		if len(e.Details) > 0 {
			data, err := json.Marshal(e.Details)
			if err == nil {
				details = string(data)
			}
		}
		t.Row(e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, strings.TrimSpace(entity), details)
	}
	return t.String()
}

// Matches renders profile similarity matches.
func Matches(matches []ports.ProfileMatch, m Mode) string {
	t := NewTable(m)
	t.Header("Character", "Name", "Score")
	t.Columns(ColumnConfig{Number: 3, Align: AlignRight})
	for _, match := range matches {
		t.Row(match.CharacterID, match.Name, fmt.Sprintf("%.3f", match.Score))
	}
	return t.String()
}

// Narrated renders narrated treatment actions as numbered paragraphs.
func Narrated(actions []services.NarratedAction, m Mode) string {
	if len(actions) == 0 {
		return ""
	}
	d := &document{mode: m}
	d.heading("Narrated actions")
	for i, na := range actions {
		if m == Markdown {
			d.line("%d. **%s**: %s", i+1, na.Action.ID, na.Narrative)
			continue
		}
		d.line("%d. [%s] %s", i+1, na.Action.ID, na.Narrative)
	}
	return d.String()
}

// Relationships renders a relationship listing.
func Relationships(rels []entities.Relationship, m Mode) string {
	t := NewTable(m)
	t.Header("ID", "Source", "Target", "Type", "Nature", "Strength", "Mutual")
	t.Columns(ColumnConfig{Number: 6, Align: AlignRight})
	for _, r := range rels {
		t.Row(r.ID, r.Source, r.Target, r.Type, r.Nature, r.Strength, BoolMark(r.Mutual))
	}
	return t.String()
}

// Conflicts renders a conflict listing.
func Conflicts(conflicts []entities.Conflict, m Mode) string {
	t := NewTable(m)
	t.Header("ID", "Name", "Phase", "Strength", "Involved", "Related", "Last touched")
	t.Columns(ColumnConfig{Number: 4, Align: AlignRight})
	for _, c := range conflicts {
		touched := "-"
		if at, ok := c.LastTouched(); ok {
			touched = at.Format("2006-01-02")
		}
		t.Row(c.ID, c.Name, c.Phase, c.Strength, List(c.InvolvedCharacters), List(c.RelatedRelationships), touched)
	}
	return t.String()
}
