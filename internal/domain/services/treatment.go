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

// Priority of a recommended action.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities; high is highest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// PriorityFor derives an action priority from the issue severity.
func PriorityFor(s Severity) Priority {
	switch s {
	case SeverityCritical, SeverityHigh:
		return PriorityHigh
	case SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Effort is the coarse amount of rewriting an action takes.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// EstimatedTime returns the time bucket for the effort level.
func (e Effort) EstimatedTime() string {
	switch e {
	case EffortLow:
		return "15 minutes"
	case EffortMedium:
		return "1 hour"
	default:
		return "several sessions"
	}
}

// ActionType is what an action does to the network.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionModify ActionType = "modify"
	ActionMerge  ActionType = "merge"
	ActionRemove ActionType = "remove"
)

// ActionTarget names the primary entity an action touches.
type ActionTarget struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TreatmentAction is one recommended change.
type TreatmentAction struct {
	ID             string       `json:"id"`
	IssueID        string       `json:"issue_id"`
	Category       string       `json:"category"`
	Priority       Priority     `json:"priority"`
	ActionType     ActionType   `json:"action_type"`
	Target         ActionTarget `json:"target"`
	Description    string       `json:"description"`
	ExpectedImpact string       `json:"expected_impact"`
	EstimatedTime  string       `json:"estimated_time"`
	Effort         Effort       `json:"effort"`
	SeverityScore  float64      `json:"severity_score"`
}

// StructuralRevision is a larger reshaping of the cast or conflict set.
type StructuralRevision struct {
	Type        string   `json:"type"`
	IssueID     string   `json:"issue_id"`
	EntityIDs   []string `json:"entity_ids"`
	Description string   `json:"description"`
}

// Structural revision types.
const (
	RevisionAddBridgeCharacter       = "add_bridge_character"
	RevisionMergeConflicts           = "merge_conflicts"
	RevisionSplitOverloadedCharacter = "split_overloaded_character"
)

// CharacterSuggestion proposes development work for one character.
type CharacterSuggestion struct {
	CharacterID string   `json:"character_id"`
	Name        string   `json:"name"`
	Focus       string   `json:"focus"`
	Suggestions []string `json:"suggestions"`
}

// ConflictStrategy proposes how to revive or sharpen a conflict.
type ConflictStrategy struct {
	ConflictID          string         `json:"conflict_id"`
	Name                string         `json:"name"`
	CurrentPhase        entities.Phase `json:"current_phase"`
	SuggestedPhase      entities.Phase `json:"suggested_phase"`
	CharactersToInvolve []string       `json:"characters_to_involve"`
	Strategy            string         `json:"strategy"`
}

// Outlook projects the health score after applying the recommendations.
type Outlook struct {
	CurrentScore         float64 `json:"current_score"`
	ImprovementPotential float64 `json:"improvement_potential"`
	Feasibility          string  `json:"feasibility"`
	PessimisticScore     float64 `json:"pessimistic_score"`
	RealisticScore       float64 `json:"realistic_score"`
	OptimisticScore      float64 `json:"optimistic_score"`
}

// TreatmentSummary aggregates the recommendation counts.
type TreatmentSummary struct {
	TotalIssues    int    `json:"total_issues"`
	HighPriority   int    `json:"high_priority"`
	MediumPriority int    `json:"medium_priority"`
	LowPriority    int    `json:"low_priority"`
	QuickFixes     int    `json:"quick_fixes"`
	Text           string `json:"text"`
}

// Recommendations is the result of AnalyzeAndRecommendTreatments.
type Recommendations struct {
	Network                         string                `json:"network"`
	PrioritizedActions              []TreatmentAction     `json:"prioritized_actions"`
	QuickFixes                      []TreatmentAction     `json:"quick_fixes"`
	StructuralRevisions             []StructuralRevision  `json:"structural_revisions"`
	CharacterDevelopmentSuggestions []CharacterSuggestion `json:"character_development_suggestions"`
	ConflictEnhancementStrategies   []ConflictStrategy    `json:"conflict_enhancement_strategies"`
	ConsolidatedSummary             TreatmentSummary      `json:"consolidated_summary"`
	TotalRecommendations            int                   `json:"total_recommendations"`
	Outlook                         Outlook               `json:"outlook"`
}

// treatmentContext carries what a template needs to render one issue.
type treatmentContext struct {
	issue    StructuralIssue
	names    map[string]string
	partners []string
	conflict entities.Conflict
	rels     []entities.Relationship
	cfg      AnalysisConfig
	excess   int
}

func (c treatmentContext) name(id string) string {
	if n := c.names[id]; n != "" {
		return n
	}
	return id
}

func (c treatmentContext) first() string { return c.issue.EntityIDs[0] }

type actionTemplate struct {
	key      string
	action   ActionType
	effort   Effort
	impact   string
	describe func(c treatmentContext) string
}

// treatmentTemplates maps each issue category to its fixed set of actions.
var treatmentTemplates = map[string][]actionTemplate{
	CategoryIsolatedCharacter: {
		{
			key: "add_relationship", action: ActionAdd, effort: EffortLow,
			impact: "removes an isolated character",
			describe: func(c treatmentContext) string {
				if len(c.partners) == 0 {
					return fmt.Sprintf("Introduce a relationship or conflict involving %s", c.name(c.first()))
				}
				return fmt.Sprintf("Introduce a relationship between %s and %s", c.name(c.first()), c.name(c.partners[0]))
			},
		},
		{
			key: "involve_in_conflict", action: ActionModify, effort: EffortMedium,
			impact: "gives the character a stake in the plot",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Give %s a stake in an existing conflict", c.name(c.first()))
			},
		},
	},
	CategoryWeaklyConnected: {
		{
			key: "strengthen_relationship", action: ActionModify, effort: EffortLow,
			impact: "anchors the character in the story",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Raise one of %s's relationships (%s) above strength %d", c.name(c.first()), relIDs(c.rels), c.cfg.WeakStrength)
			},
		},
	},
	CategoryAbandonedConflict: {
		{
			key: "link_relationship", action: ActionAdd, effort: EffortLow,
			impact: "grounds the conflict in the cast's relationships",
			describe: func(c treatmentContext) string {
				if len(c.rels) == 0 {
					return fmt.Sprintf("Create a relationship among %s and link it to %q", namesOf(c, c.conflict.InvolvedCharacters), c.conflict.Name)
				}
				return fmt.Sprintf("Link %q to relationship %s", c.conflict.Name, c.rels[0].ID)
			},
		},
		{
			key: "advance_phase", action: ActionModify, effort: EffortMedium,
			impact: "restarts the conflict's arc",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Advance %q from %s to %s or resolve it", c.conflict.Name, c.conflict.Phase, c.conflict.Phase.Next())
			},
		},
	},
	CategoryOverloadedCharacter: {
		{
			key: "redistribute", action: ActionModify, effort: EffortHigh,
			impact: "spreads dramatic weight across the cast",
			describe: func(c treatmentContext) string {
				to := "other characters"
				if len(c.partners) > 0 {
					to = namesOf(c, c.partners)
				}
				return fmt.Sprintf("Redistribute %d of %s's conflicts or relationships to %s", c.excess, c.name(c.first()), to)
			},
		},
	},
	CategoryWeakRelationship: {
		{
			key: "strengthen", action: ActionModify, effort: EffortLow,
			impact: "turns a passive tie into a dramatic one",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Raise the strength of relationship %s above %d or remove it", c.first(), c.cfg.WeakStrength)
			},
		},
	},
	CategoryWeakConflict: {
		{
			key: "raise_stakes", action: ActionModify, effort: EffortLow,
			impact: "makes the conflict matter",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Raise the stakes of %q above strength %d", c.conflict.Name, c.cfg.WeakStrength)
			},
		},
	},
	CategoryDuplicateRelationships: {
		{
			key: "merge", action: ActionMerge, effort: EffortLow,
			impact: "removes redundant relationships",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Merge relationships %s into %s", strings.Join(c.issue.EntityIDs[1:], ", "), c.first())
			},
		},
	},
	CategoryDuplicateConflicts: {
		{
			key: "merge", action: ActionMerge, effort: EffortMedium,
			impact: "consolidates conflicts that tell the same story",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Merge conflicts %s into %s or differentiate their subjects", strings.Join(c.issue.EntityIDs[1:], ", "), c.first())
			},
		},
	},
	CategoryDisconnectedComponent: {
		{
			key: "bridge", action: ActionAdd, effort: EffortHigh,
			impact: "joins a cut-off subplot to the main cast",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Add a bridge character or relationship connecting %s to the main cast", namesOf(c, c.issue.EntityIDs))
			},
		},
	},
	CategoryBottleneckCharacter: {
		{
			key: "bypass", action: ActionAdd, effort: EffortMedium,
			impact: "removes a single point of failure in the cast",
			describe: func(c treatmentContext) string {
				return fmt.Sprintf("Add a relationship that connects %s's neighbors without going through them", c.name(c.first()))
			},
		},
	},
}

// TreatmentService turns a diagnostics report into prioritized actions.
type TreatmentService struct {
	cfg    AnalysisConfig
	logger *slog.Logger
}

// NewTreatmentService creates a new TreatmentService.
func NewTreatmentService(cfg AnalysisConfig) *TreatmentService {
	return &TreatmentService{
		cfg:    cfg,
		logger: logging.New("treatment"),
	}
}

// AnalyzeAndRecommendTreatments maps every issue in report to actions. The
// report is trusted as-is; it must come from the same network state.
func (s *TreatmentService) AnalyzeAndRecommendTreatments(n *entities.Network, report *DiagnosticsReport) (*Recommendations, error) {
	if n == nil {
		return nil, entities.NewValidationError("network", "", "network is required")
	}
	if report == nil {
		return nil, entities.NewValidationError("report", "", "diagnostics report is required")
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating analysis config: %w", err)
	}
	if err := checkReportMatches(n, report); err != nil {
		return nil, err
	}

	v := newNetworkView(n, s.cfg)
	partners := s.partnerRanking(v, report)

	isolatedPartners := make(map[string][]string)
	for _, d := range report.IsolatedCharacters.Details {
		isolatedPartners[d.ID] = d.SuggestedPartners
	}
	overloadExcess := make(map[string]int)
	for _, d := range report.OverloadedCharacters.Details {
		overloadExcess[d.ID] = max(1, int(math.Ceil(float64(d.Load)-report.OverloadedCharacters.Threshold)))
	}

	actions := []TreatmentAction{}
	for _, issue := range report.StructuralIssues {
		ctx := treatmentContext{issue: issue, names: v.names, cfg: s.cfg}
		switch issue.Category {
		case CategoryIsolatedCharacter:
			ctx.partners = isolatedPartners[ctx.first()]
		case CategoryOverloadedCharacter:
			ctx.partners = partnersExcept(partners, ctx.first())
			ctx.excess = overloadExcess[ctx.first()]
		case CategoryWeaklyConnected:
			ctx.rels = relationshipsTouching(v, ctx.first())
		case CategoryAbandonedConflict, CategoryWeakConflict:
			c, _ := n.Conflict(ctx.first())
			ctx.conflict = c
			ctx.rels = linkCandidates(v, c)
		}
		for _, tmpl := range treatmentTemplates[issue.Category] {
			actions = append(actions, TreatmentAction{
				ID:             issue.ID + "/" + tmpl.key,
				IssueID:        issue.ID,
				Category:       issue.Category,
				Priority:       PriorityFor(issue.Severity),
				ActionType:     tmpl.action,
				Target:         ActionTarget{Type: issue.EntityType, ID: ctx.first(), Name: targetName(n, issue)},
				Description:    tmpl.describe(ctx),
				ExpectedImpact: tmpl.impact,
				EstimatedTime:  tmpl.effort.EstimatedTime(),
				Effort:         tmpl.effort,
				SeverityScore:  issue.SeverityScore,
			})
		}
	}
	sortActions(actions)

	recs := &Recommendations{
		Network:                         n.Name(),
		PrioritizedActions:              actions,
		QuickFixes:                      []TreatmentAction{},
		StructuralRevisions:             structuralRevisions(v, report),
		CharacterDevelopmentSuggestions: s.characterSuggestions(n, report, partners),
		ConflictEnhancementStrategies:   conflictStrategies(v, report),
		TotalRecommendations:            len(actions),
	}
	for _, a := range actions {
		if a.Effort == EffortLow {
			recs.QuickFixes = append(recs.QuickFixes, a)
		}
	}
	recs.ConsolidatedSummary = summarizeTreatment(report, recs)
	recs.Outlook = projectOutlook(report, recs)

	s.logger.Debug("treatment complete",
		"network", recs.Network,
		"actions", recs.TotalRecommendations,
		"quick_fixes", len(recs.QuickFixes),
	)
	return recs, nil
}

// checkReportMatches rejects reports that reference entities the network
// does not contain.
func checkReportMatches(n *entities.Network, report *DiagnosticsReport) error {
	for _, issue := range report.StructuralIssues {
		if len(issue.EntityIDs) == 0 {
			return entities.NewValidationError("report", issue.ID, "issue has no entity ids")
		}
		for _, id := range issue.EntityIDs {
			var err error
			switch issue.EntityType {
			case EntityCharacter:
				_, err = n.Character(id)
			case EntityRelationship:
				_, err = n.Relationship(id)
			case EntityConflict:
				_, err = n.Conflict(id)
			default:
				return entities.NewValidationError("report", issue.ID, "unknown entity type %q", issue.EntityType)
			}
			if err != nil {
				return entities.NewValidationError("report", issue.ID, "references %s %q which is not in network %q", issue.EntityType, id, n.Name())
			}
		}
		if _, ok := treatmentTemplates[issue.Category]; !ok {
			return entities.NewValidationError("report", issue.ID, "unknown issue category %q", issue.Category)
		}
	}
	return nil
}

// partnerRanking ranks characters able to absorb more story weight, using
// the report's own isolation and overload findings.
func (s *TreatmentService) partnerRanking(v *networkView, report *DiagnosticsReport) []string {
	unanchored := make(map[string]bool)
	for _, d := range report.IsolatedCharacters.Details {
		unanchored[d.ID] = true
	}
	overloaded := make(map[string]bool)
	for _, id := range report.OverloadedCharacters.IDs {
		overloaded[id] = true
	}
	return suggestPartners(v, unanchored, overloaded)
}

func targetName(n *entities.Network, issue StructuralIssue) string {
	id := issue.EntityIDs[0]
	switch issue.EntityType {
	case EntityCharacter:
		if c, err := n.Character(id); err == nil {
			return c.Name
		}
	case EntityConflict:
		if c, err := n.Conflict(id); err == nil {
			return c.Name
		}
	}
	return id
}

func relationshipsTouching(v *networkView, id string) []entities.Relationship {
	var out []entities.Relationship
	for _, r := range v.relationships {
		if r.Involves(id) {
			out = append(out, r)
		}
	}
	return out
}

// linkCandidates returns unlinked relationships among the conflict's
// participants, strongest first.
func linkCandidates(v *networkView, c entities.Conflict) []entities.Relationship {
	var out []entities.Relationship
	for _, r := range v.relationships {
		if c.Involves(r.Source) && c.Involves(r.Target) && !c.References(r.ID) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out
}

func relIDs(rels []entities.Relationship) string {
	ids := make([]string, len(rels))
	for i, r := range rels {
		ids[i] = r.ID
	}
	return strings.Join(ids, ", ")
}

func namesOf(c treatmentContext, ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = c.name(id)
	}
	return strings.Join(names, ", ")
}

// sortActions orders by priority, then severity score, then id.
func sortActions(actions []TreatmentAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.SeverityScore != b.SeverityScore {
			return a.SeverityScore > b.SeverityScore
		}
		return a.ID < b.ID
	})
}

func structuralRevisions(v *networkView, report *DiagnosticsReport) []StructuralRevision {
	out := []StructuralRevision{}
	for _, issue := range report.StructuralIssues {
		var r StructuralRevision
		switch issue.Category {
		case CategoryDisconnectedComponent:
			r = StructuralRevision{Type: RevisionAddBridgeCharacter, Description: "Introduce a character with ties both to this group and to the main cast"}
		case CategoryDuplicateConflicts:
			r = StructuralRevision{Type: RevisionMergeConflicts, Description: "Fold these conflicts into a single escalating thread"}
		case CategoryOverloadedCharacter:
			r = StructuralRevision{
				Type:        RevisionSplitOverloadedCharacter,
				Description: fmt.Sprintf("Split part of %s's role into a new or existing supporting character", v.names[issue.EntityIDs[0]]),
			}
		default:
			continue
		}
		r.IssueID = issue.ID
		r.EntityIDs = issue.EntityIDs
		out = append(out, r)
	}
	return out
}

func (s *TreatmentService) characterSuggestions(n *entities.Network, report *DiagnosticsReport, partners []string) []CharacterSuggestion {
	out := []CharacterSuggestion{}
	for _, d := range report.IsolatedCharacters.Details {
		c, _ := n.Character(d.ID)
		sg := CharacterSuggestion{CharacterID: d.ID, Name: c.Name, Focus: "integrate"}
		if m := c.Profile[entities.ProfileMotivations]; m != "" {
			sg.Suggestions = append(sg.Suggestions, fmt.Sprintf("Use their motivation (%s) to set them against or beside another character", m))
		}
		if arc := c.Profile[entities.ProfileArc]; arc != "" {
			sg.Suggestions = append(sg.Suggestions, fmt.Sprintf("Tie their arc (%s) to an active conflict", arc))
		}
		for _, p := range d.SuggestedPartners {
			sg.Suggestions = append(sg.Suggestions, fmt.Sprintf("Explore a relationship with %s", nameOrID(n, p)))
		}
		if len(sg.Suggestions) == 0 {
			sg.Suggestions = []string{"Define what they want from the main cast"}
		}
		out = append(out, sg)
	}
	for _, d := range report.OverloadedCharacters.Details {
		sg := CharacterSuggestion{CharacterID: d.ID, Name: d.Name, Focus: "delegate"}
		sg.Suggestions = append(sg.Suggestions, fmt.Sprintf("Hand some of their %d conflicts to supporting characters", d.Conflicts))
		for _, p := range partnersExcept(partners, d.ID) {
			sg.Suggestions = append(sg.Suggestions, fmt.Sprintf("Let %s carry one of their storylines", nameOrID(n, p)))
		}
		out = append(out, sg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CharacterID < out[j].CharacterID })
	return out
}

func nameOrID(n *entities.Network, id string) string {
	if c, err := n.Character(id); err == nil {
		return c.Name
	}
	return id
}

func conflictStrategies(v *networkView, report *DiagnosticsReport) []ConflictStrategy {
	byID := make(map[string]entities.Conflict, len(v.conflicts))
	for _, c := range v.conflicts {
		byID[c.ID] = c
	}

	seen := make(map[string]bool)
	var ids []string
	for _, id := range report.AbandonedConflicts.IDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range report.WeakConnections.WeakConflicts {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := []ConflictStrategy{}
	for _, id := range ids {
		c := byID[id]
		st := ConflictStrategy{
			ConflictID:          c.ID,
			Name:                c.Name,
			CurrentPhase:        c.Phase,
			SuggestedPhase:      c.Phase.Next(),
			CharactersToInvolve: charactersToInvolve(v, c),
		}
		switch {
		case len(c.RelatedRelationships) == 0:
			st.Strategy = "Anchor the conflict in an existing relationship between its participants"
		case c.Strength <= report.WeakConnections.Threshold:
			st.Strategy = "Raise the stakes so the outcome costs someone something"
		default:
			st.Strategy = "Return to the conflict with a new development"
		}
		out = append(out, st)
	}
	return out
}

// charactersToInvolve returns up to three characters related to the
// participants but not yet involved.
func charactersToInvolve(v *networkView, c entities.Conflict) []string {
	set := make(map[string]struct{})
	for _, r := range v.relationships {
		switch {
		case c.Involves(r.Source) && !c.Involves(r.Target):
			set[r.Target] = struct{}{}
		case c.Involves(r.Target) && !c.Involves(r.Source):
			set[r.Source] = struct{}{}
		}
	}
	ids := sortedSet(set)
	if len(ids) > maxSuggestedPartners {
		ids = ids[:maxSuggestedPartners]
	}
	return ids
}

func summarizeTreatment(report *DiagnosticsReport, recs *Recommendations) TreatmentSummary {
	sum := TreatmentSummary{
		TotalIssues: len(report.StructuralIssues),
		QuickFixes:  len(recs.QuickFixes),
	}
	for _, a := range recs.PrioritizedActions {
		switch a.Priority {
		case PriorityHigh:
			sum.HighPriority++
		case PriorityMedium:
			sum.MediumPriority++
		default:
			sum.LowPriority++
		}
	}
	sum.Text = fmt.Sprintf(
		"%d issues produced %d recommendations: %d high, %d medium and %d low priority. %d quick fixes available.",
		sum.TotalIssues, len(recs.PrioritizedActions), sum.HighPriority, sum.MediumPriority, sum.LowPriority, sum.QuickFixes,
	)
	return sum
}

func projectOutlook(report *DiagnosticsReport, recs *Recommendations) Outlook {
	current := report.OverallHealthScore
	potential := round2(100 - current)

	feasibility := "high"
	realistic := 0.7
	if total := len(recs.PrioritizedActions); total > 0 {
		switch share := float64(len(recs.QuickFixes)) / float64(total); {
		case share >= 0.5:
		case share >= 0.25:
			feasibility, realistic = "medium", 0.5
		default:
			feasibility, realistic = "low", 0.3
		}
	}

	return Outlook{
		CurrentScore:         current,
		ImprovementPotential: potential,
		Feasibility:          feasibility,
		PessimisticScore:     round2(current + potential*0.25),
		RealisticScore:       round2(current + potential*realistic),
		OptimisticScore:      round2(current + potential*0.9),
	}
}
