package services

import (
	"testing"
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllDiagnostics_Scenario(t *testing.T) {
	report := mustDiagnose(t, scenarioNetwork(t))

	assert.Equal(t, 0, report.IsolatedCharacters.TotalIsolated)
	assert.Equal(t, 0, report.WeakConnections.TotalWeak)
	assert.Equal(t, 0, report.AbandonedConflicts.TotalAbandoned)
	assert.Equal(t, 0, report.OverloadedCharacters.TotalOverloaded)
	assert.Equal(t, []string{"alice"}, report.IsolatedCharacters.PeripheralCharacters)
	assert.Equal(t, []string{"bob"}, report.Structure.BottleneckCharacters)
	assert.Greater(t, report.OverallHealthScore, 50.0)
	assert.Equal(t, 100.0, report.OverallHealthScore)
	assert.Equal(t, CriticalityHealthy, report.CriticalityLevel)
}

func TestRunAllDiagnostics_UnlinkedConflictIsAbandoned(t *testing.T) {
	n := scenarioNetwork(t)
	require.NoError(t, n.UnlinkRelationship("c1", "r2"))

	report := mustDiagnose(t, n)

	assert.Equal(t, 1, report.AbandonedConflicts.TotalAbandoned)
	assert.Equal(t, []string{"c1"}, report.AbandonedConflicts.IDs)
	assert.Equal(t, ReasonNoLinkedRelationships, report.AbandonedConflicts.Details[0].Reason)
	assert.Equal(t, 80.0, report.OverallHealthScore)
	assert.Equal(t, CriticalityMild, report.CriticalityLevel)
}

func TestRunAllDiagnostics_ResolvedConflictIsNotAbandoned(t *testing.T) {
	n := scenarioNetwork(t)
	require.NoError(t, n.UnlinkRelationship("c1", "r2"))
	require.NoError(t, n.SetConflictPhase("c1", entities.PhaseResolved))

	report := mustDiagnose(t, n)

	assert.Equal(t, 0, report.AbandonedConflicts.TotalAbandoned)
}

func TestRunAllDiagnostics_Rich(t *testing.T) {
	report := mustDiagnose(t, richNetwork(t))

	assert.Equal(t, []string{"iris"}, report.IsolatedCharacters.IDs)
	assert.Equal(t, 1, report.IsolatedCharacters.TotalIsolated)
	assert.Equal(t, []string{"dave"}, report.IsolatedCharacters.WeaklyConnected)
	assert.Equal(t, []string{"alice", "gina", "hank"}, report.IsolatedCharacters.PeripheralCharacters)
	assert.Equal(t, []string{"c2"}, report.AbandonedConflicts.IDs)
	assert.Equal(t, []string{"bob"}, report.OverloadedCharacters.IDs)
	assert.Equal(t, []string{"r6"}, report.WeakConnections.IDs)
	assert.Equal(t, []string{"c3"}, report.WeakConnections.WeakConflicts)
	assert.Equal(t, 2, report.WeakConnections.TotalWeak)
	assert.Equal(t, 2, report.RedundancyIssues.TotalRedundant)
	assert.Equal(t, []string{"r1", "r3"}, report.RedundancyIssues.RelationshipGroups[0].IDs)
	assert.Equal(t, []string{"c1", "c2"}, report.RedundancyIssues.ConflictGroups[0].IDs)
	assert.Equal(t, 4, report.Structure.ComponentCount)
	assert.Equal(t, []string{"gina", "hank"}, report.Structure.DisconnectedCharacters)
	assert.Equal(t, []string{"bob"}, report.Structure.BottleneckCharacters)

	var iris IsolatedCharacter
	for _, d := range report.IsolatedCharacters.Details {
		if d.ID == "iris" {
			iris = d
		}
	}
	assert.Equal(t, []string{"gina", "hank", "alice"}, iris.SuggestedPartners)

	ids := make([]string, len(report.StructuralIssues))
	for i, issue := range report.StructuralIssues {
		ids[i] = issue.ID
	}
	assert.Equal(t, []string{
		"abandoned_conflict:c2",
		"disconnected_component:gina",
		"isolated_character:iris",
		"bottleneck_character:bob",
		"duplicate_conflicts:c1",
		"overloaded_character:bob",
		"weakly_connected_character:dave",
		"duplicate_relationships:r1",
		"weak_conflict:c3",
		"weak_relationship:r6",
	}, ids)
	assert.Equal(t, SeverityCritical, report.StructuralIssues[0].Severity)

	assert.InDelta(t, 80.18, report.OverallHealthScore, 0.05)
	assert.Equal(t, CriticalityMild, report.CriticalityLevel)
	assert.Contains(t, report.Summary, "1 isolated")
	assert.Contains(t, report.Summary, "1 abandoned conflicts")
}

func TestRunAllDiagnostics_Overload(t *testing.T) {
	tests := []struct {
		name    string
		network func(t *testing.T) *entities.Network
		want    []string
		skipped bool
	}{
		{
			name: "hub is overloaded",
			network: func(t *testing.T) *entities.Network {
				return newBuilder(t, "star").
					character("hub", "l1", "l2", "l3", "l4", "l5", "l6").
					rel("r1", "hub", "l1", entities.RelationAlliance, 8).
					rel("r2", "hub", "l2", entities.RelationAlliance, 8).
					rel("r3", "hub", "l3", entities.RelationAlliance, 8).
					rel("r4", "hub", "l4", entities.RelationAlliance, 8).
					rel("r5", "hub", "l5", entities.RelationAlliance, 8).
					rel("r6", "hub", "l6", entities.RelationAlliance, 8).
					build()
			},
			want: []string{"hub"},
		},
		{
			name: "uniform network flags nobody",
			network: func(t *testing.T) *entities.Network {
				return newBuilder(t, "ring").
					character("a", "b", "c", "d").
					rel("r1", "a", "b", entities.RelationAlliance, 8).
					rel("r2", "b", "c", entities.RelationAlliance, 8).
					rel("r3", "c", "d", entities.RelationAlliance, 8).
					rel("r4", "d", "a", entities.RelationAlliance, 8).
					build()
			},
			want: []string{},
		},
		{
			name: "small network is skipped",
			network: func(t *testing.T) *entities.Network {
				return newBuilder(t, "pair").
					character("a", "b").
					rel("r1", "a", "b", entities.RelationLove, 9).
					build()
			},
			want:    []string{},
			skipped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := mustDiagnose(t, tt.network(t))
			assert.Equal(t, tt.want, report.OverloadedCharacters.IDs)
			assert.Equal(t, tt.skipped, report.OverloadedCharacters.Skipped)
		})
	}
}

func TestRunAllDiagnostics_StaleConflict(t *testing.T) {
	n := scenarioNetwork(t)
	require.NoError(t, n.TouchConflict("c1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	cfg := DefaultAnalysisConfig()
	cfg.StaleAfter = 72 * time.Hour
	cfg.AsOf = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	report, err := NewDiagnosticsService(cfg).RunAllDiagnostics(n)
	require.NoError(t, err)

	require.Equal(t, 1, report.AbandonedConflicts.TotalAbandoned)
	assert.Equal(t, ReasonStale, report.AbandonedConflicts.Details[0].Reason)
	assert.Equal(t, 9, report.AbandonedConflicts.Details[0].DaysInactive)

	// Without a reference time the recency check is off.
	cfg.AsOf = time.Time{}
	report, err = NewDiagnosticsService(cfg).RunAllDiagnostics(n)
	require.NoError(t, err)
	assert.Equal(t, 0, report.AbandonedConflicts.TotalAbandoned)
}

func TestRunAllDiagnostics_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		network *entities.Network
	}{
		{name: "empty network", network: entities.NewNetwork("empty")},
		{name: "single character", network: newBuilder(t, "solo").character("alone").build()},
		{name: "scenario", network: scenarioNetwork(t)},
		{name: "rich", network: richNetwork(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := mustDiagnose(t, tt.network)
			assert.GreaterOrEqual(t, report.OverallHealthScore, 0.0)
			assert.LessOrEqual(t, report.OverallHealthScore, 100.0)
			assert.NotEmpty(t, report.Summary)
		})
	}
}

func TestRunAllDiagnostics_Deterministic(t *testing.T) {
	svc := NewDiagnosticsService(DefaultAnalysisConfig())
	n := richNetwork(t)

	first, err := svc.RunAllDiagnostics(n)
	require.NoError(t, err)
	second, err := svc.RunAllDiagnostics(n)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("diagnostics not deterministic (-first +second):\n%s", diff)
	}

	// A network rebuilt in a different insertion order yields the same report.
	state := n.State()
	for i, j := 0, len(state.Characters)-1; i < j; i, j = i+1, j-1 {
		state.Characters[i], state.Characters[j] = state.Characters[j], state.Characters[i]
	}
	rebuilt, err := entities.NewNetworkFromState(state)
	require.NoError(t, err)
	third, err := svc.RunAllDiagnostics(rebuilt)
	require.NoError(t, err)
	if diff := cmp.Diff(first, third); diff != "" {
		t.Errorf("diagnostics depend on insertion order (-first +third):\n%s", diff)
	}
}

func TestRunAllDiagnostics_AddingWeakRelationshipNeverHelps(t *testing.T) {
	fixtures := map[string]func(t *testing.T) *entities.Network{
		"scenario": scenarioNetwork,
		"rich":     richNetwork,
	}

	for name, build := range fixtures {
		chars := build(t).Characters()
		for _, src := range chars {
			for _, tgt := range chars {
				if src.ID == tgt.ID {
					continue
				}
				t.Run(name+"/"+src.ID+"->"+tgt.ID, func(t *testing.T) {
					n := build(t)
					before := mustDiagnose(t, n)

					require.NoError(t, n.AddRelationship(entities.Relationship{
						ID: "weak-probe", Source: src.ID, Target: tgt.ID,
						Type: entities.RelationOther, Nature: entities.NatureAmbivalent, Strength: 2,
					}))
					after := mustDiagnose(t, n)

					assert.Equal(t, before.WeakConnections.TotalWeak+1, after.WeakConnections.TotalWeak)
					assert.LessOrEqual(t, after.OverallHealthScore, before.OverallHealthScore)
				})
			}
		}
	}
}

func TestRunAllDiagnostics_InvalidInput(t *testing.T) {
	_, err := NewDiagnosticsService(DefaultAnalysisConfig()).RunAllDiagnostics(nil)
	assert.ErrorIs(t, err, entities.ErrValidation)

	cfg := DefaultAnalysisConfig()
	cfg.WeakStrength = -1
	_, err = NewDiagnosticsService(cfg).RunAllDiagnostics(scenarioNetwork(t))
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestCriticalityFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Criticality
	}{
		{100, CriticalityHealthy},
		{85, CriticalityHealthy},
		{84.99, CriticalityMild},
		{70, CriticalityMild},
		{50, CriticalityModerate},
		{30, CriticalitySevere},
		{29.9, CriticalityCritical},
		{0, CriticalityCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CriticalityFor(tt.score), "score %v", tt.score)
	}
}
