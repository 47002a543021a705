package format_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/domain/services"
	"github.com/ersonp/dramanet/internal/format"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    format.Mode
		wantErr bool
	}{
		{input: "", want: format.ASCII},
		{input: "table", want: format.ASCII},
		{input: "Markdown", want: format.Markdown},
		{input: "md", want: format.Markdown},
		{input: "json", want: format.JSON},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := format.ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("ID", "Name", "Strength")
	tb.Row("r1", "Hamlet → Claudius", 9)
	out := tb.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Hamlet → Claudius")
	assert.Contains(t, out, "───")
	assert.Equal(t, 1, tb.Len())
}

func TestMarkdown_WithTitleAndFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Title("Health")
	tb.Header("Component", "Penalty")
	tb.Row("unanchored", 2.78)
	tb.Footer("Total", 2.78)
	out := tb.String()

	assert.True(t, strings.HasPrefix(out, "### Health"))
	assert.Contains(t, out, "| Component")
	assert.Contains(t, out, "---")
	assert.Contains(t, out, "Total")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "-", format.List(nil))
	assert.Equal(t, "a, b", format.List([]string{"a", "b"}))
	assert.Equal(t, "42.5%", format.Percent(0.425))
	assert.Equal(t, "80.18", format.Score(80.1789))
	assert.Equal(t, "Rosen...", format.Truncate("Rosencrantz", 8))
	assert.Equal(t, "Ros", format.Truncate("Rosencrantz", 3))
	assert.Equal(t, "Yorick", format.Truncate("Yorick", 10))
	assert.Equal(t, "✓", format.BoolMark(true))
}

func scenario(t *testing.T) *entities.Network {
	t.Helper()
	n := entities.NewNetwork("elsinore")
	for _, id := range []string{"hamlet", "claudius", "horatio"} {
		require.NoError(t, n.AddCharacter(entities.Character{ID: id, Name: strings.ToUpper(id[:1]) + id[1:]}))
	}
	require.NoError(t, n.AddRelationship(entities.Relationship{ID: "r1", Source: "hamlet", Target: "claudius", Type: entities.RelationEnmity, Nature: entities.NatureNegative, Strength: 9}))
	require.NoError(t, n.AddRelationship(entities.Relationship{ID: "r2", Source: "horatio", Target: "hamlet", Type: entities.RelationOther, Nature: entities.NaturePositive, Strength: 2}))
	require.NoError(t, n.AddConflict(entities.Conflict{
		ID: "c1", Name: "The Crown", InvolvedCharacters: []string{"hamlet", "claudius"},
		Subject: entities.SubjectPower, Scope: entities.ScopeInterpersonal, Phase: entities.PhaseEscalating, Strength: 8,
	}))
	return n
}

func TestReports(t *testing.T) {
	n := scenario(t)
	cfg := services.DefaultAnalysisConfig()

	report, err := services.NewDiagnosticsService(cfg).RunAllDiagnostics(n)
	require.NoError(t, err)
	recs, err := services.NewTreatmentService(cfg).AnalyzeAndRecommendTreatments(n, report)
	require.NoError(t, err)
	eff, err := services.NewEfficiencyService(cfg).AnalyzeEfficiency(n)
	require.NoError(t, err)

	t.Run("diagnostics", func(t *testing.T) {
		out := format.Diagnostics(report, format.ASCII)
		assert.Contains(t, out, "Diagnostics: elsinore")
		assert.Contains(t, out, "abandoned_conflict")
		assert.Contains(t, out, "Health breakdown")
	})

	t.Run("treatment markdown", func(t *testing.T) {
		out := format.Treatment(recs, format.Markdown)
		assert.Contains(t, out, "## Treatment: elsinore")
		assert.Contains(t, out, "### Prioritized actions")
		assert.Contains(t, out, "The Crown")
	})

	t.Run("efficiency", func(t *testing.T) {
		out := format.Efficiency(eff, format.ASCII)
		assert.Contains(t, out, "Conflict cohesion")
		assert.Contains(t, out, string(eff.OverallRating))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, format.WriteJSON(&buf, report))
		assert.Contains(t, buf.String(), `"overall_health_score"`)
	})
}

func TestListings(t *testing.T) {
	n := scenario(t)
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	snap, err := n.CreateSnapshot("act one", at)
	require.NoError(t, err)

	assert.Contains(t, format.Network(n, format.ASCII), "The Crown")
	assert.Contains(t, format.Snapshots([]entities.Snapshot{snap}, format.ASCII), "2024-05-01 09:30")
	assert.Contains(t, format.Networks([]ports.NetworkSummary{{Name: "elsinore", Characters: 3, UpdatedAt: at}}, format.ASCII), "elsinore")
	assert.Contains(t, format.Audit([]entities.AuditEntry{{Action: entities.AuditAddCharacter, EntityType: "character", EntityID: "hamlet", CreatedAt: at}}, format.ASCII), "character hamlet")
	assert.Contains(t, format.Matches([]ports.ProfileMatch{{CharacterID: "horatio", Name: "Horatio", Score: 0.9}}, format.ASCII), "0.900")
}

func TestEntityListings(t *testing.T) {
	n := scenario(t)

	rels := format.Relationships(n.Relationships(), format.ASCII)
	assert.Contains(t, rels, "enmity")

	conflicts := format.Conflicts(n.Conflicts(), format.Markdown)
	assert.Contains(t, conflicts, "| ID")
	assert.Contains(t, conflicts, "The Crown")

	narrated := format.Narrated([]services.NarratedAction{{
		Action:    services.TreatmentAction{ID: "weak_relationship:r1/strengthen"},
		Narrative: "Give the two a scene together.",
	}}, format.Markdown)
	assert.Contains(t, narrated, "1. **weak_relationship:r1/strengthen**: Give the two a scene together.")
	assert.Empty(t, format.Narrated(nil, format.ASCII))
}
