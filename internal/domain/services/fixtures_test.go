package services

import (
	"testing"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/stretchr/testify/require"
)

// networkBuilder keeps fixture setup terse. Every call goes through the
// validated add path and fails the test on error.
type networkBuilder struct {
	t *testing.T
	n *entities.Network
}

func newBuilder(t *testing.T, name string) *networkBuilder {
	t.Helper()
	return &networkBuilder{t: t, n: entities.NewNetwork(name)}
}

func (b *networkBuilder) character(ids ...string) *networkBuilder {
	b.t.Helper()
	for _, id := range ids {
		require.NoError(b.t, b.n.AddCharacter(entities.Character{ID: id, Name: titleCase(id)}))
	}
	return b
}

func (b *networkBuilder) rel(id, src, tgt string, typ entities.RelationType, strength int) *networkBuilder {
	b.t.Helper()
	nature := entities.NaturePositive
	if typ == entities.RelationEnmity || typ == entities.RelationRivalry {
		nature = entities.NatureNegative
	}
	require.NoError(b.t, b.n.AddRelationship(entities.Relationship{
		ID: id, Source: src, Target: tgt, Type: typ, Nature: nature, Strength: strength,
	}))
	return b
}

func (b *networkBuilder) conflict(id string, strength int, phase entities.Phase, involved []string, related ...string) *networkBuilder {
	b.t.Helper()
	require.NoError(b.t, b.n.AddConflict(entities.Conflict{
		ID:                   id,
		Name:                 titleCase(id),
		InvolvedCharacters:   involved,
		Subject:              entities.SubjectPower,
		Scope:                entities.ScopeInterpersonal,
		Phase:                phase,
		Strength:             strength,
		RelatedRelationships: related,
	}))
	return b
}

func (b *networkBuilder) build() *entities.Network { return b.n }

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// scenarioNetwork has three characters, a love (8) and an enmity (9)
// relationship, and one conflict between bob and carol backed by the enmity.
func scenarioNetwork(t *testing.T) *entities.Network {
	t.Helper()
	return newBuilder(t, "scenario").
		character("alice", "bob", "carol").
		rel("r1", "alice", "bob", entities.RelationLove, 8).
		rel("r2", "bob", "carol", entities.RelationEnmity, 9).
		conflict("c1", 7, entities.PhaseEscalating, []string{"bob", "carol"}, "r2").
		build()
}

// richNetwork exercises every diagnostic category at once.
func richNetwork(t *testing.T) *entities.Network {
	t.Helper()
	return newBuilder(t, "rich").
		character("alice", "bob", "carol", "dave", "erin", "frank", "gina", "hank", "iris").
		rel("r1", "alice", "bob", entities.RelationLove, 8).
		rel("r2", "bob", "carol", entities.RelationEnmity, 9).
		rel("r3", "alice", "bob", entities.RelationLove, 6).
		rel("r4", "bob", "erin", entities.RelationAlliance, 7).
		rel("r5", "bob", "frank", entities.RelationKinship, 7).
		rel("r6", "dave", "alice", entities.RelationOther, 2).
		rel("r7", "gina", "hank", entities.RelationRivalry, 8).
		conflict("c1", 7, entities.PhaseEscalating, []string{"bob", "carol"}, "r2").
		conflict("c2", 6, entities.PhaseClimactic, []string{"bob", "carol"}).
		conflict("c3", 2, entities.PhaseLatent, []string{"bob", "erin"}, "r4").
		conflict("c4", 5, entities.PhaseResolved, []string{"frank"}).
		build()
}

func mustDiagnose(t *testing.T, n *entities.Network) *DiagnosticsReport {
	t.Helper()
	report, err := NewDiagnosticsService(DefaultAnalysisConfig()).RunAllDiagnostics(n)
	require.NoError(t, err)
	return report
}
