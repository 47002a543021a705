package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/mocks"
)

func newTestNetworkService(t *testing.T) (*NetworkService, *mocks.NetworkStore) {
	t.Helper()
	store := mocks.NewNetworkStore()
	svc := NewNetworkService(store)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestNetworkService_Create(t *testing.T) {
	svc, store := newTestNetworkService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, "  elsinore ")
	require.NoError(t, err)
	assert.Equal(t, "elsinore", n.Name())
	assert.Contains(t, store.Networks, "elsinore")
	assert.Equal(t, []string{entities.AuditCreateNetwork}, store.Actions())

	_, err = svc.Create(ctx, "elsinore")
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = svc.Create(ctx, " ")
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestNetworkService_Mutations(t *testing.T) {
	svc, store := newTestNetworkService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "elsinore")
	require.NoError(t, err)

	hamlet, err := svc.AddCharacter(ctx, "elsinore", entities.Character{ID: "hamlet", Name: " Hamlet "})
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", hamlet.Name)

	ghost, err := svc.AddCharacter(ctx, "elsinore", entities.Character{Name: "Ghost"})
	require.NoError(t, err)
	assert.Regexp(t, `^char-[0-9a-f]{8}$`, ghost.ID)

	rel, err := svc.AddRelationship(ctx, "elsinore", entities.Relationship{
		Source: ghost.ID, Target: "hamlet", Type: entities.RelationKinship, Nature: entities.NaturePositive, Strength: 9,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^rel-`, rel.ID)

	conflict, err := svc.AddConflict(ctx, "elsinore", entities.Conflict{
		ID: "vengeance", Name: "Vengeance", InvolvedCharacters: []string{"hamlet"},
		Subject: entities.SubjectPower, Scope: entities.ScopePersonal, Phase: entities.PhaseLatent, Strength: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "vengeance", conflict.ID)

	require.NoError(t, svc.SetProfileField(ctx, "elsinore", "hamlet", entities.ProfilePersonality, "brooding"))
	require.NoError(t, svc.SetRelationshipStrength(ctx, "elsinore", rel.ID, 10))
	require.NoError(t, svc.InvolveCharacter(ctx, "elsinore", "vengeance", ghost.ID))
	require.NoError(t, svc.LinkRelationship(ctx, "elsinore", "vengeance", rel.ID))
	require.NoError(t, svc.SetConflictPhase(ctx, "elsinore", "vengeance", entities.PhaseEscalating))
	require.NoError(t, svc.TouchConflict(ctx, "elsinore", "vengeance", time.Time{}))

	n, err := svc.Load(ctx, "elsinore")
	require.NoError(t, err)
	c, err := n.Conflict("vengeance")
	require.NoError(t, err)
	assert.Equal(t, entities.PhaseEscalating, c.Phase)
	assert.Equal(t, []string{rel.ID}, c.RelatedRelationships)
	assert.Equal(t, []time.Time{svc.now()}, c.Timestamps)
	h, err := n.Character("hamlet")
	require.NoError(t, err)
	assert.Equal(t, "brooding", h.Profile[entities.ProfilePersonality])

	// Dependents block removal and nothing is saved.
	saves := store.SaveCount
	err = svc.RemoveCharacter(ctx, "elsinore", ghost.ID)
	assert.ErrorIs(t, err, entities.ErrDependency)
	assert.Equal(t, saves, store.SaveCount)

	require.NoError(t, svc.UnlinkRelationship(ctx, "elsinore", "vengeance", rel.ID))
	require.NoError(t, svc.ReleaseCharacter(ctx, "elsinore", "vengeance", ghost.ID))
	require.NoError(t, svc.RemoveRelationship(ctx, "elsinore", rel.ID))
	require.NoError(t, svc.RemoveCharacter(ctx, "elsinore", ghost.ID))
	require.NoError(t, svc.SetProfileField(ctx, "elsinore", "hamlet", entities.ProfilePersonality, ""))
	require.NoError(t, svc.RemoveConflict(ctx, "elsinore", "vengeance"))

	n, err = svc.Load(ctx, "elsinore")
	require.NoError(t, err)
	chars, rels, conflicts := n.Counts()
	assert.Equal(t, []int{1, 0, 0}, []int{chars, rels, conflicts})

	history, err := svc.History(ctx, "elsinore", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entities.AuditRemoveConflict, history[0].Action)
	assert.Equal(t, entities.AuditSetProfile, history[1].Action)
}

func TestNetworkService_MissingNetwork(t *testing.T) {
	svc, _ := newTestNetworkService(t)

	_, err := svc.AddCharacter(context.Background(), "nowhere", entities.Character{ID: "a", Name: "A"})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestNetworkService_AuditFailureIsNotFatal(t *testing.T) {
	svc, store := newTestNetworkService(t)
	store.LogErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), "elsinore")
	require.NoError(t, err)
	assert.Empty(t, store.Audit)
}

func TestNetworkService_SaveFailure(t *testing.T) {
	svc, store := newTestNetworkService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "elsinore")
	require.NoError(t, err)

	store.SaveErr = errors.New("locked")
	_, err = svc.AddCharacter(ctx, "elsinore", entities.Character{ID: "a", Name: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving network: locked")
}

func TestNetworkService_Import(t *testing.T) {
	state := scenarioNetwork(t).State()

	tests := []struct {
		name     string
		existing bool
		opts     ImportOptions
		mutate   func(s *entities.NetworkState)
		wantKind entities.ErrorKind
	}{
		{name: "new network", opts: ImportOptions{}},
		{name: "renamed", opts: ImportOptions{Name: "copy"}},
		{name: "existing without replace", existing: true, wantKind: entities.KindValidation},
		{name: "existing with replace", existing: true, opts: ImportOptions{Replace: true}},
		{
			name: "invalid document",
			mutate: func(s *entities.NetworkState) {
				s.Relationships[0].Strength = 0
			},
			wantKind: entities.KindValidation,
		},
		{
			name:     "missing name",
			mutate:   func(s *entities.NetworkState) { s.Name = "" },
			wantKind: entities.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestNetworkService(t)
			ctx := context.Background()
			if tt.existing {
				_, err := svc.Create(ctx, "scenario")
				require.NoError(t, err)
			}
			doc := state.Clone()
			if tt.mutate != nil {
				tt.mutate(&doc)
			}

			n, err := svc.Import(ctx, doc, tt.opts)

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, entities.KindOf(err))
				return
			}
			require.NoError(t, err)
			chars, _, _ := n.Counts()
			assert.Equal(t, 3, chars)
			assert.Contains(t, store.Networks, n.Name())
			assert.Equal(t, entities.AuditImportNetwork, store.Audit[len(store.Audit)-1].Action)
		})
	}
}

func TestNetworkService_Snapshots(t *testing.T) {
	svc, store := newTestNetworkService(t)
	ctx := context.Background()
	_, err := svc.Import(ctx, scenarioNetwork(t).State(), ImportOptions{})
	require.NoError(t, err)

	snap, err := svc.CreateSnapshot(ctx, "scenario", "draft 1")
	require.NoError(t, err)
	assert.Equal(t, svc.now(), snap.CreatedAt)

	_, err = svc.CreateSnapshot(ctx, "scenario", "draft 1")
	assert.ErrorIs(t, err, entities.ErrValidation)

	require.NoError(t, svc.SetRelationshipStrength(ctx, "scenario", "r1", 2))

	snaps, err := svc.ListSnapshots(ctx, "scenario")
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	restored, err := svc.RestoreSnapshot(ctx, "scenario", "draft 1")
	require.NoError(t, err)
	r1, err := restored.Relationship("r1")
	require.NoError(t, err)
	assert.Equal(t, 8, r1.Strength)
	assert.Len(t, restored.Snapshots(), 1)
	assert.Equal(t, 8, store.Networks["scenario"].Relationships[0].Strength)

	_, err = svc.RestoreSnapshot(ctx, "scenario", "missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestNetworkService_ListAndDelete(t *testing.T) {
	svc, _ := newTestNetworkService(t)
	ctx := context.Background()
	for _, name := range []string{"macbeth", "hamlet"} {
		_, err := svc.Create(ctx, name)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hamlet", list[0].Name)

	require.NoError(t, svc.Delete(ctx, "hamlet"))
	assert.ErrorIs(t, svc.Delete(ctx, "hamlet"), entities.ErrNotFound)

	_, err = svc.Load(ctx, "hamlet")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
