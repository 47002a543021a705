package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/mocks"
	"github.com/ersonp/dramanet/internal/domain/ports"
)

func TestProfileService_IndexNetwork(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2, 0.3}}
	index := &mocks.ProfileIndex{}
	svc := NewProfileService(embedder, index)

	count, err := svc.IndexNetwork(context.Background(), scenarioNetwork(t))

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"scenario"}, index.DeletedNetworks)
	assert.Equal(t, uint64(3), index.VectorSize)
	require.Len(t, index.Upserted, 3)
	assert.Equal(t, ports.ProfileVector{
		Network: "scenario", CharacterID: "alice", Name: "Alice", Vector: []float32{0.1, 0.2, 0.3},
	}, index.Upserted[0])
	assert.Len(t, embedder.Texts, 3)
}

func TestProfileService_IndexNetwork_Empty(t *testing.T) {
	embedder := &mocks.Embedder{}
	index := &mocks.ProfileIndex{}

	count, err := NewProfileService(embedder, index).IndexNetwork(context.Background(), entities.NewNetwork("empty"))

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, []string{"empty"}, index.DeletedNetworks)
	assert.Empty(t, embedder.Texts)
	assert.Empty(t, index.Upserted)
}

func TestProfileService_IndexNetwork_Errors(t *testing.T) {
	tests := []struct {
		name     string
		embedder *mocks.Embedder
		index    *mocks.ProfileIndex
		wantErr  string
	}{
		{
			name:     "delete fails",
			embedder: &mocks.Embedder{EmbeddingResult: []float32{1}},
			index:    &mocks.ProfileIndex{DeleteErr: errors.New("offline")},
			wantErr:  "clearing profiles: offline",
		},
		{
			name:     "embedding fails",
			embedder: &mocks.Embedder{Err: errors.New("rate limited")},
			index:    &mocks.ProfileIndex{},
			wantErr:  "embedding profiles: rate limited",
		},
		{
			name:     "collection fails",
			embedder: &mocks.Embedder{EmbeddingResult: []float32{1}},
			index:    &mocks.ProfileIndex{EnsureErr: errors.New("bad size")},
			wantErr:  "ensuring collection: bad size",
		},
		{
			name:     "upsert fails",
			embedder: &mocks.Embedder{EmbeddingResult: []float32{1}},
			index:    &mocks.ProfileIndex{UpsertErr: errors.New("full")},
			wantErr:  "storing profiles: full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfileService(tt.embedder, tt.index).IndexNetwork(context.Background(), scenarioNetwork(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := NewProfileService(&mocks.Embedder{}, &mocks.ProfileIndex{}).IndexNetwork(context.Background(), nil)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestProfileService_FindSimilar(t *testing.T) {
	index := &mocks.ProfileIndex{Matches: []ports.ProfileMatch{
		{CharacterID: "bob", Name: "Bob", Score: 0.99},
		{CharacterID: "alice", Name: "Alice", Score: 0.8},
		{CharacterID: "carol", Name: "Carol", Score: 0.5},
	}}
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1, 0}}
	svc := NewProfileService(embedder, index)
	n := scenarioNetwork(t)

	matches, err := svc.FindSimilar(context.Background(), n, "bob", 2)

	require.NoError(t, err)
	assert.Equal(t, 3, index.SearchLimit)
	require.Len(t, matches, 2)
	assert.Equal(t, "alice", matches[0].CharacterID)
	assert.Equal(t, "carol", matches[1].CharacterID)
	bob, err := n.Character("bob")
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ProfileText()}, embedder.Texts)

	_, err = svc.FindSimilar(context.Background(), n, "nobody", 2)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = svc.FindSimilar(context.Background(), n, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSimilarLimit+1, index.SearchLimit)
}

func TestProfileService_Search(t *testing.T) {
	index := &mocks.ProfileIndex{Matches: []ports.ProfileMatch{{CharacterID: "carol", Name: "Carol", Score: 0.7}}}
	svc := NewProfileService(&mocks.Embedder{EmbeddingResult: []float32{1}}, index)

	matches, err := svc.Search(context.Background(), "scenario", "a vengeful heir", 0)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, DefaultSimilarLimit, index.SearchLimit)

	_, err = svc.Search(context.Background(), "scenario", "", 3)
	assert.Error(t, err)

	index.SearchErr = errors.New("timeout")
	_, err = svc.Search(context.Background(), "scenario", "anyone", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searching profiles: timeout")
}
