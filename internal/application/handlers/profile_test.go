package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/mocks"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/domain/services"
)

func TestProfileHandler(t *testing.T) {
	svc, _ := importScenario(t)
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.5, 0.5}}
	index := &mocks.ProfileIndex{Matches: []ports.ProfileMatch{
		{CharacterID: "alice", Name: "Alice", Score: 1},
		{CharacterID: "carol", Name: "Carol", Score: 0.6},
	}}
	handler := NewProfileHandler(svc, services.NewProfileService(embedder, index))

	count, err := handler.HandleIndex(t.Context(), "scenario")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, index.Upserted, 3)

	similar, err := handler.HandleSimilar(t.Context(), "scenario", "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", similar.Character)
	require.Len(t, similar.Matches, 1)
	assert.Equal(t, "carol", similar.Matches[0].CharacterID)

	found, err := handler.HandleSearch(t.Context(), "scenario", "curious", 2)
	require.NoError(t, err)
	assert.Equal(t, "curious", found.Query)
	assert.Len(t, found.Matches, 2)

	_, err = handler.HandleIndex(t.Context(), "missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
