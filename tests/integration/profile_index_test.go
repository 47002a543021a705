package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// keywordEmbedder maps text onto four fixed themes so similarity is
// predictable without an embedding API.
type keywordEmbedder struct{}

var themes = [testVectorSize]string{"revenge", "love", "power", "grief"}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, testVectorSize)
	lower := strings.ToLower(text)
	for i, theme := range themes {
		v[i] = float32(strings.Count(lower, theme)) + 0.01
	}
	return v, nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestProfileIndex_SearchIsScopedToNetwork(t *testing.T) {
	ctx := t.Context()
	cleanupNetwork(t, "it-north")
	cleanupNetwork(t, "it-south")

	err := testIndex.Upsert(ctx, []ports.ProfileVector{
		{Network: "it-north", CharacterID: "a", Name: "A", Vector: []float32{1, 0, 0, 0}},
		{Network: "it-north", CharacterID: "b", Name: "B", Vector: []float32{0, 1, 0, 0}},
		{Network: "it-south", CharacterID: "a", Name: "Other A", Vector: []float32{1, 0, 0, 0}},
	})
	require.NoError(t, err)

	matches, err := testIndex.Search(ctx, "it-north", []float32{1, 0.1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].CharacterID)
	assert.Equal(t, "A", matches[0].Name)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	require.NoError(t, testIndex.DeleteNetwork(ctx, "it-north"))

	matches, err = testIndex.Search(ctx, "it-north", []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = testIndex.Search(ctx, "it-south", []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestProfileService_FindSimilar(t *testing.T) {
	ctx := t.Context()
	cleanupNetwork(t, "it-elsinore")

	n := entities.NewNetwork("it-elsinore")
	for _, c := range []entities.Character{
		{ID: "hamlet", Name: "Hamlet", Description: "seeks revenge, consumed by grief"},
		{ID: "laertes", Name: "Laertes", Description: "seeks revenge for his father, grief for his sister"},
		{ID: "ophelia", Name: "Ophelia", Description: "love and more love"},
		{ID: "claudius", Name: "Claudius", Description: "clings to power"},
	} {
		require.NoError(t, n.AddCharacter(c))
	}

	svc := services.NewProfileService(keywordEmbedder{}, testIndex)

	count, err := svc.IndexNetwork(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	matches, err := svc.FindSimilar(ctx, n, "hamlet", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "laertes", matches[0].CharacterID)
	for _, m := range matches {
		assert.NotEqual(t, "hamlet", m.CharacterID)
	}

	matches, err = svc.Search(ctx, "it-elsinore", "a hunger for power", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "claudius", matches[0].CharacterID)

	// Reindexing replaces earlier entries instead of duplicating them.
	require.NoError(t, n.RemoveCharacter("ophelia"))
	count, err = svc.IndexNetwork(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	matches, err = svc.Search(ctx, "it-elsinore", "love", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
