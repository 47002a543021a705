package qdrant

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

func TestNewRepository(t *testing.T) {
	t.Run("lazy connection", func(t *testing.T) {
		repo, err := NewRepository(config.QdrantConfig{Host: "localhost", Port: 6334, Collection: "dramanet_test"})
		require.NoError(t, err)
		assert.NoError(t, repo.Close())
	})

	t.Run("collection required", func(t *testing.T) {
		_, err := NewRepository(config.QdrantConfig{Host: "localhost", Port: 6334})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collection is required")
	})
}

func TestPointID(t *testing.T) {
	a := pointID("elsinore", "hamlet")

	assert.Equal(t, a, pointID("elsinore", "hamlet"))
	assert.NotEqual(t, a, pointID("elsinore", "horatio"))
	assert.NotEqual(t, a, pointID("arden", "hamlet"))
	assert.Len(t, a, 36)
}

func TestProfileToPoint(t *testing.T) {
	point := profileToPoint(ports.ProfileVector{
		Network:     "elsinore",
		CharacterID: "hamlet",
		Name:        "Hamlet",
		Vector:      []float32{0.1, 0.2},
	})

	assert.Equal(t, pointID("elsinore", "hamlet"), point.Id.GetUuid())
	assert.Equal(t, []float32{0.1, 0.2}, point.Vectors.GetVector().GetData())
	assert.Equal(t, "elsinore", getStringValue(point.Payload, "network"))
	assert.Equal(t, "hamlet", getStringValue(point.Payload, "character_id"))
	assert.Equal(t, "Hamlet", getStringValue(point.Payload, "name"))
}

func TestNetworkFilter(t *testing.T) {
	f := networkFilter("elsinore")

	require.Len(t, f.Must, 1)
	field := f.Must[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, "network", field.Key)
	assert.Equal(t, "elsinore", field.Match.GetKeyword())
}

func TestScoredPointsToMatches(t *testing.T) {
	points := []*pb.ScoredPoint{
		{
			Score: 0.93,
			Payload: map[string]*pb.Value{
				"character_id": {Kind: &pb.Value_StringValue{StringValue: "horatio"}},
				"name":         {Kind: &pb.Value_StringValue{StringValue: "Horatio"}},
			},
		},
		{Score: 0.5},
	}

	matches := scoredPointsToMatches(points)

	require.Len(t, matches, 2)
	assert.Equal(t, ports.ProfileMatch{CharacterID: "horatio", Name: "Horatio", Score: 0.93}, matches[0])
	assert.Empty(t, matches[1].CharacterID)
}
