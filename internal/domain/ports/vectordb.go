package ports

import "context"

// ProfileVector is an embedded character profile.
type ProfileVector struct {
	Network     string
	CharacterID string
	Name        string
	Vector      []float32
}

// ProfileMatch is a character whose profile is close to a query vector.
type ProfileMatch struct {
	CharacterID string  `json:"character_id"`
	Name        string  `json:"name"`
	Score       float32 `json:"score"`
}

// ProfileIndex stores character profile embeddings for similarity search.
type ProfileIndex interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// Upsert stores or replaces profile vectors.
	Upsert(ctx context.Context, vectors []ProfileVector) error

	// Search returns the profiles of a network closest to the vector.
	Search(ctx context.Context, network string, vector []float32, limit int) ([]ProfileMatch, error)

	// DeleteNetwork removes every profile of a network.
	DeleteNetwork(ctx context.Context, network string) error
}
