package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/logging"
)

// DefaultSimilarLimit is the number of matches returned when no limit is given.
const DefaultSimilarLimit = 5

// ProfileService indexes character profiles and finds characters with
// similar profiles, e.g. to spot near-duplicate characters or candidate
// partners for an isolated one.
type ProfileService struct {
	embedder ports.Embedder
	index    ports.ProfileIndex
	logger   *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(embedder ports.Embedder, index ports.ProfileIndex) *ProfileService {
	return &ProfileService{
		embedder: embedder,
		index:    index,
		logger:   logging.New("profiles"),
	}
}

// IndexNetwork replaces the indexed profiles of the network with its
// current characters. Returns the number of profiles indexed.
func (s *ProfileService) IndexNetwork(ctx context.Context, n *entities.Network) (int, error) {
	if n == nil {
		return 0, entities.NewValidationError("network", "", "network is required")
	}
	chars := n.Characters()

	if err := s.index.DeleteNetwork(ctx, n.Name()); err != nil {
		return 0, fmt.Errorf("clearing profiles: %w", err)
	}
	if len(chars) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chars))
	for i, c := range chars {
		texts[i] = c.ProfileText()
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding profiles: %w", err)
	}
	if len(vectors) != len(chars) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(chars), len(vectors))
	}

	if err := s.index.EnsureCollection(ctx, uint64(len(vectors[0]))); err != nil {
		return 0, fmt.Errorf("ensuring collection: %w", err)
	}

	points := make([]ports.ProfileVector, len(chars))
	for i, c := range chars {
		points[i] = ports.ProfileVector{
			Network:     n.Name(),
			CharacterID: c.ID,
			Name:        c.Name,
			Vector:      vectors[i],
		}
	}
	if err := s.index.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("storing profiles: %w", err)
	}

	s.logger.Info("profiles indexed", "network", n.Name(), "count", len(points))
	return len(points), nil
}

// FindSimilar returns the characters whose profiles are closest to the given
// character's, excluding the character itself.
func (s *ProfileService) FindSimilar(ctx context.Context, n *entities.Network, characterID string, limit int) ([]ports.ProfileMatch, error) {
	if n == nil {
		return nil, entities.NewValidationError("network", "", "network is required")
	}
	c, err := n.Character(characterID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	matches, err := s.search(ctx, n.Name(), c.ProfileText(), limit+1)
	if err != nil {
		return nil, err
	}

	out := make([]ports.ProfileMatch, 0, limit)
	for _, m := range matches {
		if m.CharacterID == characterID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Search returns the characters whose profiles best match free text.
func (s *ProfileService) Search(ctx context.Context, network, query string, limit int) ([]ports.ProfileMatch, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	return s.search(ctx, network, query, limit)
}

func (s *ProfileService) search(ctx context.Context, network, text string, limit int) ([]ports.ProfileMatch, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := s.index.Search(ctx, network, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	return matches, nil
}
