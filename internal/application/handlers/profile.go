package handlers

import (
	"context"

	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// ProfileHandler handles character profile indexing and similarity search.
type ProfileHandler struct {
	networks *services.NetworkService
	profiles *services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(networks *services.NetworkService, profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		networks: networks,
		profiles: profiles,
	}
}

// SimilarResult contains the characters closest to a given one.
type SimilarResult struct {
	Network   string               `json:"network"`
	Character string               `json:"character,omitempty"`
	Query     string               `json:"query,omitempty"`
	Matches   []ports.ProfileMatch `json:"matches"`
}

// HandleIndex embeds and stores every character profile of the network.
func (h *ProfileHandler) HandleIndex(ctx context.Context, network string) (int, error) {
	n, err := h.networks.Load(ctx, network)
	if err != nil {
		return 0, err
	}
	return h.profiles.IndexNetwork(ctx, n)
}

// HandleSimilar returns the characters whose profiles are closest to the
// given character's.
func (h *ProfileHandler) HandleSimilar(ctx context.Context, network, characterID string, limit int) (*SimilarResult, error) {
	n, err := h.networks.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	matches, err := h.profiles.FindSimilar(ctx, n, characterID, limit)
	if err != nil {
		return nil, err
	}
	return &SimilarResult{Network: network, Character: characterID, Matches: matches}, nil
}

// HandleSearch returns the characters whose profiles best match free text.
func (h *ProfileHandler) HandleSearch(ctx context.Context, network, query string, limit int) (*SimilarResult, error) {
	matches, err := h.profiles.Search(ctx, network, query, limit)
	if err != nil {
		return nil, err
	}
	return &SimilarResult{Network: network, Query: query, Matches: matches}, nil
}
