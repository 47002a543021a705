package handlers

import (
	"context"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	service *services.NetworkService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(service *services.NetworkService) *RelationshipHandler {
	return &RelationshipHandler{service: service}
}

// ListOptions filters relationship listings.
type ListOptions struct {
	Character string // only relationships touching this character (empty = all)
	Type      string // only this relationship type (empty = all)
}

// HandleCreate adds a relationship. An empty nature defaults to ambivalent.
func (h *RelationshipHandler) HandleCreate(ctx context.Context, network string, r entities.Relationship) (entities.Relationship, error) {
	if r.Nature == "" {
		r.Nature = entities.NatureAmbivalent
	}
	return h.service.AddRelationship(ctx, network, r)
}

// HandleDelete removes a relationship.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, network, id string) error {
	return h.service.RemoveRelationship(ctx, network, id)
}

// HandleSetStrength changes a relationship's strength.
func (h *RelationshipHandler) HandleSetStrength(ctx context.Context, network, id string, strength int) error {
	return h.service.SetRelationshipStrength(ctx, network, id, strength)
}

// HandleList returns the relationships matching opts.
func (h *RelationshipHandler) HandleList(ctx context.Context, network string, opts ListOptions) ([]entities.Relationship, error) {
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return nil, err
	}

	var rels []entities.Relationship
	if opts.Character != "" {
		rels, err = n.RelationshipsFor(opts.Character)
		if err != nil {
			return nil, err
		}
	} else {
		rels = n.Relationships()
	}

	if opts.Type == "" {
		return rels, nil
	}
	want := entities.NormalizeTerm(opts.Type)
	out := rels[:0]
	for _, r := range rels {
		if string(r.Type) == want {
			out = append(out, r)
		}
	}
	return out, nil
}
