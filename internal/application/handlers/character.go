package handlers

import (
	"context"
	"maps"
	"slices"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// CharacterHandler handles character operations.
type CharacterHandler struct {
	service *services.NetworkService
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(service *services.NetworkService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// CharacterInfo is a character with its involvement counts.
type CharacterInfo struct {
	Character     entities.Character `json:"character"`
	Relationships int                `json:"relationships"`
	Conflicts     int                `json:"conflicts"`
	Neighbors     []string           `json:"neighbors"`
}

// HandleAdd adds a character.
func (h *CharacterHandler) HandleAdd(ctx context.Context, network string, c entities.Character) (entities.Character, error) {
	return h.service.AddCharacter(ctx, network, c)
}

// HandleRemove removes a character without dependents.
func (h *CharacterHandler) HandleRemove(ctx context.Context, network, id string) error {
	return h.service.RemoveCharacter(ctx, network, id)
}

// HandleSetProfile sets profile fields. An empty value deletes the field.
func (h *CharacterHandler) HandleSetProfile(ctx context.Context, network, id string, fields map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if err := h.service.SetProfileField(ctx, network, id, key, fields[key]); err != nil {
			return err
		}
	}
	return nil
}

// HandleList returns every character of a network with involvement counts.
func (h *CharacterHandler) HandleList(ctx context.Context, network string) ([]CharacterInfo, error) {
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	chars := n.Characters()
	out := make([]CharacterInfo, 0, len(chars))
	for _, c := range chars {
		info, err := characterInfo(n, c)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// HandleShow returns one character with involvement counts.
func (h *CharacterHandler) HandleShow(ctx context.Context, network, id string) (*CharacterInfo, error) {
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	c, err := n.Character(id)
	if err != nil {
		return nil, err
	}
	info, err := characterInfo(n, c)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func characterInfo(n *entities.Network, c entities.Character) (CharacterInfo, error) {
	rels, conflicts, err := n.Involvement(c.ID)
	if err != nil {
		return CharacterInfo{}, err
	}
	neighbors, err := n.Neighbors(c.ID)
	if err != nil {
		return CharacterInfo{}, err
	}
	return CharacterInfo{Character: c, Relationships: rels, Conflicts: conflicts, Neighbors: neighbors}, nil
}
