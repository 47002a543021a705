package handlers

import (
	"context"
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// ConflictHandler handles conflict operations.
type ConflictHandler struct {
	service *services.NetworkService
}

// NewConflictHandler creates a new ConflictHandler.
func NewConflictHandler(service *services.NetworkService) *ConflictHandler {
	return &ConflictHandler{service: service}
}

// HandleAdd adds a conflict. Empty scope and phase default to
// interpersonal and latent.
func (h *ConflictHandler) HandleAdd(ctx context.Context, network string, c entities.Conflict) (entities.Conflict, error) {
	if c.Scope == "" {
		c.Scope = entities.ScopeInterpersonal
	}
	if c.Phase == "" {
		c.Phase = entities.PhaseLatent
	}
	return h.service.AddConflict(ctx, network, c)
}

// HandleRemove removes a conflict.
func (h *ConflictHandler) HandleRemove(ctx context.Context, network, id string) error {
	return h.service.RemoveConflict(ctx, network, id)
}

// HandleSetPhase moves a conflict to another phase.
func (h *ConflictHandler) HandleSetPhase(ctx context.Context, network, id string, phase entities.Phase) error {
	return h.service.SetConflictPhase(ctx, network, id, phase)
}

// HandleAdvance moves a conflict to the next phase.
func (h *ConflictHandler) HandleAdvance(ctx context.Context, network, id string) (entities.Phase, error) {
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return "", err
	}
	c, err := n.Conflict(id)
	if err != nil {
		return "", err
	}
	next := c.Phase.Next()
	if next == c.Phase {
		return "", entities.NewValidationError("conflict", id, "already %s", c.Phase)
	}
	if err := h.service.SetConflictPhase(ctx, network, id, next); err != nil {
		return "", err
	}
	return next, nil
}

// HandleTouch records activity on a conflict. A zero time means now.
func (h *ConflictHandler) HandleTouch(ctx context.Context, network, id string, at time.Time) error {
	return h.service.TouchConflict(ctx, network, id, at)
}

// HandleLink links relationships to a conflict.
func (h *ConflictHandler) HandleLink(ctx context.Context, network, id string, relationshipIDs ...string) error {
	for _, relID := range relationshipIDs {
		if err := h.service.LinkRelationship(ctx, network, id, relID); err != nil {
			return err
		}
	}
	return nil
}

// HandleUnlink removes relationship links from a conflict.
func (h *ConflictHandler) HandleUnlink(ctx context.Context, network, id string, relationshipIDs ...string) error {
	for _, relID := range relationshipIDs {
		if err := h.service.UnlinkRelationship(ctx, network, id, relID); err != nil {
			return err
		}
	}
	return nil
}

// HandleInvolve adds participants to a conflict.
func (h *ConflictHandler) HandleInvolve(ctx context.Context, network, id string, characterIDs ...string) error {
	for _, charID := range characterIDs {
		if err := h.service.InvolveCharacter(ctx, network, id, charID); err != nil {
			return err
		}
	}
	return nil
}

// HandleRelease removes participants from a conflict.
func (h *ConflictHandler) HandleRelease(ctx context.Context, network, id string, characterIDs ...string) error {
	for _, charID := range characterIDs {
		if err := h.service.ReleaseCharacter(ctx, network, id, charID); err != nil {
			return err
		}
	}
	return nil
}

// HandleList returns the conflicts of a network, optionally only those in phase.
func (h *ConflictHandler) HandleList(ctx context.Context, network string, phase entities.Phase) ([]entities.Conflict, error) {
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	conflicts := n.Conflicts()
	if phase == "" {
		return conflicts, nil
	}
	out := conflicts[:0]
	for _, c := range conflicts {
		if c.Phase == phase {
			out = append(out, c)
		}
	}
	return out, nil
}
