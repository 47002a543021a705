package handlers

import (
	"context"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// DefaultHistoryLimit is the number of audit entries shown when no limit is given.
const DefaultHistoryLimit = 20

// NetworkHandler handles network lifecycle operations at the application layer.
type NetworkHandler struct {
	service  *services.NetworkService
	registry *Registry
}

// NewNetworkHandler creates a new NetworkHandler. registry may be nil.
func NewNetworkHandler(service *services.NetworkService, registry *Registry) *NetworkHandler {
	return &NetworkHandler{
		service:  service,
		registry: registry,
	}
}

// NetworkListResult contains the result of listing networks.
type NetworkListResult struct {
	Networks []ports.NetworkSummary `json:"networks"`
	Total    int                    `json:"total"`
}

// HandleCreate creates an empty network and registers it.
func (h *NetworkHandler) HandleCreate(ctx context.Context, name, description string) (*entities.Network, error) {
	n, err := h.service.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := h.registry.Register(n.Name(), description); err != nil {
		return nil, err
	}
	return n, nil
}

// HandleList returns every stored network.
func (h *NetworkHandler) HandleList(ctx context.Context) (*NetworkListResult, error) {
	list, err := h.service.List(ctx)
	if err != nil {
		return nil, err
	}
	return &NetworkListResult{Networks: list, Total: len(list)}, nil
}

// HandleShow loads a network.
func (h *NetworkHandler) HandleShow(ctx context.Context, name string) (*entities.Network, error) {
	return h.service.Load(ctx, name)
}

// HandleDelete removes a network and unregisters it.
func (h *NetworkHandler) HandleDelete(ctx context.Context, name string) error {
	if err := h.service.Delete(ctx, name); err != nil {
		return err
	}
	return h.registry.Unregister(name)
}

// HandleHistory returns recent audit entries for a network, newest first.
func (h *NetworkHandler) HandleHistory(ctx context.Context, name string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return h.service.History(ctx, name, limit)
}
