package handlers

import (
	"context"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/services"
)

// SnapshotHandler handles snapshot operations.
type SnapshotHandler struct {
	service *services.NetworkService
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(service *services.NetworkService) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// HandleCreate captures the network under label.
func (h *SnapshotHandler) HandleCreate(ctx context.Context, network, label string) (entities.Snapshot, error) {
	return h.service.CreateSnapshot(ctx, network, label)
}

// HandleList returns the network's snapshots, oldest first.
func (h *SnapshotHandler) HandleList(ctx context.Context, network string) ([]entities.Snapshot, error) {
	return h.service.ListSnapshots(ctx, network)
}

// HandleRestore replaces the network's contents with a snapshot's.
func (h *SnapshotHandler) HandleRestore(ctx context.Context, network, label string) (*entities.Network, error) {
	return h.service.RestoreSnapshot(ctx, network, label)
}
