// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// NetworkSummary is a lightweight listing entry for a stored network.
type NetworkSummary struct {
	Name          string    `json:"name"`
	Characters    int       `json:"characters"`
	Relationships int       `json:"relationships"`
	Conflicts     int       `json:"conflicts"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NetworkStore persists networks, their snapshot history and the audit log.
// Networks are always rebuilt through the validated add operations on load,
// so a store can never hand back a network that violates its invariants.
type NetworkStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Network operations

	// SaveNetwork replaces the stored contents of the network in one transaction.
	// Snapshots are stored separately and are not touched.
	SaveNetwork(ctx context.Context, n *entities.Network) error

	// LoadNetwork loads a network and its snapshots by name.
	// Returns an entities.ErrNotFound error if the network does not exist.
	LoadNetwork(ctx context.Context, name string) (*entities.Network, error)

	// ListNetworks lists stored networks ordered by name.
	ListNetworks(ctx context.Context) ([]NetworkSummary, error)

	// DeleteNetwork removes a network with its snapshots and audit entries.
	DeleteNetwork(ctx context.Context, name string) error

	// Snapshot operations

	// SaveSnapshot appends a snapshot to the network's history.
	SaveSnapshot(ctx context.Context, network string, snap entities.Snapshot) error

	// ListSnapshots returns the network's snapshots, oldest first.
	ListSnapshots(ctx context.Context, network string) ([]entities.Snapshot, error)

	// Audit log operations

	// LogAction records an action in the audit log.
	LogAction(ctx context.Context, entry entities.AuditEntry) error

	// FindAuditLog returns the most recent audit entries for a network, newest first.
	FindAuditLog(ctx context.Context, network string, limit int) ([]entities.AuditEntry, error)
}
