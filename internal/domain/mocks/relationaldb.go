// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
)

// NetworkStore is an in-memory mock implementation of ports.NetworkStore.
// Stored networks are kept as states and rebuilt on load, like a real store.
type NetworkStore struct {
	SaveErr     error
	LoadErr     error
	ListErr     error
	DeleteErr   error
	SnapshotErr error
	LogErr      error

	Networks  map[string]entities.NetworkState
	Snaps     map[string][]entities.Snapshot
	Audit     []entities.AuditEntry
	SaveCount int
}

// NewNetworkStore returns an empty store.
func NewNetworkStore() *NetworkStore {
	return &NetworkStore{
		Networks: make(map[string]entities.NetworkState),
		Snaps:    make(map[string][]entities.Snapshot),
	}
}

// EnsureSchema does nothing.
func (m *NetworkStore) EnsureSchema(ctx context.Context) error { return nil }

// Close does nothing.
func (m *NetworkStore) Close() error { return nil }

// SaveNetwork stores a copy of the network state.
func (m *NetworkStore) SaveNetwork(ctx context.Context, n *entities.Network) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SaveCount++
	m.Networks[n.Name()] = n.State()
	return nil
}

// LoadNetwork rebuilds the stored network.
func (m *NetworkStore) LoadNetwork(ctx context.Context, name string) (*entities.Network, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	state, ok := m.Networks[name]
	if !ok {
		return nil, entities.NewNotFoundError("network", name)
	}
	n, err := entities.NewNetworkFromState(state)
	if err != nil {
		return nil, err
	}
	n.RestoreSnapshots(m.Snaps[name])
	return n, nil
}

// ListNetworks lists stored networks ordered by name.
func (m *NetworkStore) ListNetworks(ctx context.Context) ([]ports.NetworkSummary, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]ports.NetworkSummary, 0, len(m.Networks))
	for name, s := range m.Networks {
		out = append(out, ports.NetworkSummary{
			Name:          name,
			Characters:    len(s.Characters),
			Relationships: len(s.Relationships),
			Conflicts:     len(s.Conflicts),
			UpdatedAt:     time.Time{},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteNetwork removes the network, its snapshots and audit entries.
func (m *NetworkStore) DeleteNetwork(ctx context.Context, name string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Networks[name]; !ok {
		return entities.NewNotFoundError("network", name)
	}
	delete(m.Networks, name)
	delete(m.Snaps, name)
	kept := m.Audit[:0]
	for _, e := range m.Audit {
		if e.Network != name {
			kept = append(kept, e)
		}
	}
	m.Audit = kept
	return nil
}

// SaveSnapshot appends the snapshot.
func (m *NetworkStore) SaveSnapshot(ctx context.Context, network string, snap entities.Snapshot) error {
	if m.SnapshotErr != nil {
		return m.SnapshotErr
	}
	m.Snaps[network] = append(m.Snaps[network], snap)
	return nil
}

// ListSnapshots returns the stored snapshots.
func (m *NetworkStore) ListSnapshots(ctx context.Context, network string) ([]entities.Snapshot, error) {
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	return append([]entities.Snapshot(nil), m.Snaps[network]...), nil
}

// LogAction appends the entry.
func (m *NetworkStore) LogAction(ctx context.Context, entry entities.AuditEntry) error {
	if m.LogErr != nil {
		return m.LogErr
	}
	entry.ID = int64(len(m.Audit) + 1)
	m.Audit = append(m.Audit, entry)
	return nil
}

// FindAuditLog returns the network's entries, newest first.
func (m *NetworkStore) FindAuditLog(ctx context.Context, network string, limit int) ([]entities.AuditEntry, error) {
	var out []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].Network != network {
			continue
		}
		out = append(out, m.Audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Actions returns the logged action names in order.
func (m *NetworkStore) Actions() []string {
	out := make([]string, len(m.Audit))
	for i, e := range m.Audit {
		out[i] = e.Action
	}
	return out
}
