// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/ersonp/dramanet/internal/domain/ports"
)

// ProfileIndex is a mock implementation of ports.ProfileIndex.
type ProfileIndex struct {
	// Search return values
	Matches   []ports.ProfileMatch
	SearchErr error

	EnsureErr error
	UpsertErr error
	DeleteErr error

	// Call tracking
	VectorSize      uint64
	Upserted        []ports.ProfileVector
	DeletedNetworks []string
	SearchLimit     int
}

// EnsureCollection records the vector size.
func (m *ProfileIndex) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.VectorSize = vectorSize
	return m.EnsureErr
}

// Upsert records the vectors.
func (m *ProfileIndex) Upsert(ctx context.Context, vectors []ports.ProfileVector) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserted = append(m.Upserted, vectors...)
	return nil
}

// Search returns the configured matches, up to limit.
func (m *ProfileIndex) Search(ctx context.Context, network string, vector []float32, limit int) ([]ports.ProfileMatch, error) {
	m.SearchLimit = limit
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if limit < len(m.Matches) {
		return m.Matches[:limit], nil
	}
	return m.Matches, nil
}

// DeleteNetwork records the network.
func (m *ProfileIndex) DeleteNetwork(ctx context.Context, network string) error {
	m.DeletedNetworks = append(m.DeletedNetworks, network)
	return m.DeleteErr
}
