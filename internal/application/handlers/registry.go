package handlers

import (
	"fmt"

	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

// Registry keeps .dramanet/networks.yaml in step with the store. A nil
// Registry records nothing.
type Registry struct {
	networks *config.NetworksConfig
	basePath string
}

// NewRegistry wraps a loaded network registry rooted at basePath.
func NewRegistry(networks *config.NetworksConfig, basePath string) *Registry {
	return &Registry{networks: networks, basePath: basePath}
}

// Register records a network with its profile collection.
func (r *Registry) Register(name, description string) error {
	if r == nil {
		return nil
	}
	entry := config.NetworkEntry{
		Collection:  config.GenerateCollectionName(name),
		Description: description,
	}
	if existing, err := r.networks.Get(name); err == nil {
		entry.Collection = existing.Collection
		if description == "" {
			entry.Description = existing.Description
		}
	}
	r.networks.Add(name, entry)
	if err := r.networks.Save(r.basePath); err != nil {
		return fmt.Errorf("saving network registry: %w", err)
	}
	return nil
}

// Unregister forgets a network.
func (r *Registry) Unregister(name string) error {
	if r == nil || !r.networks.Exists(name) {
		return nil
	}
	r.networks.Remove(name)
	if err := r.networks.Save(r.basePath); err != nil {
		return fmt.Errorf("saving network registry: %w", err)
	}
	return nil
}
