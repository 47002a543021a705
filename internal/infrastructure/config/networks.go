package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// NetworksConfig is the registry of known networks (read/write).
type NetworksConfig struct {
	Networks map[string]NetworkEntry `yaml:"networks,omitempty"`
}

// NetworkEntry holds configuration for a specific network.
type NetworkEntry struct {
	Collection  string `yaml:"collection"`
	Description string `yaml:"description,omitempty"`
}

// LoadNetworks loads the network registry from the .dramanet directory.
func LoadNetworks(basePath string) (*NetworksConfig, error) {
	data, err := os.ReadFile(NetworksFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &NetworksConfig{
			Networks: make(map[string]NetworkEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading networks file: %w", err)
	}

	var cfg NetworksConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing networks file: %w", err)
	}

	if cfg.Networks == nil {
		cfg.Networks = make(map[string]NetworkEntry)
	}

	return &cfg, nil
}

// Save writes the registry to the networks file.
func (n *NetworksConfig) Save(basePath string) error {
	configDir := ConfigDir(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling networks config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, DefaultNetworksFile), data, 0600); err != nil {
		return fmt.Errorf("writing networks file: %w", err)
	}

	return nil
}

// Add registers a network.
func (n *NetworksConfig) Add(name string, entry NetworkEntry) {
	if n.Networks == nil {
		n.Networks = make(map[string]NetworkEntry)
	}
	n.Networks[name] = entry
}

// Remove unregisters a network.
func (n *NetworksConfig) Remove(name string) {
	if n.Networks != nil {
		delete(n.Networks, name)
	}
}

// Names returns the registered network names in sorted order.
func (n *NetworksConfig) Names() []string {
	names := make([]string, 0, len(n.Networks))
	for k := range n.Networks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get returns the configuration for a specific network.
func (n *NetworksConfig) Get(name string) (*NetworkEntry, error) {
	if len(n.Networks) == 0 {
		return nil, errors.New("no networks configured")
	}

	entry, ok := n.Networks[name]
	if !ok {
		names := n.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("network %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// GetCollection returns the Qdrant profile collection for a network.
func (n *NetworksConfig) GetCollection(name string) (string, error) {
	entry, err := n.Get(name)
	if err != nil {
		return "", err
	}
	return entry.Collection, nil
}

// Exists checks if a network is registered.
func (n *NetworksConfig) Exists(name string) bool {
	if n.Networks == nil {
		return false
	}
	_, ok := n.Networks[name]
	return ok
}
