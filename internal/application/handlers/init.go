// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

// StoreOpener opens the network store at a database path.
type StoreOpener func(path string) (ports.NetworkStore, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	open StoreOpener
}

// NewInitHandler creates a new init handler. open may be nil, in which case
// the schema is created on first use.
func NewInitHandler(open StoreOpener) *InitHandler {
	return &InitHandler{open: open}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	NetworksPath string
	DatabasePath string
}

// Handle writes the default configuration and an empty network registry.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("dramanet already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	registry := &config.NetworksConfig{Networks: make(map[string]config.NetworkEntry)}
	if err := registry.Save(basePath); err != nil {
		return nil, fmt.Errorf("writing network registry: %w", err)
	}

	dbPath := cfg.DatabasePath(basePath)
	if h.open != nil {
		if err := ensureSchema(ctx, h.open, dbPath); err != nil {
			return nil, err
		}
	}

	return &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		NetworksPath: config.NetworksFilePath(basePath),
		DatabasePath: dbPath,
	}, nil
}

func ensureSchema(ctx context.Context, open StoreOpener, path string) error {
	store, err := open(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
