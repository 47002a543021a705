package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ersonp/dramanet/internal/application/handlers"
	"github.com/ersonp/dramanet/internal/domain/services"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
	embedder "github.com/ersonp/dramanet/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/dramanet/internal/infrastructure/llm/openai"
	"github.com/ersonp/dramanet/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/dramanet/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config        *config.Config
	Networks      *handlers.NetworkHandler
	Characters    *handlers.CharacterHandler
	Relationships *handlers.RelationshipHandler
	Conflicts     *handlers.ConflictHandler
	Snapshots     *handlers.SnapshotHandler
	Import        *handlers.ImportHandler
	Analysis      *handlers.AnalysisHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	registry       *config.NetworksConfig
	store          *sqlite.Repository
	networkService *services.NetworkService
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyLogging(cfg.Logging, logLevel, logFormat); err != nil {
		return err
	}

	registry, err := config.LoadNetworks(cwd)
	if err != nil {
		return fmt.Errorf("loading networks: %w", err)
	}

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.DatabasePath(cwd)})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	networkService := services.NewNetworkService(store)
	reg := handlers.NewRegistry(registry, cwd)

	deps := &internalDeps{
		Deps: Deps{
			Config:        cfg,
			Networks:      handlers.NewNetworkHandler(networkService, reg),
			Characters:    handlers.NewCharacterHandler(networkService),
			Relationships: handlers.NewRelationshipHandler(networkService),
			Conflicts:     handlers.NewConflictHandler(networkService),
			Snapshots:     handlers.NewSnapshotHandler(networkService),
			Import:        handlers.NewImportHandler(networkService, reg),
			Analysis:      handlers.NewAnalysisHandler(networkService, nil, analysisConfig(cfg.Analysis)),
		},
		registry:       registry,
		store:          store,
		networkService: networkService,
	}

	return fn(deps)
}

// withNetwork is withDeps for commands that operate on --network.
func withNetwork(fn func(*Deps, string) error) error {
	network, err := requireNetwork()
	if err != nil {
		return err
	}
	return withDeps(func(deps *Deps) error {
		return fn(deps, network)
	})
}

// withNarratedAnalysis provides an AnalysisHandler that can narrate
// treatment actions through the configured LLM.
func withNarratedAnalysis(fn func(*handlers.AnalysisHandler) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		client, err := llm.NewClient(d.Config.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}
		narration := services.NewNarrationService(client)
		return fn(handlers.NewAnalysisHandler(d.networkService, narration, analysisConfig(d.Config.Analysis)))
	})
}

// withProfileHandler provides access to the ProfileHandler for similarity commands.
func withProfileHandler(fn func(*handlers.ProfileHandler) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		network, err := requireNetwork()
		if err != nil {
			return err
		}

		collection, err := d.registry.GetCollection(network)
		if err != nil {
			collection = config.GenerateCollectionName(network)
		}

		qdrantCfg := d.Config.Qdrant
		qdrantCfg.Collection = collection

		repo, err := qdrant.NewRepository(qdrantCfg)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer repo.Close()

		emb, err := embedder.NewEmbedder(d.Config.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		profiles := services.NewProfileService(emb, repo)
		return fn(handlers.NewProfileHandler(d.networkService, profiles))
	})
}

// analysisConfig converts the file configuration into engine thresholds.
func analysisConfig(c config.AnalysisConfig) services.AnalysisConfig {
	return services.AnalysisConfig{
		WeakStrength:          c.WeakStrength,
		OverloadK:             c.OverloadK,
		OverloadMinCharacters: c.OverloadMinCharacters,
		StaleAfter:            c.StaleAfter,
	}
}

// requireNetwork returns the --network flag value.
func requireNetwork() (string, error) {
	if globalNetwork == "" {
		return "", errors.New("network is required (use --network flag)")
	}
	return globalNetwork, nil
}
