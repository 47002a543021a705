package a

import "context"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Store interface {
	SaveNetwork(ctx context.Context, name string) error
}

func bad(ctx context.Context, names []string, e Embedder, s Store) {
	for _, name := range names {
		e.Embed(ctx, name)       // want "potential N\\+1: Embed called inside loop - use EmbedBatch"
		s.SaveNetwork(ctx, name) // want "potential N\\+1: SaveNetwork called inside loop"
	}
}

func good(ctx context.Context, names []string, e Embedder, s Store) {
	e.EmbedBatch(ctx, names)
	for _, name := range names {
		_ = len(name)
	}
	s.SaveNetwork(ctx, "all")
}
