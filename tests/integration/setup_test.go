package integration

import (
	"context"
	"os"
	"testing"

	"github.com/ersonp/dramanet/internal/infrastructure/config"
	"github.com/ersonp/dramanet/internal/infrastructure/vectordb/qdrant"
)

const (
	testQdrantHost = "localhost"
	testQdrantPort = 6334
	testCollection = "dramanet_integration_test"
	testVectorSize = 4
)

var testIndex *qdrant.Repository

func TestMain(m *testing.M) {
	// Skip if INTEGRATION_TEST is not set
	if os.Getenv("INTEGRATION_TEST") != "1" {
		os.Exit(0)
	}

	cfg := config.QdrantConfig{
		Host:       testQdrantHost,
		Port:       testQdrantPort,
		Collection: testCollection,
	}

	var err error
	testIndex, err = qdrant.NewRepository(cfg)
	if err != nil {
		panic("failed to create repository: " + err.Error())
	}

	ctx := context.Background()
	if err := testIndex.EnsureCollection(ctx, testVectorSize); err != nil {
		panic("failed to create collection: " + err.Error())
	}

	code := m.Run()

	testIndex.Close()
	os.Exit(code)
}

// cleanupNetwork removes a network's profiles when the test ends.
func cleanupNetwork(t *testing.T, network string) {
	t.Helper()
	t.Cleanup(func() {
		if err := testIndex.DeleteNetwork(context.Background(), network); err != nil {
			t.Errorf("failed to cleanup profiles of %s: %v", network, err)
		}
	})
}
