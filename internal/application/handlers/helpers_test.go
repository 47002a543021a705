package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/mocks"
	"github.com/ersonp/dramanet/internal/domain/services"
)

const scenarioYAML = `name: scenario
characters:
  - id: alice
    name: Alice
    profile:
      personality_traits: curious
  - id: bob
    name: Bob
  - id: carol
    name: Carol
relationships:
  - id: r1
    source: alice
    target: bob
    type: love
    nature: positive
    strength: 8
  - id: r2
    source: bob
    target: carol
    type: enmity
    nature: negative
    strength: 9
conflicts:
  - id: c1
    name: Inheritance
    involved_characters: [bob, carol]
    subject: power
    scope: interpersonal
    phase: escalating
    strength: 7
    related_relationships: [r2]
`

func newTestService(t *testing.T) (*services.NetworkService, *mocks.NetworkStore) {
	t.Helper()
	store := mocks.NewNetworkStore()
	return services.NewNetworkService(store), store
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// importScenario stores the scenario network and returns the service.
func importScenario(t *testing.T) (*services.NetworkService, *mocks.NetworkStore) {
	t.Helper()
	svc, store := newTestService(t)
	result, err := NewImportHandler(svc, nil).Handle(t.Context(), writeFile(t, "scenario.yaml", scenarioYAML), ImportOptions{})
	require.NoError(t, err)
	require.True(t, result.Saved)
	return svc, store
}
