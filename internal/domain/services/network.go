package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/logging"
)

// NetworkService loads, mutates and persists networks. Every mutation is a
// load, apply, save cycle followed by an audit entry.
type NetworkService struct {
	store  ports.NetworkStore
	logger *slog.Logger
	now    func() time.Time
}

// NewNetworkService creates a new NetworkService.
func NewNetworkService(store ports.NetworkStore) *NetworkService {
	return &NetworkService{
		store:  store,
		logger: logging.New("network"),
		now:    time.Now,
	}
}

// newID returns a short random id with the given prefix.
func newID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

func checkNetworkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return entities.NewValidationError("network", "", "name is required")
	}
	return nil
}

// exists reports whether a network is stored under name.
func (s *NetworkService) exists(ctx context.Context, name string) (bool, error) {
	_, err := s.store.LoadNetwork(ctx, name)
	switch entities.KindOf(err) {
	case "":
		if err != nil {
			return false, fmt.Errorf("loading network: %w", err)
		}
		return true, nil
	case entities.KindNotFound:
		return false, nil
	default:
		// Stored but no longer valid; still taken.
		return true, nil
	}
}

// Create stores a new empty network.
func (s *NetworkService) Create(ctx context.Context, name string) (*entities.Network, error) {
	name = strings.TrimSpace(name)
	if err := checkNetworkName(name); err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, entities.NewValidationError("network", name, "already exists")
	}

	n := entities.NewNetwork(name)
	if err := s.store.SaveNetwork(ctx, n); err != nil {
		return nil, fmt.Errorf("saving network: %w", err)
	}
	s.audit(ctx, entities.AuditEntry{Network: name, Action: entities.AuditCreateNetwork, EntityType: "network", EntityID: name})
	return n, nil
}

// ImportOptions configures Import.
type ImportOptions struct {
	Name    string // overrides the document name when set
	Replace bool   // replace an existing network of the same name
}

// Import validates a network document and stores it. The whole document is
// rejected if any element violates an invariant.
func (s *NetworkService) Import(ctx context.Context, state entities.NetworkState, opts ImportOptions) (*entities.Network, error) {
	if opts.Name != "" {
		state.Name = opts.Name
	}
	state.Name = strings.TrimSpace(state.Name)
	if err := checkNetworkName(state.Name); err != nil {
		return nil, err
	}

	n, err := entities.NewNetworkFromState(state)
	if err != nil {
		return nil, err
	}

	ok, err := s.exists(ctx, state.Name)
	if err != nil {
		return nil, err
	}
	if ok {
		if !opts.Replace {
			return nil, entities.NewValidationError("network", state.Name, "already exists (use replace to overwrite)")
		}
		if err := s.store.DeleteNetwork(ctx, state.Name); err != nil {
			return nil, fmt.Errorf("replacing network: %w", err)
		}
	}

	if err := s.store.SaveNetwork(ctx, n); err != nil {
		return nil, fmt.Errorf("saving network: %w", err)
	}

	chars, rels, conflicts := n.Counts()
	s.logger.Info("network imported", "network", state.Name, "characters", chars, "relationships", rels, "conflicts", conflicts)
	s.audit(ctx, entities.AuditEntry{
		Network:    state.Name,
		Action:     entities.AuditImportNetwork,
		EntityType: "network",
		EntityID:   state.Name,
		Details: map[string]any{
			"characters":    chars,
			"relationships": rels,
			"conflicts":     conflicts,
			"replaced":      ok,
		},
	})
	return n, nil
}

// Load returns the stored network.
func (s *NetworkService) Load(ctx context.Context, name string) (*entities.Network, error) {
	if err := checkNetworkName(name); err != nil {
		return nil, err
	}
	return s.store.LoadNetwork(ctx, name)
}

// List lists stored networks.
func (s *NetworkService) List(ctx context.Context) ([]ports.NetworkSummary, error) {
	return s.store.ListNetworks(ctx)
}

// Delete removes a network with its history.
func (s *NetworkService) Delete(ctx context.Context, name string) error {
	if err := s.store.DeleteNetwork(ctx, name); err != nil {
		return err
	}
	s.logger.Info("network deleted", "network", name)
	return nil
}

// History returns the most recent audit entries, newest first.
func (s *NetworkService) History(ctx context.Context, name string, limit int) ([]entities.AuditEntry, error) {
	return s.store.FindAuditLog(ctx, name, limit)
}

// mutate loads the network, applies fn and saves the result. Nothing is
// saved when fn fails.
func (s *NetworkService) mutate(ctx context.Context, network string, entry entities.AuditEntry, fn func(n *entities.Network) error) (*entities.Network, error) {
	n, err := s.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	if err := s.store.SaveNetwork(ctx, n); err != nil {
		return nil, fmt.Errorf("saving network: %w", err)
	}
	entry.Network = network
	s.audit(ctx, entry)
	return n, nil
}

// audit records an entry. Failures are logged, not returned, since the
// mutation itself is already committed.
func (s *NetworkService) audit(ctx context.Context, entry entities.AuditEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.store.LogAction(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", "network", entry.Network, "action", entry.Action, "error", err)
	}
}

// AddCharacter adds a character, generating an id when none is given.
func (s *NetworkService) AddCharacter(ctx context.Context, network string, c entities.Character) (entities.Character, error) {
	if c.ID == "" {
		c.ID = newID("char")
	}
	n, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditAddCharacter, EntityType: "character", EntityID: c.ID, Details: map[string]any{"name": c.Name}},
		func(n *entities.Network) error { return n.AddCharacter(c) })
	if err != nil {
		return entities.Character{}, err
	}
	return n.Character(c.ID)
}

// RemoveCharacter removes a character without dependents.
func (s *NetworkService) RemoveCharacter(ctx context.Context, network, id string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditRemoveCharacter, EntityType: "character", EntityID: id},
		func(n *entities.Network) error { return n.RemoveCharacter(id) })
	return err
}

// SetProfileField sets a profile field. An empty value deletes the field.
func (s *NetworkService) SetProfileField(ctx context.Context, network, id, key, value string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditSetProfile, EntityType: "character", EntityID: id, Details: map[string]any{"key": key, "value": value}},
		func(n *entities.Network) error {
			if value == "" {
				return n.DeleteProfileField(id, key)
			}
			return n.SetProfileField(id, key, value)
		})
	return err
}

// AddRelationship adds a relationship, generating an id when none is given.
func (s *NetworkService) AddRelationship(ctx context.Context, network string, r entities.Relationship) (entities.Relationship, error) {
	if r.ID == "" {
		r.ID = newID("rel")
	}
	n, err := s.mutate(ctx, network,
		entities.AuditEntry{
			Action: entities.AuditAddRelationship, EntityType: "relationship", EntityID: r.ID,
			Details: map[string]any{"source": r.Source, "target": r.Target, "type": string(r.Type), "strength": r.Strength},
		},
		func(n *entities.Network) error { return n.AddRelationship(r) })
	if err != nil {
		return entities.Relationship{}, err
	}
	return n.Relationship(r.ID)
}

// RemoveRelationship removes a relationship no conflict links to.
func (s *NetworkService) RemoveRelationship(ctx context.Context, network, id string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditRemoveRelationship, EntityType: "relationship", EntityID: id},
		func(n *entities.Network) error { return n.RemoveRelationship(id) })
	return err
}

// SetRelationshipStrength changes a relationship's strength.
func (s *NetworkService) SetRelationshipStrength(ctx context.Context, network, id string, strength int) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditSetStrength, EntityType: "relationship", EntityID: id, Details: map[string]any{"strength": strength}},
		func(n *entities.Network) error { return n.SetRelationshipStrength(id, strength) })
	return err
}

// AddConflict adds a conflict, generating an id when none is given.
func (s *NetworkService) AddConflict(ctx context.Context, network string, c entities.Conflict) (entities.Conflict, error) {
	if c.ID == "" {
		c.ID = newID("conflict")
	}
	n, err := s.mutate(ctx, network,
		entities.AuditEntry{
			Action: entities.AuditAddConflict, EntityType: "conflict", EntityID: c.ID,
			Details: map[string]any{"name": c.Name, "involved": c.InvolvedCharacters, "phase": string(c.Phase)},
		},
		func(n *entities.Network) error { return n.AddConflict(c) })
	if err != nil {
		return entities.Conflict{}, err
	}
	return n.Conflict(c.ID)
}

// RemoveConflict removes a conflict.
func (s *NetworkService) RemoveConflict(ctx context.Context, network, id string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditRemoveConflict, EntityType: "conflict", EntityID: id},
		func(n *entities.Network) error { return n.RemoveConflict(id) })
	return err
}

// SetConflictPhase moves a conflict to another phase.
func (s *NetworkService) SetConflictPhase(ctx context.Context, network, id string, phase entities.Phase) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditSetPhase, EntityType: "conflict", EntityID: id, Details: map[string]any{"phase": string(phase)}},
		func(n *entities.Network) error { return n.SetConflictPhase(id, phase) })
	return err
}

// TouchConflict records activity on a conflict. A zero time means now.
func (s *NetworkService) TouchConflict(ctx context.Context, network, id string, at time.Time) error {
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditTouchConflict, EntityType: "conflict", EntityID: id, Details: map[string]any{"at": at.Format(time.RFC3339)}},
		func(n *entities.Network) error { return n.TouchConflict(id, at) })
	return err
}

// LinkRelationship links a relationship to a conflict.
func (s *NetworkService) LinkRelationship(ctx context.Context, network, conflictID, relationshipID string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditLink, EntityType: "conflict", EntityID: conflictID, Details: map[string]any{"relationship": relationshipID}},
		func(n *entities.Network) error { return n.LinkRelationship(conflictID, relationshipID) })
	return err
}

// UnlinkRelationship removes a relationship link from a conflict.
func (s *NetworkService) UnlinkRelationship(ctx context.Context, network, conflictID, relationshipID string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditUnlink, EntityType: "conflict", EntityID: conflictID, Details: map[string]any{"relationship": relationshipID}},
		func(n *entities.Network) error { return n.UnlinkRelationship(conflictID, relationshipID) })
	return err
}

// InvolveCharacter adds a participant to a conflict.
func (s *NetworkService) InvolveCharacter(ctx context.Context, network, conflictID, characterID string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditInvolve, EntityType: "conflict", EntityID: conflictID, Details: map[string]any{"character": characterID}},
		func(n *entities.Network) error { return n.InvolveCharacter(conflictID, characterID) })
	return err
}

// ReleaseCharacter removes a participant from a conflict.
func (s *NetworkService) ReleaseCharacter(ctx context.Context, network, conflictID, characterID string) error {
	_, err := s.mutate(ctx, network,
		entities.AuditEntry{Action: entities.AuditRelease, EntityType: "conflict", EntityID: conflictID, Details: map[string]any{"character": characterID}},
		func(n *entities.Network) error { return n.ReleaseCharacter(conflictID, characterID) })
	return err
}

// CreateSnapshot captures the stored network under label.
func (s *NetworkService) CreateSnapshot(ctx context.Context, network, label string) (entities.Snapshot, error) {
	n, err := s.Load(ctx, network)
	if err != nil {
		return entities.Snapshot{}, err
	}
	snap, err := n.CreateSnapshot(label, s.now().UTC())
	if err != nil {
		return entities.Snapshot{}, err
	}
	if err := s.store.SaveSnapshot(ctx, network, snap); err != nil {
		return entities.Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	s.audit(ctx, entities.AuditEntry{Network: network, Action: entities.AuditSnapshot, EntityType: "snapshot", EntityID: snap.Label})
	return snap, nil
}

// ListSnapshots returns the network's snapshots, oldest first.
func (s *NetworkService) ListSnapshots(ctx context.Context, network string) ([]entities.Snapshot, error) {
	n, err := s.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	return n.Snapshots(), nil
}

// RestoreSnapshot replaces the network's contents with a snapshot's. The
// snapshot history itself is kept.
func (s *NetworkService) RestoreSnapshot(ctx context.Context, network, label string) (*entities.Network, error) {
	n, err := s.Load(ctx, network)
	if err != nil {
		return nil, err
	}

	var found *entities.Snapshot
	snaps := n.Snapshots()
	for i := range snaps {
		if snaps[i].Label == label {
			found = &snaps[i]
			break
		}
	}
	if found == nil {
		return nil, entities.NewNotFoundError("snapshot", label)
	}

	state := found.State()
	state.Name = network
	restored, err := entities.NewNetworkFromState(state)
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot %s: %w", label, err)
	}
	restored.RestoreSnapshots(snaps)

	if err := s.store.SaveNetwork(ctx, restored); err != nil {
		return nil, fmt.Errorf("saving network: %w", err)
	}
	s.audit(ctx, entities.AuditEntry{Network: network, Action: entities.AuditRestoreSnapshot, EntityType: "snapshot", EntityID: label})
	return restored, nil
}
