package entities

import (
	"fmt"
	"strings"
	"time"
)

// NetworkState is a plain, serializable copy of a network. Slices are sorted by id.
type NetworkState struct {
	Name             string         `json:"name" yaml:"name"`
	RelationTypes    []string       `json:"relation_types,omitempty" yaml:"relation_types,omitempty"`
	ConflictSubjects []string       `json:"conflict_subjects,omitempty" yaml:"conflict_subjects,omitempty"`
	Characters       []Character    `json:"characters" yaml:"characters"`
	Relationships    []Relationship `json:"relationships" yaml:"relationships"`
	Conflicts        []Conflict     `json:"conflicts" yaml:"conflicts"`
}

// Clone returns a deep copy of the state.
func (s NetworkState) Clone() NetworkState {
	out := NetworkState{
		Name:             s.Name,
		RelationTypes:    append([]string(nil), s.RelationTypes...),
		ConflictSubjects: append([]string(nil), s.ConflictSubjects...),
		Characters:       make([]Character, len(s.Characters)),
		Relationships:    append([]Relationship(nil), s.Relationships...),
		Conflicts:        make([]Conflict, len(s.Conflicts)),
	}
	for i, c := range s.Characters {
		out.Characters[i] = c.Clone()
	}
	for i, c := range s.Conflicts {
		out.Conflicts[i] = c.Clone()
	}
	return out
}

// Snapshot is a labeled, immutable copy of a network at a point in time.
type Snapshot struct {
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	state     NetworkState
}

// NewSnapshot wraps an existing state, e.g. one loaded from storage.
func NewSnapshot(label string, at time.Time, state NetworkState) Snapshot {
	return Snapshot{Label: label, CreatedAt: at, state: state.Clone()}
}

// State returns a deep copy of the captured network state.
func (s Snapshot) State() NetworkState {
	return s.state.Clone()
}

// Network rebuilds a detached network from the snapshot.
func (s Snapshot) Network() (*Network, error) {
	return NewNetworkFromState(s.state)
}

// State returns a deep copy of the network's current contents.
func (n *Network) State() NetworkState {
	return NetworkState{
		Name:             n.name,
		RelationTypes:    n.relationTypes.Terms(),
		ConflictSubjects: n.conflictSubjects.Terms(),
		Characters:       n.Characters(),
		Relationships:    n.Relationships(),
		Conflicts:        n.Conflicts(),
	}
}

// CreateSnapshot captures the current state under label. The time is
// supplied by the caller.
func (n *Network) CreateSnapshot(label string, at time.Time) (Snapshot, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Snapshot{}, validationErr("snapshot", "", "label is required")
	}
	for _, s := range n.snapshots {
		if s.Label == label {
			return Snapshot{}, validationErr("snapshot", label, "label already exists")
		}
	}
	snap := Snapshot{Label: label, CreatedAt: at, state: n.State()}
	n.snapshots = append(n.snapshots, snap)
	return snap, nil
}

// Snapshots returns the snapshots taken so far, oldest first.
func (n *Network) Snapshots() []Snapshot {
	return append([]Snapshot(nil), n.snapshots...)
}

// NewNetworkFromState builds a network by replaying the state through the
// validated add operations. Characters go first, then relationships, then
// conflicts.
func NewNetworkFromState(state NetworkState) (*Network, error) {
	n := NewNetwork(state.Name)
	for _, t := range state.RelationTypes {
		if err := n.RegisterRelationType(t); err != nil {
			return nil, fmt.Errorf("registering relationship type: %w", err)
		}
	}
	for _, s := range state.ConflictSubjects {
		if err := n.RegisterConflictSubject(s); err != nil {
			return nil, fmt.Errorf("registering conflict subject: %w", err)
		}
	}
	for _, c := range state.Characters {
		if err := n.AddCharacter(c); err != nil {
			return nil, fmt.Errorf("restoring character: %w", err)
		}
	}
	for _, r := range state.Relationships {
		if err := n.AddRelationship(r); err != nil {
			return nil, fmt.Errorf("restoring relationship: %w", err)
		}
	}
	for _, c := range state.Conflicts {
		if err := n.AddConflict(c); err != nil {
			return nil, fmt.Errorf("restoring conflict: %w", err)
		}
	}
	return n, nil
}

// RestoreSnapshots replaces the network's snapshot history, e.g. after
// loading it from storage.
func (n *Network) RestoreSnapshots(snaps []Snapshot) {
	n.snapshots = append([]Snapshot(nil), snaps...)
}
