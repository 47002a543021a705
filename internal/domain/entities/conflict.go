package entities

import "time"

// ConflictSubject is what a conflict is about. Open enumeration validated
// against the network's vocabulary.
type ConflictSubject string

const (
	SubjectValue        ConflictSubject = "value"
	SubjectResource     ConflictSubject = "resource"
	SubjectPower        ConflictSubject = "power"
	SubjectIdentity     ConflictSubject = "identity"
	SubjectRelationship ConflictSubject = "relationship"
	SubjectInformation  ConflictSubject = "information"
	SubjectSurvival     ConflictSubject = "survival"
	SubjectOther        ConflictSubject = "other"
)

// Scope is the reach of a conflict.
type Scope string

const (
	ScopePersonal      Scope = "personal"
	ScopeInterpersonal Scope = "interpersonal"
	ScopeSocietal      Scope = "societal"
)

// IsValid reports whether s is one of the known scopes.
func (s Scope) IsValid() bool {
	switch s {
	case ScopePersonal, ScopeInterpersonal, ScopeSocietal:
		return true
	}
	return false
}

// Phase is the stage of a conflict's arc. Phases are ordered.
type Phase string

const (
	PhaseLatent     Phase = "latent"
	PhaseEscalating Phase = "escalating"
	PhaseClimactic  Phase = "climactic"
	PhaseResolving  Phase = "resolving"
	PhaseResolved   Phase = "resolved"
)

var phaseOrder = []Phase{PhaseLatent, PhaseEscalating, PhaseClimactic, PhaseResolving, PhaseResolved}

// Rank returns the 0-based position of the phase, or -1 if unknown.
func (p Phase) Rank() int {
	for i, q := range phaseOrder {
		if p == q {
			return i
		}
	}
	return -1
}

// IsValid reports whether p is a known phase.
func (p Phase) IsValid() bool {
	return p.Rank() >= 0
}

// Next returns the phase after p. Resolved and unknown phases return themselves.
func (p Phase) Next() Phase {
	r := p.Rank()
	if r < 0 || r == len(phaseOrder)-1 {
		return p
	}
	return phaseOrder[r+1]
}

// Conflict binds characters around a contested subject.
type Conflict struct {
	ID                   string          `json:"id" yaml:"id"`
	Name                 string          `json:"name" yaml:"name"`
	Description          string          `json:"description,omitempty" yaml:"description,omitempty"`
	InvolvedCharacters   []string        `json:"involved_characters" yaml:"involved_characters"`
	Subject              ConflictSubject `json:"subject" yaml:"subject"`
	Scope                Scope           `json:"scope" yaml:"scope"`
	Phase                Phase           `json:"phase" yaml:"phase"`
	Strength             int             `json:"strength" yaml:"strength"`
	RelatedRelationships []string        `json:"related_relationships,omitempty" yaml:"related_relationships,omitempty"`
	Timestamps           []time.Time     `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
}

// Clone returns a deep copy of the conflict.
func (c Conflict) Clone() Conflict {
	out := c
	out.InvolvedCharacters = append([]string(nil), c.InvolvedCharacters...)
	out.RelatedRelationships = append([]string(nil), c.RelatedRelationships...)
	out.Timestamps = append([]time.Time(nil), c.Timestamps...)
	return out
}

// Involves reports whether the character participates in the conflict.
func (c Conflict) Involves(characterID string) bool {
	return containsID(c.InvolvedCharacters, characterID)
}

// References reports whether the conflict lists the relationship as related.
func (c Conflict) References(relationshipID string) bool {
	return containsID(c.RelatedRelationships, relationshipID)
}

// LastTouched returns the latest timestamp and whether any exists.
func (c Conflict) LastTouched() (time.Time, bool) {
	if len(c.Timestamps) == 0 {
		return time.Time{}, false
	}
	return c.Timestamps[len(c.Timestamps)-1], true
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
