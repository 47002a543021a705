package entities

// RelationType defines the kind of relationship between characters.
// It is an open enumeration validated against the network's vocabulary.
type RelationType string

const (
	RelationLove       RelationType = "love"
	RelationEnmity     RelationType = "enmity"
	RelationKinship    RelationType = "kinship"
	RelationRivalry    RelationType = "rivalry"
	RelationAlliance   RelationType = "alliance"
	RelationMentorship RelationType = "mentorship"
	RelationOther      RelationType = "other"
)

// Nature is the emotional valence of a relationship.
type Nature string

const (
	NaturePositive   Nature = "positive"
	NatureNegative   Nature = "negative"
	NatureAmbivalent Nature = "ambivalent"
)

// IsValid reports whether n is one of the known natures.
func (n Nature) IsValid() bool {
	switch n {
	case NaturePositive, NatureNegative, NatureAmbivalent:
		return true
	}
	return false
}

// Strength bounds shared by relationships and conflicts.
const (
	MinStrength = 1
	MaxStrength = 10
)

// Relationship is a directed edge between two characters. Mutual marks a
// relationship that holds in both directions; analysis treats it as a single
// undirected tie.
type Relationship struct {
	ID          string       `json:"id" yaml:"id"`
	Source      string       `json:"source" yaml:"source"`
	Target      string       `json:"target" yaml:"target"`
	Type        RelationType `json:"type" yaml:"type"`
	Nature      Nature       `json:"nature" yaml:"nature"`
	Strength    int          `json:"strength" yaml:"strength"`
	Mutual      bool         `json:"mutual,omitempty" yaml:"mutual,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Involves reports whether the character is either endpoint of the relationship.
func (r Relationship) Involves(characterID string) bool {
	return r.Source == characterID || r.Target == characterID
}

// Other returns the endpoint opposite to characterID.
func (r Relationship) Other(characterID string) string {
	if r.Source == characterID {
		return r.Target
	}
	return r.Source
}
