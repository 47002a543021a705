package entities

import (
	"sort"
	"strings"
	"time"
)

// Network is the graph of characters, relationships and conflicts for one story.
//
// All mutations go through the methods below, which validate every invariant
// before committing: either the change and all its checks succeed, or the
// network is left untouched. Removal refuses while dependents exist.
//
// Network does no internal locking. Mutations must be serialized by the
// caller; concurrent readers are safe only while no mutation is in flight.
// Analyze a Snapshot when mutation and analysis must overlap.
type Network struct {
	name             string
	characters       map[string]Character
	relationships    map[string]Relationship
	conflicts        map[string]Conflict
	relationTypes    Vocabulary
	conflictSubjects Vocabulary
	snapshots        []Snapshot
}

// NewNetwork creates an empty network with the default vocabularies.
func NewNetwork(name string) *Network {
	return &Network{
		name:             name,
		characters:       make(map[string]Character),
		relationships:    make(map[string]Relationship),
		conflicts:        make(map[string]Conflict),
		relationTypes:    defaultRelationVocabulary(),
		conflictSubjects: defaultSubjectVocabulary(),
	}
}

// Name returns the network name.
func (n *Network) Name() string {
	return n.name
}

// RegisterRelationType extends the relationship type vocabulary.
func (n *Network) RegisterRelationType(term string) error {
	t := NormalizeTerm(term)
	if !validTermRegex.MatchString(t) {
		return validationErr("network", n.name, "invalid relationship type %q: must be lowercase alphanumeric with underscores, starting with a letter", term)
	}
	if !n.relationTypes.Contains(t) {
		n.relationTypes = n.relationTypes.with(t)
	}
	return nil
}

// RegisterConflictSubject extends the conflict subject vocabulary.
func (n *Network) RegisterConflictSubject(term string) error {
	t := NormalizeTerm(term)
	if !validTermRegex.MatchString(t) {
		return validationErr("network", n.name, "invalid conflict subject %q: must be lowercase alphanumeric with underscores, starting with a letter", term)
	}
	if !n.conflictSubjects.Contains(t) {
		n.conflictSubjects = n.conflictSubjects.with(t)
	}
	return nil
}

// RelationTypes returns the sorted relationship type vocabulary.
func (n *Network) RelationTypes() []string {
	return n.relationTypes.Terms()
}

// ConflictSubjects returns the sorted conflict subject vocabulary.
func (n *Network) ConflictSubjects() []string {
	return n.conflictSubjects.Terms()
}

// Character operations

// AddCharacter inserts a new character.
func (n *Network) AddCharacter(c Character) error {
	if err := n.validateCharacter(c); err != nil {
		return err
	}
	c = c.Clone()
	c.Name = strings.TrimSpace(c.Name)
	n.characters[c.ID] = c
	return nil
}

func (n *Network) validateCharacter(c Character) error {
	if strings.TrimSpace(c.ID) == "" {
		return validationErr("character", "", "id is required")
	}
	if _, exists := n.characters[c.ID]; exists {
		return validationErr("character", c.ID, "id already exists")
	}
	if strings.TrimSpace(c.Name) == "" {
		return validationErr("character", c.ID, "name is required")
	}
	for k := range c.Profile {
		if strings.TrimSpace(k) == "" {
			return validationErr("character", c.ID, "profile keys must not be empty")
		}
	}
	return nil
}

// Character returns a copy of the character with the given id.
func (n *Network) Character(id string) (Character, error) {
	c, ok := n.characters[id]
	if !ok {
		return Character{}, notFoundErr("character", id)
	}
	return c.Clone(), nil
}

// RemoveCharacter deletes a character that no relationship or conflict references.
func (n *Network) RemoveCharacter(id string) error {
	if _, ok := n.characters[id]; !ok {
		return notFoundErr("character", id)
	}
	var deps []string
	for _, r := range n.relationships {
		if r.Involves(id) {
			deps = append(deps, "relationship "+r.ID)
		}
	}
	for _, c := range n.conflicts {
		if c.Involves(id) {
			deps = append(deps, "conflict "+c.ID)
		}
	}
	if len(deps) > 0 {
		sort.Strings(deps)
		return dependencyErr("character", id, "still referenced by %s", strings.Join(deps, ", "))
	}
	delete(n.characters, id)
	return nil
}

// SetProfileField sets a single profile entry on a character.
func (n *Network) SetProfileField(id, key, value string) error {
	c, ok := n.characters[id]
	if !ok {
		return notFoundErr("character", id)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return validationErr("character", id, "profile key is required")
	}
	c = c.Clone()
	if c.Profile == nil {
		c.Profile = make(map[string]string)
	}
	c.Profile[key] = value
	n.characters[id] = c
	return nil
}

// DeleteProfileField removes a profile entry. Missing keys are a no-op.
func (n *Network) DeleteProfileField(id, key string) error {
	c, ok := n.characters[id]
	if !ok {
		return notFoundErr("character", id)
	}
	c = c.Clone()
	delete(c.Profile, strings.TrimSpace(key))
	n.characters[id] = c
	return nil
}

// Relationship operations

// AddRelationship inserts a relationship between two existing characters.
func (n *Network) AddRelationship(r Relationship) error {
	r.Type = RelationType(NormalizeTerm(string(r.Type)))
	if err := n.validateRelationship(r); err != nil {
		return err
	}
	n.relationships[r.ID] = r
	return nil
}

func (n *Network) validateRelationship(r Relationship) error {
	if strings.TrimSpace(r.ID) == "" {
		return validationErr("relationship", "", "id is required")
	}
	if _, exists := n.relationships[r.ID]; exists {
		return validationErr("relationship", r.ID, "id already exists")
	}
	if _, ok := n.characters[r.Source]; !ok {
		return validationErr("relationship", r.ID, "source character %q does not exist", r.Source)
	}
	if _, ok := n.characters[r.Target]; !ok {
		return validationErr("relationship", r.ID, "target character %q does not exist", r.Target)
	}
	if r.Source == r.Target {
		return validationErr("relationship", r.ID, "source and target must differ")
	}
	if !n.relationTypes.Contains(string(r.Type)) {
		return validationErr("relationship", r.ID, "unknown relationship type %q (valid: %s)", r.Type, strings.Join(n.relationTypes.Terms(), ", "))
	}
	if !r.Nature.IsValid() {
		return validationErr("relationship", r.ID, "invalid nature %q (valid: positive, negative, ambivalent)", r.Nature)
	}
	return checkStrength("relationship", r.ID, r.Strength)
}

func checkStrength(entity, id string, strength int) error {
	if strength < MinStrength || strength > MaxStrength {
		return validationErr(entity, id, "strength %d out of range [%d,%d]", strength, MinStrength, MaxStrength)
	}
	return nil
}

// Relationship returns the relationship with the given id.
func (n *Network) Relationship(id string) (Relationship, error) {
	r, ok := n.relationships[id]
	if !ok {
		return Relationship{}, notFoundErr("relationship", id)
	}
	return r, nil
}

// RemoveRelationship deletes a relationship no conflict links to.
func (n *Network) RemoveRelationship(id string) error {
	if _, ok := n.relationships[id]; !ok {
		return notFoundErr("relationship", id)
	}
	var deps []string
	for _, c := range n.conflicts {
		if c.References(id) {
			deps = append(deps, "conflict "+c.ID)
		}
	}
	if len(deps) > 0 {
		sort.Strings(deps)
		return dependencyErr("relationship", id, "still linked from %s", strings.Join(deps, ", "))
	}
	delete(n.relationships, id)
	return nil
}

// SetRelationshipStrength changes the strength of an existing relationship.
func (n *Network) SetRelationshipStrength(id string, strength int) error {
	r, ok := n.relationships[id]
	if !ok {
		return notFoundErr("relationship", id)
	}
	if err := checkStrength("relationship", id, strength); err != nil {
		return err
	}
	r.Strength = strength
	n.relationships[id] = r
	return nil
}

// Conflict operations

// AddConflict inserts a conflict whose participants and linked relationships exist.
func (n *Network) AddConflict(c Conflict) error {
	c = c.Clone()
	c.Subject = ConflictSubject(NormalizeTerm(string(c.Subject)))
	if err := n.validateConflict(c); err != nil {
		return err
	}
	n.conflicts[c.ID] = c
	return nil
}

func (n *Network) validateConflict(c Conflict) error {
	if strings.TrimSpace(c.ID) == "" {
		return validationErr("conflict", "", "id is required")
	}
	if _, exists := n.conflicts[c.ID]; exists {
		return validationErr("conflict", c.ID, "id already exists")
	}
	if strings.TrimSpace(c.Name) == "" {
		return validationErr("conflict", c.ID, "name is required")
	}
	if len(c.InvolvedCharacters) == 0 {
		return validationErr("conflict", c.ID, "at least one involved character is required")
	}
	seen := make(map[string]bool, len(c.InvolvedCharacters))
	for _, id := range c.InvolvedCharacters {
		if seen[id] {
			return validationErr("conflict", c.ID, "character %q listed twice", id)
		}
		seen[id] = true
		if _, ok := n.characters[id]; !ok {
			return validationErr("conflict", c.ID, "involved character %q does not exist", id)
		}
	}
	if !n.conflictSubjects.Contains(string(c.Subject)) {
		return validationErr("conflict", c.ID, "unknown subject %q (valid: %s)", c.Subject, strings.Join(n.conflictSubjects.Terms(), ", "))
	}
	if !c.Scope.IsValid() {
		return validationErr("conflict", c.ID, "invalid scope %q (valid: personal, interpersonal, societal)", c.Scope)
	}
	if !c.Phase.IsValid() {
		return validationErr("conflict", c.ID, "invalid phase %q", c.Phase)
	}
	if err := checkStrength("conflict", c.ID, c.Strength); err != nil {
		return err
	}
	linked := make(map[string]bool, len(c.RelatedRelationships))
	for _, relID := range c.RelatedRelationships {
		if linked[relID] {
			return validationErr("conflict", c.ID, "relationship %q linked twice", relID)
		}
		linked[relID] = true
		if err := n.checkLink(c, relID); err != nil {
			return err
		}
	}
	for i, ts := range c.Timestamps {
		if ts.IsZero() {
			return validationErr("conflict", c.ID, "timestamp %d is zero", i)
		}
		if i > 0 && ts.Before(c.Timestamps[i-1]) {
			return validationErr("conflict", c.ID, "timestamps must be in chronological order")
		}
	}
	return nil
}

// checkLink verifies relID exists and shares at least one endpoint with the
// conflict's participants.
func (n *Network) checkLink(c Conflict, relID string) error {
	r, ok := n.relationships[relID]
	if !ok {
		return validationErr("conflict", c.ID, "related relationship %q does not exist", relID)
	}
	if !c.Involves(r.Source) && !c.Involves(r.Target) {
		return validationErr("conflict", c.ID, "relationship %q does not touch any involved character", relID)
	}
	return nil
}

// Conflict returns a copy of the conflict with the given id.
func (n *Network) Conflict(id string) (Conflict, error) {
	c, ok := n.conflicts[id]
	if !ok {
		return Conflict{}, notFoundErr("conflict", id)
	}
	return c.Clone(), nil
}

// RemoveConflict deletes a conflict. Conflicts have no dependents.
func (n *Network) RemoveConflict(id string) error {
	if _, ok := n.conflicts[id]; !ok {
		return notFoundErr("conflict", id)
	}
	delete(n.conflicts, id)
	return nil
}

// SetConflictPhase moves a conflict to the given phase.
func (n *Network) SetConflictPhase(id string, phase Phase) error {
	c, ok := n.conflicts[id]
	if !ok {
		return notFoundErr("conflict", id)
	}
	if !phase.IsValid() {
		return validationErr("conflict", id, "invalid phase %q", phase)
	}
	c = c.Clone()
	c.Phase = phase
	n.conflicts[id] = c
	return nil
}

// TouchConflict appends a timestamp. Timestamps are append-only and must not
// go back in time.
func (n *Network) TouchConflict(id string, at time.Time) error {
	c, ok := n.conflicts[id]
	if !ok {
		return notFoundErr("conflict", id)
	}
	if at.IsZero() {
		return validationErr("conflict", id, "timestamp is required")
	}
	if last, ok := c.LastTouched(); ok && at.Before(last) {
		return validationErr("conflict", id, "timestamp %s is before last touch %s", at.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	c = c.Clone()
	c.Timestamps = append(c.Timestamps, at)
	n.conflicts[id] = c
	return nil
}

// LinkRelationship adds a relationship to a conflict's related set.
func (n *Network) LinkRelationship(conflictID, relationshipID string) error {
	c, ok := n.conflicts[conflictID]
	if !ok {
		return notFoundErr("conflict", conflictID)
	}
	if c.References(relationshipID) {
		return validationErr("conflict", conflictID, "relationship %q already linked", relationshipID)
	}
	if err := n.checkLink(c, relationshipID); err != nil {
		return err
	}
	c = c.Clone()
	c.RelatedRelationships = append(c.RelatedRelationships, relationshipID)
	n.conflicts[conflictID] = c
	return nil
}

// UnlinkRelationship removes a relationship from a conflict's related set.
func (n *Network) UnlinkRelationship(conflictID, relationshipID string) error {
	c, ok := n.conflicts[conflictID]
	if !ok {
		return notFoundErr("conflict", conflictID)
	}
	if !c.References(relationshipID) {
		return validationErr("conflict", conflictID, "relationship %q is not linked", relationshipID)
	}
	c = c.Clone()
	c.RelatedRelationships = removeID(c.RelatedRelationships, relationshipID)
	n.conflicts[conflictID] = c
	return nil
}

// InvolveCharacter adds a participant to a conflict.
func (n *Network) InvolveCharacter(conflictID, characterID string) error {
	c, ok := n.conflicts[conflictID]
	if !ok {
		return notFoundErr("conflict", conflictID)
	}
	if _, ok := n.characters[characterID]; !ok {
		return validationErr("conflict", conflictID, "character %q does not exist", characterID)
	}
	if c.Involves(characterID) {
		return validationErr("conflict", conflictID, "character %q already involved", characterID)
	}
	c = c.Clone()
	c.InvolvedCharacters = append(c.InvolvedCharacters, characterID)
	n.conflicts[conflictID] = c
	return nil
}

// ReleaseCharacter removes a participant from a conflict. The last
// participant cannot be released, nor one that a linked relationship needs
// to keep touching the conflict.
func (n *Network) ReleaseCharacter(conflictID, characterID string) error {
	c, ok := n.conflicts[conflictID]
	if !ok {
		return notFoundErr("conflict", conflictID)
	}
	if !c.Involves(characterID) {
		return validationErr("conflict", conflictID, "character %q is not involved", characterID)
	}
	if len(c.InvolvedCharacters) == 1 {
		return validationErr("conflict", conflictID, "cannot release the last involved character")
	}
	next := c.Clone()
	next.InvolvedCharacters = removeID(next.InvolvedCharacters, characterID)
	for _, relID := range next.RelatedRelationships {
		r := n.relationships[relID]
		if !next.Involves(r.Source) && !next.Involves(r.Target) {
			return dependencyErr("conflict", conflictID, "linked relationship %q would no longer touch the conflict", relID)
		}
	}
	n.conflicts[conflictID] = next
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Read helpers

// Characters returns all characters sorted by id.
func (n *Network) Characters() []Character {
	out := make([]Character, 0, len(n.characters))
	for _, id := range sortedKeys(n.characters) {
		out = append(out, n.characters[id].Clone())
	}
	return out
}

// Relationships returns all relationships sorted by id.
func (n *Network) Relationships() []Relationship {
	out := make([]Relationship, 0, len(n.relationships))
	for _, id := range sortedKeys(n.relationships) {
		out = append(out, n.relationships[id])
	}
	return out
}

// Conflicts returns all conflicts sorted by id.
func (n *Network) Conflicts() []Conflict {
	out := make([]Conflict, 0, len(n.conflicts))
	for _, id := range sortedKeys(n.conflicts) {
		out = append(out, n.conflicts[id].Clone())
	}
	return out
}

// Counts returns the number of characters, relationships and conflicts.
func (n *Network) Counts() (characters, relationships, conflicts int) {
	return len(n.characters), len(n.relationships), len(n.conflicts)
}

// RelationshipsFor returns the relationships touching a character, sorted by id.
func (n *Network) RelationshipsFor(characterID string) ([]Relationship, error) {
	if _, ok := n.characters[characterID]; !ok {
		return nil, notFoundErr("character", characterID)
	}
	var out []Relationship
	for _, id := range sortedKeys(n.relationships) {
		if r := n.relationships[id]; r.Involves(characterID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Neighbors returns the sorted ids of characters reachable from characterID
// through a single relationship in either direction.
func (n *Network) Neighbors(characterID string) ([]string, error) {
	if _, ok := n.characters[characterID]; !ok {
		return nil, notFoundErr("character", characterID)
	}
	set := make(map[string]struct{})
	for _, r := range n.relationships {
		if r.Involves(characterID) {
			set[r.Other(characterID)] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// ConflictsFor returns the sorted ids of conflicts the character is involved in.
func (n *Network) ConflictsFor(characterID string) ([]string, error) {
	if _, ok := n.characters[characterID]; !ok {
		return nil, notFoundErr("character", characterID)
	}
	var out []string
	for _, id := range sortedKeys(n.conflicts) {
		if n.conflicts[id].Involves(characterID) {
			out = append(out, id)
		}
	}
	return out, nil
}

// Involvement returns how many relationships and conflicts reference the character.
func (n *Network) Involvement(characterID string) (relationships, conflicts int, err error) {
	if _, ok := n.characters[characterID]; !ok {
		return 0, 0, notFoundErr("character", characterID)
	}
	for _, r := range n.relationships {
		if r.Involves(characterID) {
			relationships++
		}
	}
	for _, c := range n.conflicts {
		if c.Involves(characterID) {
			conflicts++
		}
	}
	return relationships, conflicts, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
