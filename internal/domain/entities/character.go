package entities

import (
	"sort"
	"strings"
)

// Common profile keys. Profiles are open key/value bags; these are only the
// keys most stories use.
const (
	ProfilePersonality = "personality_traits"
	ProfileMotivations = "motivations_goals"
	ProfileArc         = "potential_arc"
)

// Character is a participant in the story network.
type Character struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Profile     map[string]string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Clone returns a deep copy of the character.
func (c Character) Clone() Character {
	out := c
	if c.Profile != nil {
		out.Profile = make(map[string]string, len(c.Profile))
		for k, v := range c.Profile {
			out.Profile[k] = v
		}
	}
	return out
}

// ProfileText joins description and profile values into a single text, with
// keys in sorted order so the result is stable.
func (c Character) ProfileText() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Description != "" {
		b.WriteString(". ")
		b.WriteString(c.Description)
	}
	keys := make([]string, 0, len(c.Profile))
	for k := range c.Profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(c.Profile[k])
	}
	return b.String()
}
