package parsers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// JSONParser reads and writes network documents as JSON.
type JSONParser struct{}

// Parse reads a JSON network document. Unknown fields are rejected.
func (p *JSONParser) Parse(r io.Reader) (entities.NetworkState, error) {
	var state entities.NetworkState

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&state); err != nil {
		return entities.NetworkState{}, fmt.Errorf("parsing JSON: %w", err)
	}

	return state, nil
}

// Encode writes the state as indented JSON.
func (p *JSONParser) Encode(w io.Writer, state entities.NetworkState) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
