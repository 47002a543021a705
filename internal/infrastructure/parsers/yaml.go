package parsers

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// YAMLParser reads and writes network documents as YAML.
type YAMLParser struct{}

// Parse reads a YAML network document. Unknown fields are rejected.
func (p *YAMLParser) Parse(r io.Reader) (entities.NetworkState, error) {
	var state entities.NetworkState

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&state); err != nil {
		if errors.Is(err, io.EOF) {
			return entities.NetworkState{}, errors.New("parsing YAML: empty document")
		}
		return entities.NetworkState{}, fmt.Errorf("parsing YAML: %w", err)
	}

	return state, nil
}

// Encode writes the state as YAML.
func (p *YAMLParser) Encode(w io.Writer, state entities.NetworkState) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}
