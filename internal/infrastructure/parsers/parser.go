// Package parsers reads and writes network documents in various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// Parser decodes a network document. The result is not validated; callers
// rebuild it through entities.NewNetworkFromState.
type Parser interface {
	Parse(r io.Reader) (entities.NetworkState, error)
}

// Encoder writes a network document.
type Encoder interface {
	Encode(w io.Writer, state entities.NetworkState) error
}

// Codec both parses and encodes one format.
type Codec interface {
	Parser
	Encoder
}

// Formats lists the supported document formats.
var Formats = []string{"json", "yaml", "csv"}

// ForFormat returns the codec for the given format, or nil if unsupported.
func ForFormat(format string) Codec {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "yaml", "yml":
		return &YAMLParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the codec based on file extension, or nil if unsupported.
func ForFile(filename string) Codec {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return nil
	}
	return ForFormat(ext)
}
