package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/services"
	"github.com/ersonp/dramanet/internal/infrastructure/parsers"
)

// ImportHandler handles importing and exporting network documents.
type ImportHandler struct {
	service  *services.NetworkService
	registry *Registry
}

// NewImportHandler creates a new import handler. registry may be nil.
func NewImportHandler(service *services.NetworkService, registry *Registry) *ImportHandler {
	return &ImportHandler{
		service:  service,
		registry: registry,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format  string // "json", "yaml", "csv", or "auto"
	Name    string // overrides the network name in the document
	Replace bool   // replace an existing network of the same name
	DryRun  bool   // validate without saving
}

// ImportError describes one rejected element of a document.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// ImportResult contains the result of an import operation. Nothing is saved
// unless Errors is empty.
type ImportResult struct {
	Network       string        `json:"network"`
	Characters    int           `json:"characters"`
	Relationships int           `json:"relationships"`
	Conflicts     int           `json:"conflicts"`
	Saved         bool          `json:"saved"`
	Errors        []ImportError `json:"errors,omitempty"`
}

// Handle imports a network from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	codec, err := codecFor(filePath, opts.Format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.HandleReader(ctx, file, codec, opts)
}

// HandleReader imports a network document read from r.
func (h *ImportHandler) HandleReader(ctx context.Context, r io.Reader, parser parsers.Parser, opts ImportOptions) (*ImportResult, error) {
	state, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	if opts.Name != "" {
		state.Name = opts.Name
	}

	result := &ImportResult{
		Network:       state.Name,
		Characters:    len(state.Characters),
		Relationships: len(state.Relationships),
		Conflicts:     len(state.Conflicts),
		Errors:        validateState(state),
	}
	if len(result.Errors) > 0 || opts.DryRun {
		return result, nil
	}

	n, err := h.service.Import(ctx, state, services.ImportOptions{Replace: opts.Replace})
	if err != nil {
		return nil, err
	}
	if err := h.registry.Register(n.Name(), ""); err != nil {
		return nil, err
	}
	result.Network = n.Name()
	result.Saved = true
	return result, nil
}

// HandleExport writes a stored network to w in the given format.
func (h *ImportHandler) HandleExport(ctx context.Context, network string, w io.Writer, format string) error {
	codec := parsers.ForFormat(format)
	if codec == nil {
		return fmt.Errorf("unsupported format: %s", format)
	}
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return err
	}
	return codec.Encode(w, n.State())
}

// HandleExportFile writes a stored network to a file. An empty format is
// taken from the file extension.
func (h *ImportHandler) HandleExportFile(ctx context.Context, network, filePath, format string) (err error) {
	codec, err := codecFor(filePath, format)
	if err != nil {
		return err
	}
	n, err := h.service.Load(ctx, network)
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	return codec.Encode(file, n.State())
}

func codecFor(filePath, format string) (parsers.Codec, error) {
	var codec parsers.Codec
	if format == "" || format == "auto" {
		codec = parsers.ForFile(filePath)
	} else {
		codec = parsers.ForFormat(format)
	}
	if codec == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}
	return codec, nil
}

// validateState replays the document into a scratch network and collects
// every rejected element rather than stopping at the first.
func validateState(state entities.NetworkState) []ImportError {
	var errs []ImportError
	record := func(entity, id string, err error) {
		var e *entities.Error
		if errors.As(err, &e) {
			errs = append(errs, ImportError{Entity: e.Entity, ID: e.ID, Message: e.Message})
			return
		}
		errs = append(errs, ImportError{Entity: entity, ID: id, Message: err.Error()})
	}

	if state.Name == "" {
		record("network", "", errors.New("name is required"))
	}

	n := entities.NewNetwork(state.Name)
	for _, t := range state.RelationTypes {
		if err := n.RegisterRelationType(t); err != nil {
			record("relation_type", t, err)
		}
	}
	for _, s := range state.ConflictSubjects {
		if err := n.RegisterConflictSubject(s); err != nil {
			record("conflict_subject", s, err)
		}
	}
	for _, c := range state.Characters {
		if err := n.AddCharacter(c); err != nil {
			record("character", c.ID, err)
		}
	}
	for _, r := range state.Relationships {
		if err := n.AddRelationship(r); err != nil {
			record("relationship", r.ID, err)
		}
	}
	for _, c := range state.Conflicts {
		if err := n.AddConflict(c); err != nil {
			record("conflict", c.ID, err)
		}
	}
	return errs
}
