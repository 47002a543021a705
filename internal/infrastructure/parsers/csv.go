package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// csvColumns is the header written by Encode.
var csvColumns = []string{"id", "source", "target", "type", "nature", "strength", "mutual", "description"}

// CSVParser reads and writes relationship edge lists. Characters are
// derived from the endpoints; conflicts are not representable.
type CSVParser struct{}

// Parse reads CSV from the reader and returns the implied network.
// Required columns: source, target, type, strength.
// Optional columns: id, nature, mutual, description.
func (p *CSVParser) Parse(r io.Reader) (entities.NetworkState, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return entities.NetworkState{}, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	requiredCols := []string{"source", "target", "type", "strength"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows. Endpoints become characters in order of
// first appearance.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) (entities.NetworkState, error) {
	var state entities.NetworkState
	seen := make(map[string]bool)
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entities.NetworkState{}, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rel, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return entities.NetworkState{}, err
		}

		for _, id := range []string{rel.Source, rel.Target} {
			if id != "" && !seen[id] {
				seen[id] = true
				state.Characters = append(state.Characters, entities.Character{ID: id, Name: id})
			}
		}
		state.Relationships = append(state.Relationships, rel)
	}

	return state, nil
}

// parseRecord converts a CSV record to a Relationship. Rows without an id
// get "r<line>".
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (entities.Relationship, error) {
	rel := entities.Relationship{
		ID:          getColumn(record, colIndex, "id"),
		Source:      getColumn(record, colIndex, "source"),
		Target:      getColumn(record, colIndex, "target"),
		Type:        entities.RelationType(getColumn(record, colIndex, "type")),
		Nature:      entities.Nature(getColumn(record, colIndex, "nature")),
		Description: getColumn(record, colIndex, "description"),
	}
	if rel.ID == "" {
		rel.ID = "r" + strconv.Itoa(lineNum)
	}
	if rel.Nature == "" {
		rel.Nature = entities.NatureAmbivalent
	}

	strStr := getColumn(record, colIndex, "strength")
	strength, err := strconv.Atoi(strStr)
	if err != nil {
		return entities.Relationship{}, fmt.Errorf("line %d: invalid strength value %q: %w", lineNum, strStr, err)
	}
	rel.Strength = strength

	if mutual := getColumn(record, colIndex, "mutual"); mutual != "" {
		rel.Mutual, err = strconv.ParseBool(mutual)
		if err != nil {
			return entities.Relationship{}, fmt.Errorf("line %d: invalid mutual value %q: %w", lineNum, mutual, err)
		}
	}

	return rel, nil
}

// Encode writes the relationships as an edge list.
func (p *CSVParser) Encode(w io.Writer, state entities.NetworkState) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, rel := range state.Relationships {
		record := []string{
			rel.ID,
			rel.Source,
			rel.Target,
			string(rel.Type),
			string(rel.Nature),
			strconv.Itoa(rel.Strength),
			strconv.FormatBool(rel.Mutual),
			rel.Description,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
