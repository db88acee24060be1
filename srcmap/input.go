package srcmap

import (
	"encoding/json"
	"fmt"

	"github.com/go-sourcemap/sourcemap"
)

// Position is a location in an original source. Line and Column are 0-based.
type Position struct {
	Source string
	Line   int
	Column int
	Name   string
}

// Input is a parsed source map of a stylesheet we are about to transform.
type Input struct {
	consumer *sourcemap.Consumer
	// first mapped column per generated line, -1 for lines without
	// mappings, nil for index maps
	first []int
}

// ParseInput parses source map JSON. A map without mappings is valid, every
// lookup in it fails.
func ParseInput(data []byte) (*Input, error) {
	var raw struct {
		Mappings string            `json:"mappings"`
		Sections []json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse source map: %w", err)
	}
	if len(raw.Mappings) == 0 && len(raw.Sections) == 0 {
		return &Input{first: []int{}}, nil
	}

	c, err := sourcemap.Parse("", data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse source map: %w", err)
	}
	in := &Input{consumer: c}
	if len(raw.Mappings) > 0 {
		if in.first, err = firstColumns(raw.Mappings); err != nil {
			return nil, fmt.Errorf("unable to parse source map: %w", err)
		}
	}
	return in, nil
}

// Lookup returns original position for 0-based line and column of the
// generated file described by the map. Closest preceding mapping on the same
// line is used when there is no exact one.
func (in *Input) Lookup(line, col int) (Position, bool) {
	// consumer falls back to mappings of earlier lines
	if in.first != nil && (line >= len(in.first) || in.first[line] < 0 || col < in.first[line]) {
		return Position{}, false
	}
	// consumer uses 1-based lines and 0-based columns, it also ignores
	// mappings pointing at the very first position of a source
	source, name, l, c, ok := in.consumer.Source(line+1, col)
	if !ok || source == "" || l < 1 {
		return Position{}, false
	}
	return Position{Source: source, Line: l - 1, Column: c, Name: name}, true
}

// SourceContent returns embedded content of source or empty string.
func (in *Input) SourceContent(source string) string {
	if in.consumer == nil {
		return ""
	}
	return in.consumer.SourceContent(source)
}

// firstColumns decodes mappings keeping only the smallest generated column
// of segments referencing a source on every line.
func firstColumns(mappings string) ([]int, error) {
	first := []int{-1}
	line, col := 0, 0
	for pos := 0; pos < len(mappings); {
		switch mappings[pos] {
		case ';':
			first = append(first, -1)
			line, col = line+1, 0
			pos++
			continue
		case ',':
			pos++
			continue
		}
		// generated column is relative to previous segment of the same line,
		// segments of one field do not point anywhere
		fields := 0
		for pos < len(mappings) && mappings[pos] != ',' && mappings[pos] != ';' {
			v, n, err := readVLQ(mappings[pos:])
			if err != nil {
				return nil, err
			}
			if fields == 0 {
				col += v
			}
			fields++
			pos += n
		}
		if fields >= 4 && (first[line] < 0 || col < first[line]) {
			first[line] = col
		}
	}
	return first, nil
}
