// Package srcmap produces version 3 source maps and resolves positions
// through existing (input) source maps.
package srcmap

import (
	"encoding/json"
	"sort"
	"strings"
)

type segment struct {
	genCol  int
	source  int
	srcLine int
	srcCol  int
	name    int // -1 when absent
}

// Generator accumulates mappings and renders them as a source map. All
// positions are 0-based, columns are in UTF-16 units.
type Generator struct {
	file    string
	sources []string
	srcIdx  map[string]int
	names   []string
	nameIdx map[string]int
	lines   [][]segment
	count   int
	content map[string]string
}

// NewGenerator returns empty generator for generated file named file.
func NewGenerator(file string) *Generator {
	return &Generator{
		file:    file,
		srcIdx:  make(map[string]int),
		nameIdx: make(map[string]int),
	}
}

// AddMapping records that generated position genLine:genCol came from
// srcLine:srcCol of source. name is optional.
func (g *Generator) AddMapping(genLine, genCol int, source string, srcLine, srcCol int, name string) {
	si, ok := g.srcIdx[source]
	if !ok {
		si = len(g.sources)
		g.sources = append(g.sources, source)
		g.srcIdx[source] = si
	}
	ni := -1
	if name != "" {
		if ni, ok = g.nameIdx[name]; !ok {
			ni = len(g.names)
			g.names = append(g.names, name)
			g.nameIdx[name] = ni
		}
	}
	for len(g.lines) <= genLine {
		g.lines = append(g.lines, nil)
	}
	g.lines[genLine] = append(g.lines[genLine], segment{genCol: genCol, source: si, srcLine: srcLine, srcCol: srcCol, name: ni})
	g.count++
}

// SetSourceContent embeds content of source into the map. It is only
// written out for sources referenced by mappings.
func (g *Generator) SetSourceContent(source, content string) {
	if g.content == nil {
		g.content = make(map[string]string)
	}
	g.content[source] = content
}

// Len returns number of recorded mappings.
func (g *Generator) Len() int {
	return g.count
}

// Sources returns sources referenced by recorded mappings in order of first use.
func (g *Generator) Sources() []string {
	return g.sources
}

type document struct {
	Version  int      `json:"version"`
	File     string   `json:"file,omitempty"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
	// null for sources without known content
	SourcesContent []*string `json:"sourcesContent,omitempty"`
}

// MarshalJSON renders the source map.
func (g *Generator) MarshalJSON() ([]byte, error) {
	doc := document{
		Version:  3,
		File:     g.file,
		Sources:  g.sources,
		Names:    g.names,
		Mappings: g.mappings(),
	}
	if len(g.content) > 0 {
		doc.SourcesContent = make([]*string, len(g.sources))
		for i, src := range g.sources {
			if content, ok := g.content[src]; ok {
				doc.SourcesContent[i] = &content
			}
		}
	}
	if doc.Sources == nil {
		doc.Sources = []string{}
	}
	if doc.Names == nil {
		doc.Names = []string{}
	}
	return json.Marshal(doc)
}

func (g *Generator) mappings() string {
	var b strings.Builder
	prevSource, prevLine, prevCol, prevName := 0, 0, 0, 0
	for i, line := range g.lines {
		if i > 0 {
			b.WriteByte(';')
		}
		sort.SliceStable(line, func(x, y int) bool { return line[x].genCol < line[y].genCol })
		prevGenCol := 0
		for j, s := range line {
			if j > 0 {
				b.WriteByte(',')
			}
			writeVLQ(&b, s.genCol-prevGenCol)
			writeVLQ(&b, s.source-prevSource)
			writeVLQ(&b, s.srcLine-prevLine)
			writeVLQ(&b, s.srcCol-prevCol)
			if s.name >= 0 {
				writeVLQ(&b, s.name-prevName)
				prevName = s.name
			}
			prevGenCol, prevSource, prevLine, prevCol = s.genCol, s.source, s.srcLine, s.srcCol
		}
	}
	return b.String()
}
