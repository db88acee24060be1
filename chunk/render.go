package chunk

import (
	"encoding/json"
	"fmt"
	"unicode"
	"unicode/utf16"

	"csssplit/css"
	"csssplit/srcmap"
)

// NameFunc resolves output file name for chunk index with rendered content.
type NameFunc func(index int, content []byte) (string, error)

// Rendered is a chunk serialized to text.
type Rendered struct {
	Name string
	CSS  []byte
	Map  []byte // nil when no source map was requested
}

// Renderer serializes chunks. When Input is set every produced map is
// composed through it, so positions point at original sources rather than at
// the stylesheet being split.
type Renderer struct {
	Name  NameFunc
	Input *srcmap.Input
}

// Render serializes a single chunk.
func (r *Renderer) Render(c *Chunk) (*Rendered, error) {
	text := []byte(c.Sheet.String())
	name, err := r.Name(c.Index, text)
	if err != nil {
		return nil, fmt.Errorf("unable to name chunk %d: %w", c.Index, err)
	}

	out := &Rendered{Name: name, CSS: text}
	if r.Input == nil {
		return out, nil
	}

	gen := srcmap.NewGenerator(name)
	r.mapChunk(gen, c.Sheet)
	for _, src := range gen.Sources() {
		if content := r.Input.SourceContent(src); len(content) > 0 {
			gen.SetSourceContent(src, content)
		}
	}
	if out.Map, err = json.Marshal(gen); err != nil {
		return nil, fmt.Errorf("unable to produce source map for %s: %w", name, err)
	}
	return out, nil
}

// mapChunk walks the same text Sheet.String() produces and records a mapping
// at the beginning of every run of non-space characters.
func (r *Renderer) mapChunk(gen *srcmap.Generator, sheet *css.Stylesheet) {
	var line, col int
	_ = sheet.Walk(func(text string, node css.Node) error {
		if node == nil {
			line, col = advance(text, line, col)
			return nil
		}
		srcLine, srcCol := sheet.Position(node.Offset())
		mark := true
		for _, ch := range text {
			if ch == '\n' {
				line, col, srcLine, srcCol = line+1, 0, srcLine+1, 0
				mark = true
				continue
			}
			if unicode.IsSpace(ch) {
				mark = true
			} else if mark {
				if pos, ok := r.Input.Lookup(srcLine, srcCol); ok {
					gen.AddMapping(line, col, pos.Source, pos.Line, pos.Column, pos.Name)
				}
				mark = false
			}
			n := utf16.RuneLen(ch)
			col, srcCol = col+n, srcCol+n
		}
		return nil
	})
}

func advance(text string, line, col int) (int, int) {
	for _, ch := range text {
		if ch == '\n' {
			line, col = line+1, 0
			continue
		}
		col += utf16.RuneLen(ch)
	}
	return line, col
}
