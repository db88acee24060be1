package css

import (
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Node is a single construct of a parsed stylesheet. The set of
// implementations is closed: *Rule, *AtRule and *Other.
type Node interface {
	// Offset is the byte offset of the node's text in the source.
	Offset() int
	// Before is the whitespace preceding the node in the source.
	Before() string
	// Text is the verbatim source text of the node.
	Text() string

	isNode()
}

type span struct {
	offset int
	before string
	text   string
}

func (s span) Offset() int    { return s.offset }
func (s span) Before() string { return s.before }
func (s span) Text() string   { return s.text }
func (span) isNode()          {}

// Rule is a qualified rule: a selector list followed by a block.
type Rule struct {
	span
	Prelude   string   // selector list as written
	Selectors []string // comma separated groups, trimmed
}

// AtRule is an at-rule with or without a block.
type AtRule struct {
	span
	Name   string // without leading '@'
	Params string
	// Children is nil when the at-rule has no block (e.g. @import) and
	// non-nil, possibly empty, when it has one.
	Children []Node
}

// HasBlock reports whether the at-rule was followed by a {} block.
func (a *AtRule) HasBlock() bool {
	return a.Children != nil
}

// Other is anything that is neither a rule nor an at-rule: comments,
// declarations outside of a rule, stray semicolons.
type Other struct {
	span
}

// sourceText is shared between a parsed stylesheet and all its clones.
type sourceText struct {
	data  []byte
	lines []int // byte offsets of line starts
}

func newSourceText(data []byte) *sourceText {
	st := &sourceText{data: data, lines: []int{0}}
	for i, b := range data {
		if b == '\n' {
			st.lines = append(st.lines, i+1)
		}
	}
	return st
}

// position converts byte offset to 0-based line and UTF-16 column.
func (st *sourceText) position(offset int) (int, int) {
	if offset > len(st.data) {
		offset = len(st.data)
	}
	// last line start which is <= offset
	lo, hi := 0, len(st.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if st.lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	col := 0
	for b := st.data[st.lines[lo]:offset]; len(b) > 0; {
		r, size := utf8.DecodeRune(b)
		col += utf16.RuneLen(r)
		b = b[size:]
	}
	return lo, col
}

// Stylesheet is a parsed stylesheet: ordered top-level nodes plus document
// level metadata. It is never modified after parsing, Clone produces new
// roots sharing the same source.
type Stylesheet struct {
	Source string // path or asset name the text came from
	Nodes  []Node
	Map    []byte // input source map (JSON), if any

	src *sourceText
}

// Clone returns a new root with the same metadata holding nodes.
func (s *Stylesheet) Clone(nodes []Node) *Stylesheet {
	return &Stylesheet{
		Source: s.Source,
		Nodes:  nodes,
		Map:    s.Map,
		src:    s.src,
	}
}

// Position returns 0-based line and UTF-16 column of byte offset in the
// original source.
func (s *Stylesheet) Position(offset int) (line, col int) {
	if s.src == nil {
		return 0, 0
	}
	return s.src.position(offset)
}

// Weight returns the total selector weight of all top-level nodes.
func (s *Stylesheet) Weight() int {
	total := 0
	for _, n := range s.Nodes {
		total += Weight(n)
	}
	return total
}

// Walk calls fn for every piece of text WriteTo produces, in output order.
// node is nil for pieces which are not part of any node text (separators and
// the final newline).
func (s *Stylesheet) Walk(fn func(text string, node Node) error) error {
	if len(s.Nodes) == 0 {
		return nil
	}
	for i, n := range s.Nodes {
		if i > 0 && n.Before() != "" {
			if err := fn(n.Before(), nil); err != nil {
				return err
			}
		}
		if err := fn(n.Text(), n); err != nil {
			return err
		}
	}
	return fn("\n", nil)
}

// WriteTo writes top-level nodes verbatim, separated by the whitespace which
// preceded them in the source, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	err := s.Walk(func(text string, _ Node) error {
		n, err := io.WriteString(w, text)
		total += int64(n)
		return err
	})
	return total, err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}
