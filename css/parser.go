package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// ParseError describes malformed stylesheet text. Line and Column are 1-based.
type ParseError struct {
	Source string
	Line   int
	Column int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Reason)
}

// Parser splits stylesheet text into a tree of top-level nodes. Node text is
// kept verbatim so output produced from the tree is byte-exact.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. source identifies where the text
// came from and is used for error reporting.
func (p *Parser) Parse(data []byte, source string) (*Stylesheet, error) {
	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	toks, err := tokenize(data)
	if err != nil {
		return nil, fmt.Errorf("unable to tokenize %s: %w", source, err)
	}

	st := &state{
		data:   data,
		toks:   toks,
		source: source,
		text:   newSourceText(data),
	}
	nodes, err := st.list(true)
	if err != nil {
		return nil, err
	}

	sheet := &Stylesheet{Source: source, Nodes: nodes, src: st.text}
	p.log.Debug("Parsed CSS", zap.String("source", source), zap.Int("nodes", len(nodes)), zap.Int("weight", sheet.Weight()))
	return sheet, nil
}

type token struct {
	tt  css.TokenType
	off int
	end int
}

// tokenize runs lexer over the whole input. Lexer is lossless: concatenated
// token data reproduces input exactly, which is verified here.
func tokenize(data []byte) ([]token, error) {
	l := css.NewLexer(parse.NewInput(bytes.NewReader(data)))

	var (
		toks []token
		off  int
	)
	for {
		tt, text := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}
		toks = append(toks, token{tt: tt, off: off, end: off + len(text)})
		off += len(text)
	}
	if off != len(data) {
		return nil, fmt.Errorf("tokenizer stopped at byte %d of %d", off, len(data))
	}
	return toks, nil
}

type state struct {
	data   []byte
	toks   []token
	pos    int
	source string
	text   *sourceText
}

func (st *state) errorAt(offset int, reason string) error {
	line, col := st.text.position(offset)
	return &ParseError{Source: st.source, Line: line + 1, Column: col + 1, Reason: reason}
}

// offset returns byte offset of token i, len(data) past the last token.
func (st *state) offset(i int) int {
	if i >= len(st.toks) {
		return len(st.data)
	}
	return st.toks[i].off
}

func (st *state) slice(from, to int) string {
	return string(st.data[from:to])
}

// list parses a sequence of nodes until end of input (top level) or until
// closing brace of the enclosing block, which is not consumed.
func (st *state) list(top bool) ([]Node, error) {
	nodes := make([]Node, 0)
	for {
		wsStart := st.offset(st.pos)
		for st.pos < len(st.toks) && st.toks[st.pos].tt == css.WhitespaceToken {
			st.pos++
		}
		if st.pos >= len(st.toks) {
			return nodes, nil
		}
		before := st.slice(wsStart, st.offset(st.pos))

		t := st.toks[st.pos]
		var (
			n   Node
			err error
		)
		switch t.tt {
		case css.RightBraceToken:
			if top {
				return nil, st.errorAt(t.off, "unexpected '}'")
			}
			return nodes, nil
		case css.CommentToken, css.CDOToken, css.CDCToken, css.SemicolonToken:
			st.pos++
			n = &Other{span{offset: t.off, before: before, text: st.slice(t.off, t.end)}}
		case css.AtKeywordToken:
			n, err = st.atRule(before)
		default:
			n, err = st.qualified(before, top)
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
}

// prelude scans forward from st.pos for the token terminating a prelude: a
// brace of any kind or a semicolon outside of parentheses and brackets.
// Returns len(toks) when input ends first.
func (st *state) prelude() int {
	depth := 0
	for i := st.pos; i < len(st.toks); i++ {
		switch st.toks[i].tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.RightBraceToken:
			return i
		case css.SemicolonToken:
			if depth == 0 {
				return i
			}
		}
	}
	return len(st.toks)
}

// block consumes a {} block starting at st.pos (which is the opening brace)
// without looking inside and returns index of the closing brace.
func (st *state) block() (int, bool) {
	depth := 0
	for i := st.pos; i < len(st.toks); i++ {
		switch st.toks[i].tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func (st *state) atRule(before string) (Node, error) {
	start := st.toks[st.pos]
	st.pos++

	rule := &AtRule{Name: st.slice(start.off+1, start.end)}
	end := st.prelude()
	rule.Params = strings.TrimSpace(st.slice(start.end, st.offset(end)))

	switch {
	case end < len(st.toks) && st.toks[end].tt == css.SemicolonToken:
		st.pos = end + 1
		rule.span = span{offset: start.off, before: before, text: st.slice(start.off, st.toks[end].end)}

	case end < len(st.toks) && st.toks[end].tt == css.LeftBraceToken:
		st.pos = end + 1
		children, err := st.list(false)
		if err != nil {
			return nil, err
		}
		if st.pos >= len(st.toks) {
			return nil, st.errorAt(st.toks[end].off, "unclosed block of @"+rule.Name)
		}
		closing := st.toks[st.pos]
		st.pos++
		rule.Children = children
		rule.span = span{offset: start.off, before: before, text: st.slice(start.off, closing.end)}

	default:
		// at-rule terminated by the end of enclosing block or input
		st.pos = end
		rule.span = span{offset: start.off, before: before, text: strings.TrimRight(st.slice(start.off, st.offset(end)), " \t\r\n\f")}
	}
	return rule, nil
}

func (st *state) qualified(before string, top bool) (Node, error) {
	start := st.toks[st.pos]
	end := st.prelude()

	switch {
	case end < len(st.toks) && st.toks[end].tt == css.LeftBraceToken:
		rule := &Rule{
			Prelude:   strings.TrimSpace(st.slice(start.off, st.toks[end].off)),
			Selectors: st.selectors(st.pos, end),
		}
		st.pos = end
		closing, ok := st.block()
		if !ok {
			return nil, st.errorAt(st.toks[end].off, "unclosed block")
		}
		st.pos = closing + 1
		rule.span = span{offset: start.off, before: before, text: st.slice(start.off, st.toks[closing].end)}
		return rule, nil

	case end < len(st.toks) && st.toks[end].tt == css.SemicolonToken:
		st.pos = end + 1
		return &Other{span{offset: start.off, before: before, text: st.slice(start.off, st.toks[end].end)}}, nil

	case top && end < len(st.toks):
		return nil, st.errorAt(st.toks[end].off, "unexpected '}'")

	case top:
		return nil, st.errorAt(start.off, "unexpected end of input, missing '{'")

	default:
		// last declaration in a block without trailing semicolon
		st.pos = end
		text := strings.TrimRight(st.slice(start.off, st.offset(end)), " \t\r\n\f")
		return &Other{span{offset: start.off, before: before, text: text}}, nil
	}
}

// selectors splits tokens [from, to) on commas outside of parentheses and
// brackets.
func (st *state) selectors(from, to int) []string {
	var (
		result []string
		depth  int
		group  = st.offset(from)
	)
	add := func(end int) {
		if s := strings.TrimSpace(st.slice(group, end)); s != "" {
			result = append(result, s)
		}
	}
	for i := from; i < to; i++ {
		t := st.toks[i]
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				add(t.off)
				group = t.end
			}
		}
	}
	add(st.offset(to))
	return result
}
