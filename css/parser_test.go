package css_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"csssplit/css"
)

func mustParse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(input), "test.css")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sheet
}

func TestParser_Rules(t *testing.T) {
	sheet := mustParse(t, `
one { color: red; }
two-a, two-b { margin: 0 }
`)
	if len(sheet.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(sheet.Nodes))
	}

	r0, ok := sheet.Nodes[0].(*css.Rule)
	if !ok {
		t.Fatalf("expected *css.Rule, got %T", sheet.Nodes[0])
	}
	if r0.Text() != "one { color: red; }" {
		t.Errorf("unexpected text %q", r0.Text())
	}
	if len(r0.Selectors) != 1 || r0.Selectors[0] != "one" {
		t.Errorf("unexpected selectors %v", r0.Selectors)
	}
	if r0.Before() != "\n" {
		t.Errorf("unexpected before %q", r0.Before())
	}

	r1 := sheet.Nodes[1].(*css.Rule)
	if len(r1.Selectors) != 2 || r1.Selectors[0] != "two-a" || r1.Selectors[1] != "two-b" {
		t.Errorf("unexpected selectors %v", r1.Selectors)
	}
	if r1.Prelude != "two-a, two-b" {
		t.Errorf("unexpected prelude %q", r1.Prelude)
	}
}

func TestParser_SelectorCommasInsideFunctions(t *testing.T) {
	sheet := mustParse(t, `a:not(.x, .y), b[data-v="1,2"], :is(c, d) {}`)
	r := sheet.Nodes[0].(*css.Rule)
	want := []string{"a:not(.x, .y)", `b[data-v="1,2"]`, ":is(c, d)"}
	if len(r.Selectors) != len(want) {
		t.Fatalf("selectors = %v, want %v", r.Selectors, want)
	}
	for i := range want {
		if r.Selectors[i] != want[i] {
			t.Errorf("selector[%d] = %q, want %q", i, r.Selectors[i], want[i])
		}
	}
}

func TestParser_AtRules(t *testing.T) {
	sheet := mustParse(t, `@charset "utf-8";
@import url("base.css") screen;
@media print { a {} b, c { color: red } }
@font-face { font-family: x; src: url(x.woff) }
@media screen { @supports (display: grid) { .g { display: grid; } } }
`)
	if len(sheet.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(sheet.Nodes))
	}

	charset := sheet.Nodes[0].(*css.AtRule)
	if charset.Name != "charset" || charset.HasBlock() || charset.Params != `"utf-8"` {
		t.Errorf("unexpected @charset: name=%q params=%q block=%v", charset.Name, charset.Params, charset.HasBlock())
	}

	imp := sheet.Nodes[1].(*css.AtRule)
	if imp.Text() != `@import url("base.css") screen;` {
		t.Errorf("unexpected @import text %q", imp.Text())
	}

	media := sheet.Nodes[2].(*css.AtRule)
	if !media.HasBlock() || media.Params != "print" {
		t.Fatalf("unexpected @media: params=%q block=%v", media.Params, media.HasBlock())
	}
	if len(media.Children) != 2 {
		t.Fatalf("expected 2 children in @media, got %d", len(media.Children))
	}
	if _, ok := media.Children[1].(*css.Rule); !ok {
		t.Errorf("expected nested rule, got %T", media.Children[1])
	}

	ff := sheet.Nodes[3].(*css.AtRule)
	if len(ff.Children) != 2 {
		t.Fatalf("expected 2 declarations in @font-face, got %d", len(ff.Children))
	}
	for i, c := range ff.Children {
		if _, ok := c.(*css.Other); !ok {
			t.Errorf("@font-face child %d: expected *css.Other, got %T", i, c)
		}
	}
	if ff.Children[1].Text() != "src: url(x.woff)" {
		t.Errorf("unexpected last declaration %q", ff.Children[1].Text())
	}

	nested := sheet.Nodes[4].(*css.AtRule)
	supports, ok := nested.Children[0].(*css.AtRule)
	if !ok || supports.Name != "supports" || len(supports.Children) != 1 {
		t.Fatalf("unexpected nested at-rule %#v", nested.Children[0])
	}
}

func TestParser_CommentsAndStrayDeclarations(t *testing.T) {
	sheet := mustParse(t, "/* header */\ncolor: red;\na {}\n")
	if len(sheet.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(sheet.Nodes))
	}
	if _, ok := sheet.Nodes[0].(*css.Other); !ok {
		t.Errorf("expected comment to be *css.Other, got %T", sheet.Nodes[0])
	}
	if o, ok := sheet.Nodes[1].(*css.Other); !ok || o.Text() != "color: red;" {
		t.Errorf("expected stray declaration, got %T %q", sheet.Nodes[1], sheet.Nodes[1].Text())
	}
}

func TestParser_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		sheet := mustParse(t, input)
		if len(sheet.Nodes) != 0 {
			t.Errorf("input %q: expected no nodes, got %d", input, len(sheet.Nodes))
		}
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
		line   int
	}{
		{name: "unclosed rule", input: "a {}\nb { color: red", reason: "unclosed block", line: 2},
		{name: "unclosed at-rule", input: "@media print {\n a {}\n", reason: "unclosed block of @media", line: 1},
		{name: "unexpected brace", input: "a {}\n}\n", reason: "unexpected '}'", line: 2},
		{name: "dangling selector", input: "a {}\nb", reason: "unexpected end of input, missing '{'", line: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := css.NewParser(nil).Parse([]byte(tt.input), "bad.css")
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *css.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *css.ParseError, got %T: %v", err, err)
			}
			if pe.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", pe.Reason, tt.reason)
			}
			if pe.Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Line, tt.line)
			}
			if !strings.HasPrefix(pe.Error(), "bad.css:") {
				t.Errorf("error message should start with source: %q", pe.Error())
			}
		})
	}
}

func TestStylesheet_Position(t *testing.T) {
	input := "a {}\né, \U0001F600x {}\n"
	sheet := mustParse(t, input)

	r := sheet.Nodes[1].(*css.Rule)
	line, col := sheet.Position(r.Offset())
	if line != 1 || col != 0 {
		t.Errorf("Position(rule) = %d:%d, want 1:0", line, col)
	}

	// U+1F600 takes two UTF-16 units
	off := strings.Index(input, "x {")
	line, col = sheet.Position(off)
	if line != 1 || col != 5 {
		t.Errorf("Position(x) = %d:%d, want 1:5", line, col)
	}
}

func TestStylesheet_CloneAndString(t *testing.T) {
	sheet := mustParse(t, "a {}\n\nb {}\n/* c */\nc {}")

	if got := sheet.String(); got != "a {}\n\nb {}\n/* c */\nc {}\n" {
		t.Errorf("String() = %q", got)
	}

	clone := sheet.Clone(sheet.Nodes[1:3])
	if clone.Source != sheet.Source {
		t.Errorf("clone source = %q, want %q", clone.Source, sheet.Source)
	}
	if got := clone.String(); got != "b {}\n/* c */\n" {
		t.Errorf("clone String() = %q", got)
	}
	if len(sheet.Nodes) != 4 {
		t.Errorf("original modified: %d nodes", len(sheet.Nodes))
	}

	empty := sheet.Clone(nil)
	if empty.String() != "" {
		t.Errorf("empty clone String() = %q", empty.String())
	}
}
