package chunk_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"csssplit/chunk"
	"csssplit/css"
	"csssplit/srcmap"
)

func parse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(input), "test.css")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sheet
}

func rules(n int, wide int) string {
	var b strings.Builder
	for i := range n {
		if i == wide {
			fmt.Fprintf(&b, ".r%d, .r%d-alt { color: red }\n", i, i)
			continue
		}
		fmt.Fprintf(&b, ".r%d { color: red }\n", i)
	}
	return b.String()
}

func shape(chunks []*chunk.Chunk) (weights, counts []int) {
	for _, c := range chunks {
		weights = append(weights, c.Weight)
		counts = append(counts, len(c.Sheet.Nodes))
	}
	return weights, counts
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		size        int
		wantWeights []int
		wantCounts  []int
	}{
		{
			name:        "twelve trivial rules",
			input:       rules(12, -1),
			size:        5,
			wantWeights: []int{5, 5, 2},
			wantCounts:  []int{5, 5, 2},
		},
		{
			name:        "one rule with two selectors",
			input:       rules(12, 3),
			size:        5,
			wantWeights: []int{5, 5, 3},
			wantCounts:  []int{4, 5, 3},
		},
		{
			name:        "trailing at-rule gets its own chunk",
			input:       rules(12, -1) + "@media print { .a {} .b {} .c {} }\n",
			size:        5,
			wantWeights: []int{5, 5, 2, 4},
			wantCounts:  []int{5, 5, 2, 1},
		},
		{
			name:        "oversized node stays alone",
			input:       ".a {}\n.b, .c, .d, .e {}\n.f {}\n",
			size:        2,
			wantWeights: []int{1, 4, 1},
			wantCounts:  []int{1, 1, 1},
		},
		{
			name:        "weightless nodes do not start chunks",
			input:       "@charset \"utf-8\";\n/* c */\n.a {}\n.b {}\n",
			size:        1,
			wantWeights: []int{1, 1},
			wantCounts:  []int{3, 1},
		},
		{
			name:        "everything fits",
			input:       rules(3, -1),
			size:        4000,
			wantWeights: []int{3},
			wantCounts:  []int{3},
		},
		{
			name:        "non positive size behaves as one",
			input:       rules(3, -1),
			size:        0,
			wantWeights: []int{1, 1, 1},
			wantCounts:  []int{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunk.Partition(parse(t, tt.input), tt.size)
			weights, counts := shape(chunks)
			if !equal(weights, tt.wantWeights) {
				t.Errorf("weights = %v, want %v", weights, tt.wantWeights)
			}
			if !equal(counts, tt.wantCounts) {
				t.Errorf("node counts = %v, want %v", counts, tt.wantCounts)
			}
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d has index %d", i, c.Index)
				}
			}
		})
	}
}

func TestPartition_Empty(t *testing.T) {
	for _, input := range []string{"", "  \n\t"} {
		if chunks := chunk.Partition(parse(t, input), 5); len(chunks) != 0 {
			t.Errorf("Partition(%q) returned %d chunks, want none", input, len(chunks))
		}
	}
}

func TestPartition_PreservesOrderAndContent(t *testing.T) {
	sheet := parse(t, rules(12, 3)+"@media print { .a {} }\n")
	chunks := chunk.Partition(sheet, 5)

	var nodes []css.Node
	for _, c := range chunks {
		if c.Sheet.Source != sheet.Source {
			t.Errorf("chunk %d lost source %q", c.Index, c.Sheet.Source)
		}
		nodes = append(nodes, c.Sheet.Nodes...)
	}
	if len(nodes) != len(sheet.Nodes) {
		t.Fatalf("chunks hold %d nodes, want %d", len(nodes), len(sheet.Nodes))
	}
	for i := range nodes {
		if nodes[i] != sheet.Nodes[i] {
			t.Errorf("node %d out of order", i)
		}
	}
}

func TestPartition_Deterministic(t *testing.T) {
	input := rules(40, 7)
	first, _ := shape(chunk.Partition(parse(t, input), 6))
	for range 5 {
		again, _ := shape(chunk.Partition(parse(t, input), 6))
		if !equal(first, again) {
			t.Fatalf("partition is not deterministic: %v vs %v", first, again)
		}
	}
}

func names(index int, _ []byte) (string, error) {
	return fmt.Sprintf("out-%d.css", index+1), nil
}

func TestRenderer_Render(t *testing.T) {
	input := rules(7, -1)
	chunks := chunk.Partition(parse(t, input), 3)
	r := &chunk.Renderer{Name: names}

	var joined strings.Builder
	for _, c := range chunks {
		out, err := r.Render(c)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if want := fmt.Sprintf("out-%d.css", c.Index+1); out.Name != want {
			t.Errorf("Name = %q, want %q", out.Name, want)
		}
		if out.Map != nil {
			t.Errorf("unexpected source map for chunk %d", c.Index)
		}
		if !strings.HasSuffix(string(out.CSS), "\n") {
			t.Errorf("chunk %d does not end with newline: %q", c.Index, out.CSS)
		}
		joined.Write(out.CSS)
	}

	if joined.String() != input {
		t.Errorf("concatenated chunks differ from input:\n%s\nwant:\n%s", joined.String(), input)
	}
}

func TestRenderer_NameError(t *testing.T) {
	boom := errors.New("boom")
	r := &chunk.Renderer{Name: func(int, []byte) (string, error) { return "", boom }}
	_, err := r.Render(chunk.Partition(parse(t, ".a {}"), 1)[0])
	if !errors.Is(err, boom) {
		t.Errorf("Render() error = %v, want %v", err, boom)
	}
}

func TestRenderer_ComposesSourceMap(t *testing.T) {
	// every generated line i of the input came from line 10*i+1 of orig.less
	gen := srcmap.NewGenerator("test.css")
	for i := range 3 {
		gen.AddMapping(i, 0, "orig.less", 10*i+1, 0, "")
		gen.AddMapping(i, 3, "orig.less", 10*i+1, 2, "")
	}
	data, err := json.Marshal(gen)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	in, err := srcmap.ParseInput(data)
	if err != nil {
		t.Fatalf("ParseInput() error = %v", err)
	}

	chunks := chunk.Partition(parse(t, ".a {}\n.b {}\n.c {}\n"), 1)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	r := &chunk.Renderer{Name: names, Input: in}

	for i, c := range chunks {
		out, err := r.Render(c)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if out.Map == nil {
			t.Fatalf("chunk %d has no source map", i)
		}

		got, err := srcmap.ParseInput(out.Map)
		if err != nil {
			t.Fatalf("chunk %d produced invalid source map: %v", i, err)
		}
		pos, ok := got.Lookup(0, 0)
		if !ok {
			t.Fatalf("chunk %d: no mapping for first column", i)
		}
		if pos.Source != "orig.less" || pos.Line != 10*i+1 || pos.Column != 0 {
			t.Errorf("chunk %d: selector maps to %+v", i, pos)
		}
		pos, ok = got.Lookup(0, 4)
		if !ok {
			t.Fatalf("chunk %d: no mapping for block", i)
		}
		if pos.Line != 10*i+1 || pos.Column != 2 {
			t.Errorf("chunk %d: block maps to %+v", i, pos)
		}

		var doc struct {
			File string `json:"file"`
		}
		if err := json.Unmarshal(out.Map, &doc); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if doc.File != out.Name {
			t.Errorf("map file = %q, want %q", doc.File, out.Name)
		}
	}
}

func TestRenderer_UnmappedInputLines(t *testing.T) {
	// only lines 0 and 4 of the input are mapped
	const less = ".a { color: @c }\n"
	gen := srcmap.NewGenerator("test.css")
	gen.AddMapping(0, 0, "orig.less", 7, 0, "")
	gen.AddMapping(4, 0, "orig.less", 30, 0, "")
	gen.SetSourceContent("orig.less", less)
	data, err := json.Marshal(gen)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	in, err := srcmap.ParseInput(data)
	if err != nil {
		t.Fatalf("ParseInput() error = %v", err)
	}

	chunks := chunk.Partition(parse(t, ".a {}\n.b {}\n.c {}\n.d {}\n.e {}\n"), 1)
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	r := &chunk.Renderer{Name: names, Input: in}

	type document struct {
		Sources        []string  `json:"sources"`
		Mappings       string    `json:"mappings"`
		SourcesContent []*string `json:"sourcesContent"`
	}
	render := func(i int) document {
		t.Helper()
		out, err := r.Render(chunks[i])
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		var doc document
		if err := json.Unmarshal(out.Map, &doc); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		return doc
	}

	for _, i := range []int{1, 2, 3} {
		if doc := render(i); len(doc.Sources) != 0 || doc.Mappings != "" {
			t.Errorf("chunk %d from unmapped line got sources=%v mappings=%q", i, doc.Sources, doc.Mappings)
		}
	}

	for i, line := range map[int]int{0: 7, 4: 30} {
		doc := render(i)
		if len(doc.Sources) != 1 || doc.Sources[0] != "orig.less" {
			t.Fatalf("chunk %d sources = %v", i, doc.Sources)
		}
		if len(doc.SourcesContent) != 1 || doc.SourcesContent[0] == nil || *doc.SourcesContent[0] != less {
			t.Errorf("chunk %d sourcesContent = %v", i, doc.SourcesContent)
		}
		out, _ := r.Render(chunks[i])
		got, err := srcmap.ParseInput(out.Map)
		if err != nil {
			t.Fatalf("ParseInput() error = %v", err)
		}
		if pos, ok := got.Lookup(0, 0); !ok || pos.Line != line {
			t.Errorf("chunk %d maps to %+v (found %v), want line %d", i, pos, ok, line)
		}
	}
}
