// Package debug has helpers producing human readable dumps.
package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TreeWriter accumulates indented lines, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

// WriteTo implements io.WriterTo.
func (tw TreeWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, tw.w.String())
	return int64(n), err
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes quoted value, values longer than limit runes are cut
// (limit <= 0 means no limit).
func (tw TreeWriter) TextBlock(depth int, label, value string, limit int) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value, limit))
	tw.w.WriteByte('\n')
}

func encodeText(raw string, limit int) string {
	if raw == "" {
		return raw
	}
	if limit > 0 && utf8.RuneCountInString(raw) > limit {
		runes := []rune(raw)
		return strconv.Quote(string(runes[:limit])) + "..."
	}
	return strconv.Quote(raw)
}
