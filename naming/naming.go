// Package naming resolves output file names for generated stylesheet chunks
// and import manifests.
package naming

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"

	"github.com/cespare/xxhash/v2"
	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
)

// DefaultFilename is used for chunks when no template is configured.
const DefaultFilename = "[name]-[part].[ext]"

var (
	// splits "dir/main.css.gz" into "dir/main", "css" and ".gz"
	reCSSName     = regexp.MustCompile(`^(.*)\.(css)((?:\.|\?).+)?$`)
	rePlaceholder = regexp.MustCompile(`\[([a-z]+)(?::(\d+))?\]`)
)

// Context is everything known about a file being named.
type Context struct {
	File    string // original asset key
	Index   int    // 0-based chunk index
	Content []byte
}

// Values holds variables available for template expansion.
type Values struct {
	File   string
	Name   string // File without extension and suffix, directories kept
	Base   string // last element of Name
	Path   string // directory of File with trailing slash, or empty
	Ext    string // extension without dot
	Suffix string // anything following ".css", e.g. ".gz" or "?v=3"
	Part   int
	Index  int
	Hash   string
}

func newValues(c Context) Values {
	v := Values{
		File:  c.File,
		Part:  c.Index + 1,
		Index: c.Index,
		Hash:  fmt.Sprintf("%016x", xxhash.Sum64(c.Content)),
	}
	if m := reCSSName.FindStringSubmatch(c.File); m != nil {
		v.Name, v.Ext, v.Suffix = m[1], m[2], m[3]
	} else {
		v.Name = c.File
		if i := strings.LastIndexByte(c.File, '.'); i > strings.LastIndexByte(c.File, '/') {
			v.Name, v.Ext = c.File[:i], c.File[i+1:]
		}
	}
	v.Base = v.Name
	if i := strings.LastIndexByte(v.Name, '/'); i >= 0 {
		v.Path, v.Base = v.Name[:i+1], v.Name[i+1:]
	}
	return v
}

// Template is a compiled file name pattern.
type Template struct {
	pattern string
	tmpl    *template.Template
	// when pattern does not mention suffix, original suffix is appended
	suffix bool
}

// Compile lowers bracket placeholders of pattern into template actions and
// parses the result. Recognized placeholders are [file], [name], [base],
// [path], [ext], [suffix], [part], [index], [hash] and [contenthash], hash
// accepts optional length ([hash:8]). Anything else in brackets is kept
// literally, template actions may be used directly, sprig functions and
// "slug" are available.
func Compile(pattern string) (*Template, error) {
	if pattern == "" {
		return nil, errors.New("empty file name template")
	}

	t := &Template{pattern: pattern, suffix: true}
	lowered := rePlaceholder.ReplaceAllStringFunc(pattern, func(s string) string {
		m := rePlaceholder.FindStringSubmatch(s)
		name, length := m[1], m[2]
		switch {
		case (name == "hash" || name == "contenthash") && length != "":
			return "{{ trunc " + length + " .Hash }}"
		case length != "":
			// length only makes sense for hashes
			return s
		}
		switch name {
		case "file", "name", "base", "path", "ext", "part", "index":
			return "{{ ." + strings.ToUpper(name[:1]) + name[1:] + " }}"
		case "suffix":
			t.suffix = false
			return "{{ .Suffix }}"
		case "hash", "contenthash":
			return "{{ .Hash }}"
		}
		return s
	})
	if strings.Contains(pattern, ".Suffix") {
		t.suffix = false
	}

	funcMap := sprig.FuncMap()
	funcMap["slug"] = slug.Make

	tmpl, err := template.New(pattern).Funcs(funcMap).Option("missingkey=error").Parse(lowered)
	if err != nil {
		return nil, fmt.Errorf("unable to parse file name template %q: %w", pattern, err)
	}
	t.tmpl = tmpl

	// catch references to unknown fields early
	if err := tmpl.Execute(io.Discard, newValues(Context{File: "sample.css"})); err != nil {
		return nil, fmt.Errorf("unable to expand file name template %q: %w", pattern, err)
	}
	return t, nil
}

// Execute expands template for c.
func (t *Template) Execute(c Context) (string, error) {
	v := newValues(c)

	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, v); err != nil {
		return "", fmt.Errorf("unable to expand file name template %q: %w", t.pattern, err)
	}
	if t.suffix {
		buf.WriteString(v.Suffix)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" {
		return "", fmt.Errorf("file name template %q expanded to empty name for %s", t.pattern, c.File)
	}
	return name, nil
}

func (t *Template) String() string {
	return t.pattern
}
