// Package dist connects build model to a real build output: a directory or
// zip archive with already generated assets.
package dist

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"csssplit/archive"
	"csssplit/build"
	"csssplit/split"
)

// DefaultBundle is the name of the only bundle Load creates when not told
// otherwise.
const DefaultBundle = "main"

// ErrNoSource is returned when source path cannot be resolved.
var ErrNoSource = errors.New("input source was not found")

// matches trailing "/*# sourceMappingURL=... */" (or legacy "/*@") comment
var reMappingURL = regexp.MustCompile(`\s*/\*[#@]\s*sourceMappingURL=[^*]*\*/\s*$`)

// Options controls how build output is turned into compilation.
type Options struct {
	PublicPath string
	Bundle     string
}

// Load reads every regular file under src into a compilation with a single
// bundle. src is a directory, a single file, a zip archive or a path inside
// zip archive ("dist.zip/static/css"). Asset names are slash separated and
// relative to src. "X.css.map" found next to "X.css" becomes its input source
// map rather than a separate asset.
func Load(ctx context.Context, src string, opts Options, log *zap.Logger) (*build.Compilation, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("dist")

	files, err := read(ctx, src, log)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	bundleName := opts.Bundle
	if bundleName == "" {
		bundleName = DefaultBundle
	}
	comp := build.NewCompilation(build.NewMemoryAssets(), opts.PublicPath)
	bundle := comp.Bundle(bundleName)

	for _, name := range names {
		if split.IsSourceMap(name) {
			if owner := strings.TrimSuffix(name, ".map"); split.IsStylesheet(owner) {
				if _, ok := files[owner]; ok {
					// attached to its stylesheet below
					continue
				}
			}
		}

		asset := &build.Asset{Content: files[name]}
		if split.IsStylesheet(name) {
			if asset.Content, err = stripBOM(asset.Content); err != nil {
				return nil, fmt.Errorf("unable to decode %s: %w", name, err)
			}
			if m, ok := files[name+".map"]; ok {
				asset.Map = m
				asset.Content = reMappingURL.ReplaceAll(asset.Content, nil)
				log.Debug("Input source map attached", zap.String("asset", name))
			}
		}
		comp.Assets.Set(name, asset)
		bundle.AddFile(name)
	}

	log.Debug("Build output loaded", zap.String("source", src), zap.Int("files", len(files)), zap.Int("assets", len(bundle.Files)))
	return comp, nil
}

// read resolves src. It goes up the path until something existing is found
// to support paths inside archives.
func read(ctx context.Context, src string, log *zap.Logger) (map[string][]byte, error) {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return nil, fmt.Errorf("%w (%s) => (%s)", ErrNoSource, head, strings.TrimPrefix(src, head))
			}
			return readDir(ctx, head, log)
		}

		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := archive.IsArchive(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			inner := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			return readArchive(ctx, head, filepath.ToSlash(inner), log)
		}
		if len(tail) != 0 {
			return nil, fmt.Errorf("%w (%s) => (%s)", ErrNoSource, head, strings.TrimPrefix(src, head))
		}

		data, err := os.ReadFile(head)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{filepath.Base(head): data}, nil
	}
	return nil, fmt.Errorf("%w (%s)", ErrNoSource, src)
}

func readDir(ctx context.Context, dir string, log *zap.Logger) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			if !d.IsDir() {
				log.Debug("Skipping path", zap.String("path", path))
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read directory %s: %w", dir, err)
	}
	return files, nil
}

func readArchive(ctx context.Context, path, dir string, log *zap.Logger) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := archive.Walk(path, dir, func(_, rel string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", f.Name, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		files[rel] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read archive %s: %w", path, err)
	}
	if len(files) == 0 {
		log.Warn("Nothing found in archive", zap.String("archive", path), zap.String("path", dir))
	}
	return files, nil
}

// stripBOM removes UTF-8 byte order mark if present.
func stripBOM(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	return out, err
}
