package dist

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"csssplit/archive"
	"csssplit/build"
	"csssplit/split"
)

// EmitOptions controls how compilation is written out.
type EmitOptions struct {
	// replace existing files with different content
	Overwrite bool
	// remove files of deleted assets from destination, used when writing
	// in place
	Prune bool
}

type output struct {
	name string
	data []byte
}

// Emit writes every asset of comp under dst. Stylesheets having source map
// get it written next to them as "<name>.map" with a sourceMappingURL
// comment appended. When dst has ".zip" extension an archive is produced
// instead.
func Emit(ctx context.Context, comp *build.Compilation, dst string, opts EmitOptions, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("dist")

	outputs := make([]output, 0, len(comp.Assets.Names()))
	for _, name := range comp.Assets.Names() {
		asset, ok := comp.Assets.Get(name)
		if !ok {
			continue
		}
		if asset.Map == nil || !split.IsStylesheet(name) {
			outputs = append(outputs, output{name: name, data: asset.Content})
			continue
		}
		outputs = append(outputs,
			output{name: name, data: withMappingURL(asset.Content, path.Base(name)+".map")},
			output{name: name + ".map", data: asset.Map},
		)
	}

	if strings.EqualFold(filepath.Ext(dst), ".zip") {
		return emitArchive(dst, outputs, opts, log)
	}
	return emitDir(ctx, comp, dst, outputs, opts, log)
}

func withMappingURL(content []byte, mapName string) []byte {
	buf := bytes.NewBuffer(bytes.TrimRight(content, "\r\n"))
	fmt.Fprintf(buf, "\n/*# sourceMappingURL=%s */\n", mapName)
	return buf.Bytes()
}

func emitArchive(dst string, outputs []output, opts EmitOptions, log *zap.Logger) error {
	if _, err := os.Stat(dst); err == nil {
		if !opts.Overwrite {
			return fmt.Errorf("output file already exists: %s", dst)
		}
		log.Warn("Overwriting existing file", zap.String("file", dst))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	entries := make([]archive.Entry, 0, len(outputs))
	for _, o := range outputs {
		entries = append(entries, archive.Entry{Name: o.name, Data: o.data})
	}
	if err := archive.Write(dst, entries); err != nil {
		return err
	}
	log.Info("Archive written", zap.String("file", dst), zap.Int("entries", len(entries)))
	return nil
}

// emitDir checks all conflicts before writing anything. Files already
// having the expected content are left alone.
func emitDir(ctx context.Context, comp *build.Compilation, dst string, outputs []output, opts EmitOptions, log *zap.Logger) (err error) {
	pending := make([]output, 0, len(outputs))
	for _, o := range outputs {
		existing, er := os.ReadFile(filepath.Join(dst, filepath.FromSlash(o.name)))
		switch {
		case os.IsNotExist(er):
			pending = append(pending, o)
		case er != nil:
			return fmt.Errorf("unable to check %s: %w", o.name, er)
		case bytes.Equal(existing, o.data):
			log.Debug("File is up to date", zap.String("file", o.name))
		case !opts.Overwrite:
			return fmt.Errorf("output file already exists: %s", filepath.Join(dst, filepath.FromSlash(o.name)))
		default:
			log.Warn("Overwriting existing file", zap.String("file", o.name))
			pending = append(pending, o)
		}
	}

	for _, o := range pending {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}
		fname := filepath.Join(dst, filepath.FromSlash(o.name))
		if er := os.MkdirAll(filepath.Dir(fname), 0755); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to create output directory: %w", er))
			continue
		}
		if er := os.WriteFile(fname, o.data, 0644); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to write %s: %w", o.name, er))
		}
	}

	if opts.Prune {
		err = multierr.Append(err, prune(comp, dst, outputs, log))
	}
	if err == nil {
		log.Info("Assets written", zap.String("destination", dst), zap.Int("written", len(pending)), zap.Int("total", len(outputs)))
	}
	return err
}

// prune removes files of assets deleted during compilation together with
// their source maps. Maps left from stylesheets which are now written without
// one (e.g. replaced by import manifest) are removed as well.
func prune(comp *build.Compilation, dst string, outputs []output, log *zap.Logger) (err error) {
	written := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		written[o.name] = struct{}{}
	}

	var stale []string
	if store, ok := comp.Assets.(interface{ Deleted() []string }); ok {
		for _, name := range store.Deleted() {
			stale = append(stale, name, name+".map")
		}
	}
	for _, o := range outputs {
		if !split.IsStylesheet(o.name) {
			continue
		}
		if _, ok := written[o.name+".map"]; !ok {
			stale = append(stale, o.name+".map")
		}
	}

	for _, n := range stale {
		if _, ok := written[n]; ok {
			continue
		}
		er := os.Remove(filepath.Join(dst, filepath.FromSlash(n)))
		switch {
		case er == nil:
			log.Debug("Removed", zap.String("file", n))
		case !os.IsNotExist(er):
			err = multierr.Append(err, fmt.Errorf("unable to remove %s: %w", n, er))
		}
	}
	return err
}
