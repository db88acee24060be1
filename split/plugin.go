// Package split rewrites stylesheet assets of a build into several smaller
// ones, each staying under a selector limit.
package split

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"csssplit/build"
	"csssplit/chunk"
	"csssplit/css"
	"csssplit/naming"
	"csssplit/srcmap"
)

// Name is used to register plugin hooks.
const Name = "css-split"

// Plugin splits stylesheets. Options are validated once in New and never
// change afterwards.
type Plugin struct {
	log      *zap.Logger
	parser   *css.Parser
	size     int
	filename *naming.Template
	imports  naming.ImportsFunc
	preserve bool
	deferred bool
}

// New validates opts and creates plugin.
func New(opts Options, log *zap.Logger) (*Plugin, error) {
	if log == nil {
		log = zap.NewNop()
	}

	size, err := opts.size()
	if err != nil {
		return nil, err
	}

	pattern := opts.Filename
	if pattern == "" {
		pattern = naming.DefaultFilename
	}
	filename, err := naming.Compile(pattern)
	if err != nil {
		return nil, err
	}

	imports, err := naming.NormalizeImports(opts.Imports, opts.Preserve)
	if err != nil {
		return nil, err
	}

	log = log.Named(Name)
	return &Plugin{
		log:      log,
		parser:   css.NewParser(log),
		size:     size,
		filename: filename,
		imports:  imports,
		preserve: opts.Preserve,
		deferred: opts.Defer,
	}, nil
}

// Apply registers plugin with compiler on exactly one stage.
func (p *Plugin) Apply(c *build.Compiler) {
	if p.deferred {
		c.OnEmit(Name, p.process)
		return
	}
	c.OnOptimizeAssets(Name, p.process)
}

// Manifest is a stylesheet importing all chunks of a split asset.
type Manifest struct {
	Name    string
	Content []byte
}

// Result is the outcome of splitting a single asset.
type Result struct {
	File     string
	Chunks   []*chunk.Rendered
	Manifest *Manifest // nil when disabled
}

// Split reports whether asset has to be replaced, single chunk means the
// asset fits as is.
func (r *Result) Split() bool {
	return len(r.Chunks) > 1
}

// Split partitions and renders a stylesheet asset named key. It does not
// touch any shared state.
func (p *Plugin) Split(ctx context.Context, key string, asset *build.Asset, publicPath string) (*Result, error) {
	var input *srcmap.Input
	if asset.Map != nil {
		var err error
		if input, err = srcmap.ParseInput(asset.Map); err != nil {
			return nil, fmt.Errorf("unable to use source map of %s: %w", key, err)
		}
	}

	sheet, err := p.parser.Parse(asset.Content, key)
	if err != nil {
		return nil, err
	}
	sheet.Map = asset.Map

	r := &chunk.Renderer{
		Name: func(index int, content []byte) (string, error) {
			return p.filename.Execute(naming.Context{File: key, Index: index, Content: content})
		},
		Input: input,
	}

	chunks := chunk.Partition(sheet, p.size)
	res := &Result{File: key, Chunks: make([]*chunk.Rendered, 0, len(chunks))}
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.Render(c)
		if err != nil {
			return nil, fmt.Errorf("unable to render %s: %w", key, err)
		}
		res.Chunks = append(res.Chunks, out)
	}
	if !res.Split() {
		return res, nil
	}

	content := ManifestContent(publicPath, res.Chunks)
	name, ok, err := p.imports(naming.Context{File: key, Content: content})
	if err != nil {
		return nil, fmt.Errorf("unable to name imports of %s: %w", key, err)
	}
	if ok {
		res.Manifest = &Manifest{Name: name, Content: content}
	}

	p.log.Debug("Stylesheet split",
		zap.String("asset", key),
		zap.Int("weight", sheet.Weight()),
		zap.Int("chunks", len(res.Chunks)),
		zap.Bool("sourcemap", input != nil))
	return res, nil
}

// ManifestContent builds newline separated @import statements for chunks.
// publicPath defaults to "./", its trailing slash is stripped.
func ManifestContent(publicPath string, chunks []*chunk.Rendered) []byte {
	if publicPath == "" {
		publicPath = "./"
	}
	prefix := strings.TrimSuffix(publicPath, "/")

	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, fmt.Sprintf("@import \"%s/%s\";", prefix, c.Name))
	}
	return []byte(strings.Join(lines, "\n"))
}

// Commit applies res to compilation: chunks are added first, then the
// original is removed unless preserved and finally the manifest is added.
// Results which did not split are ignored.
func (p *Plugin) Commit(comp *build.Compilation, bundle *build.Bundle, res *Result) {
	if !res.Split() {
		p.log.Debug("Stylesheet fits, leaving as is", zap.String("asset", res.File), zap.String("bundle", bundle.Name))
		return
	}

	for _, c := range res.Chunks {
		comp.Assets.Set(c.Name, &build.Asset{Content: c.CSS, Map: c.Map})
		bundle.AddFile(c.Name)
	}
	if !p.preserve {
		comp.Assets.Delete(res.File)
		bundle.RemoveFile(res.File)
	}
	if res.Manifest != nil {
		comp.Assets.Set(res.Manifest.Name, &build.Asset{Content: res.Manifest.Content})
		bundle.AddFile(res.Manifest.Name)
	}

	p.log.Info("Stylesheet replaced",
		zap.String("asset", res.File),
		zap.String("bundle", bundle.Name),
		zap.Int("chunks", len(res.Chunks)),
		zap.Bool("preserved", p.preserve),
		zap.Bool("manifest", res.Manifest != nil))
}
