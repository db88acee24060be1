package build

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Bundle is a named group of output files, listed in emit order.
type Bundle struct {
	Name  string
	Files []string
}

// AddFile appends name unless it is already listed.
func (b *Bundle) AddFile(name string) {
	if !slices.Contains(b.Files, name) {
		b.Files = append(b.Files, name)
	}
}

// RemoveFile removes name from the list, reporting whether it was there.
func (b *Bundle) RemoveFile(name string) bool {
	i := slices.Index(b.Files, name)
	if i < 0 {
		return false
	}
	b.Files = slices.Delete(b.Files, i, i+1)
	return true
}

// Compilation is the state of a single build pass.
type Compilation struct {
	Assets     AssetStore
	Bundles    []*Bundle
	PublicPath string
}

// NewCompilation returns compilation over assets with no bundles.
func NewCompilation(assets AssetStore, publicPath string) *Compilation {
	return &Compilation{Assets: assets, PublicPath: publicPath}
}

// Bundle returns bundle with a given name, creating it when necessary.
func (c *Compilation) Bundle(name string) *Bundle {
	for _, b := range c.Bundles {
		if b.Name == name {
			return b
		}
	}
	b := &Bundle{Name: name}
	c.Bundles = append(c.Bundles, b)
	return b
}

// Hook is a plugin callback. Returning error fails the build.
type Hook func(ctx context.Context, comp *Compilation) error

type tap struct {
	name string
	fn   Hook
}

// Compiler runs registered hooks over a compilation, stage by stage in
// registration order.
type Compiler struct {
	log   *zap.Logger
	hooks map[Stage][]tap
}

// NewCompiler returns compiler without any hooks.
func NewCompiler(log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log.Named("compiler"), hooks: make(map[Stage][]tap)}
}

// OnOptimizeAssets registers hook for StageOptimizeAssets.
func (c *Compiler) OnOptimizeAssets(name string, fn Hook) {
	c.tap(StageOptimizeAssets, name, fn)
}

// OnEmit registers hook for StageEmit.
func (c *Compiler) OnEmit(name string, fn Hook) {
	c.tap(StageEmit, name, fn)
}

func (c *Compiler) tap(stage Stage, name string, fn Hook) {
	c.log.Debug("Hook registered", zap.Stringer("stage", stage), zap.String("name", name))
	c.hooks[stage] = append(c.hooks[stage], tap{name: name, fn: fn})
}

// Hooks returns names of hooks registered for stage.
func (c *Compiler) Hooks(stage Stage) []string {
	names := make([]string, 0, len(c.hooks[stage]))
	for _, t := range c.hooks[stage] {
		names = append(names, t.name)
	}
	return names
}

// Run executes all hooks. First failure stops the build.
func (c *Compiler) Run(ctx context.Context, comp *Compilation) error {
	for stage := StageOptimizeAssets; stage.IsValid(); stage++ {
		for _, t := range c.hooks[stage] {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.log.Debug("Running hook", zap.Stringer("stage", stage), zap.String("name", t.name))
			if err := t.fn(ctx, comp); err != nil {
				return fmt.Errorf("%s hook %q failed: %w", stage, t.name, err)
			}
		}
	}
	return nil
}
