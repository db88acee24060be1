package split

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"csssplit/build"
)

var (
	reStylesheet = regexp.MustCompile(`\.css(?:\?.*)?$`)
	reSourceMap  = regexp.MustCompile(`\.map(?:\?.*)?$`)
)

// IsStylesheet reports whether file name denotes a stylesheet.
func IsStylesheet(name string) bool {
	return reStylesheet.MatchString(name) && !IsSourceMap(name)
}

// IsSourceMap reports whether file name denotes a source map.
func IsSourceMap(name string) bool {
	return reSourceMap.MatchString(name)
}

type target struct {
	bundle *build.Bundle
	key    string
}

// process is the hook body. All stylesheets of all bundles are split
// concurrently, results are committed only when every one of them succeeded,
// so a failure leaves compilation untouched.
func (p *Plugin) process(ctx context.Context, comp *build.Compilation) error {
	var (
		targets []target
		keys    []string
		assets  []*build.Asset
	)
	for _, b := range comp.Bundles {
		// commit modifies file list, iterate over a copy
		for _, key := range slices.Clone(b.Files) {
			if !IsStylesheet(key) {
				continue
			}
			targets = append(targets, target{bundle: b, key: key})
			if slices.Contains(keys, key) {
				continue
			}
			asset, ok := comp.Assets.Get(key)
			if !ok {
				return fmt.Errorf("%w: %s listed in bundle %s", ErrMissingAsset, key, b.Name)
			}
			keys = append(keys, key)
			assets = append(assets, asset)
		}
	}
	if len(keys) == 0 {
		p.log.Debug("No stylesheets found")
		return nil
	}

	results := make([]*Result, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			res, err := p.Split(gctx, key, assets[i], comp.PublicPath)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	byKey := make(map[string]*Result, len(keys))
	for i, key := range keys {
		byKey[key] = results[i]
	}
	for _, t := range targets {
		p.Commit(comp, t.bundle, byKey[t.key])
	}

	p.log.Debug("Stylesheets processed", zap.Int("assets", len(keys)), zap.Int("entries", len(targets)))
	return nil
}
