// Package process implements program subcommands.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"csssplit/build"
	"csssplit/config"
	"csssplit/dist"
	"csssplit/split"
	"csssplit/state"
	"csssplit/utils/debug"
)

// Run is "split" subcommand: it loads build output, runs the splitter over
// every stylesheet and writes results out.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("split")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	inPlace := len(dst) == 0
	if inPlace {
		// results are written back into the source directory
		if fi, err := os.Stat(src); err != nil || !fi.IsDir() {
			return fmt.Errorf("destination is required unless source is a directory (%s)", src)
		}
		dst = src
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	conf := env.Cfg.Split
	if err := overrideFromFlags(cmd, &conf); err != nil {
		return err
	}
	env.Overwrite = conf.Overwrite || inPlace

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Bool("in place", dst == src))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, &conf, dist.EmitOptions{Overwrite: env.Overwrite, Prune: dst == src}, env.Rpt, log)
}

// overrideFromFlags superimposes explicitly specified command line flags on
// configuration values.
func overrideFromFlags(cmd *cli.Command, conf *config.SplitConfig) error {
	if cmd.IsSet("size") {
		conf.Size = cmd.Int("size")
	}
	if cmd.IsSet("imports") {
		conf.Imports = parseImports(cmd.String("imports"))
	}
	if cmd.IsSet("filename") {
		conf.Filename = cmd.String("filename")
	}
	if cmd.IsSet("preserve") {
		conf.Preserve = cmd.Bool("preserve")
	}
	if cmd.IsSet("defer") {
		conf.Defer = cmd.Bool("defer")
	}
	if cmd.IsSet("public-path") {
		conf.PublicPath = cmd.String("public-path")
	}
	if cmd.IsSet("overwrite") {
		conf.Overwrite = cmd.Bool("overwrite")
	}
	if conf.Size < 0 {
		return fmt.Errorf("%w: %d", split.ErrInvalidSize, conf.Size)
	}
	return nil
}

// parseImports turns "true" and "false" into booleans, anything else is a
// file name template.
func parseImports(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

func pluginOptions(conf *config.SplitConfig) split.Options {
	return split.Options{
		Size:     conf.Size,
		Imports:  conf.Imports,
		Filename: conf.Filename,
		Preserve: conf.Preserve,
		Defer:    conf.Defer,
	}
}

// process handles the core logic independently of CLI framework.
func process(ctx context.Context, src, dst string, conf *config.SplitConfig, emit dist.EmitOptions, rpt *config.Report, log *zap.Logger) error {
	p, err := split.New(pluginOptions(conf), log)
	if err != nil {
		return fmt.Errorf("unable to configure splitter: %w", err)
	}

	if _, err := os.Stat(src); err == nil {
		// paths inside archives cannot be copied, archive itself will be
		// stored as part of the result if necessary
		if err := rpt.StoreCopy("source", src); err != nil {
			log.Warn("Unable to store source in the report", zap.String("source", src), zap.Error(err))
		}
	}

	comp, err := dist.Load(ctx, src, dist.Options{PublicPath: conf.PublicPath}, log)
	if err != nil {
		return fmt.Errorf("unable to load build output: %w", err)
	}
	rpt.StoreData("assets-before.txt", []byte(describe(comp)))

	c := build.NewCompiler(log)
	p.Apply(c)
	if err := c.Run(ctx, comp); err != nil {
		return err
	}
	rpt.StoreData("assets-after.txt", []byte(describe(comp)))

	if err := dist.Emit(ctx, comp, dst, emit, log); err != nil {
		return fmt.Errorf("unable to write results: %w", err)
	}
	rpt.Store("result", dst)
	return nil
}

// describe lists bundles with their files.
func describe(comp *build.Compilation) string {
	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "public path", comp.PublicPath, 0)
	for _, b := range comp.Bundles {
		tw.Line(0, "bundle %s (%d files)", b.Name, len(b.Files))
		for _, name := range b.Files {
			a, ok := comp.Assets.Get(name)
			switch {
			case !ok:
				tw.Line(1, "%s (missing)", name)
			case a.Map != nil:
				tw.Line(1, "%s %d bytes, map %d bytes", name, len(a.Content), len(a.Map))
			default:
				tw.Line(1, "%s %d bytes", name, len(a.Content))
			}
		}
	}
	return tw.String()
}
