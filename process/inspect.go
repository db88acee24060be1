package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"csssplit/chunk"
	"csssplit/css"
	"csssplit/split"
	"csssplit/state"
	"csssplit/utils/debug"
)

// longer texts are cut in dumps
const textLimit = 60

// Inspect is "inspect" subcommand: it prints stylesheet node tree with
// selector weights followed by the chunks it would be split into.
func Inspect(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		return errors.New("no stylesheet has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	size := env.Cfg.Split.Size
	if cmd.IsSet("size") {
		size = cmd.Int("size")
	}
	switch {
	case size < 0:
		return fmt.Errorf("%w: %d", split.ErrInvalidSize, size)
	case size == 0:
		size = split.DefaultSize
	}

	data, err := os.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}
	sheet, err := css.NewParser(log).Parse(data, fname)
	if err != nil {
		return err
	}

	out := dump(sheet, chunk.Partition(sheet, size), size)
	env.Rpt.StoreData("inspect.txt", []byte(out))

	_, err = fmt.Fprint(cmd.Root().Writer, out)
	return err
}

func dump(sheet *css.Stylesheet, chunks []*chunk.Chunk, size int) string {
	tw := debug.NewTreeWriter()

	tw.Line(0, "stylesheet %s weight=%d nodes=%d", sheet.Source, sheet.Weight(), len(sheet.Nodes))
	dumpNodes(tw, sheet, sheet.Nodes, 1)

	tw.Line(0, "chunks=%d size=%d", len(chunks), size)
	for _, c := range chunks {
		first, _ := sheet.Position(c.Sheet.Nodes[0].Offset())
		last, _ := sheet.Position(c.Sheet.Nodes[len(c.Sheet.Nodes)-1].Offset())
		over := ""
		if c.Weight > size {
			over = " (oversized)"
		}
		tw.Line(1, "part %d weight=%d nodes=%d lines %d-%d%s", c.Index+1, c.Weight, len(c.Sheet.Nodes), first+1, last+1, over)
	}
	return tw.String()
}

// dumpNodes uses 1-based lines and columns, as editors do.
func dumpNodes(tw *debug.TreeWriter, sheet *css.Stylesheet, nodes []css.Node, depth int) {
	for _, n := range nodes {
		line, col := sheet.Position(n.Offset())
		switch n := n.(type) {
		case *css.Rule:
			tw.Line(depth, "rule %d:%d weight=%d", line+1, col+1, css.Weight(n))
			tw.TextBlock(depth+1, "selectors", strings.Join(n.Selectors, ", "), textLimit)
		case *css.AtRule:
			tw.Line(depth, "@%s %d:%d weight=%d", n.Name, line+1, col+1, css.Weight(n))
			if len(n.Params) > 0 {
				tw.TextBlock(depth+1, "params", n.Params, textLimit)
			}
			dumpNodes(tw, sheet, n.Children, depth+1)
		case *css.Other:
			tw.TextBlock(depth, fmt.Sprintf("other %d:%d", line+1, col+1), n.Text(), textLimit)
		}
	}
}
