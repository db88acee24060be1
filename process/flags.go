package process

import (
	cli "github.com/urfave/cli/v3"
)

// SplitFlags are "split" subcommand flags. Only explicitly set flags override
// configuration.
func SplitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "maximum number of selectors in a single output file (0 - default)"},
		&cli.StringFlag{Name: "imports", Aliases: []string{"i"},
			Usage: "produce stylesheet importing all parts: \"true\", \"false\" or file name `TEMPLATE`"},
		&cli.StringFlag{Name: "filename", Aliases: []string{"f"}, Usage: "file name `TEMPLATE` for produced parts, i.e. \"[name]-[part].[ext]\""},
		&cli.BoolFlag{Name: "preserve", Aliases: []string{"p"}, Usage: "keep original stylesheet next to produced parts"},
		&cli.BoolFlag{Name: "defer", Usage: "split when assets are emitted rather than during optimization"},
		&cli.StringFlag{Name: "public-path", Usage: "`PREFIX` used in imports of produced parts"},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination files exist, overwrite them"},
	}
}

// InspectFlags are "inspect" subcommand flags.
func InspectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "maximum number of selectors in a single part to plan for"},
	}
}
