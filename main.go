package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-digest/internal/digest"
	"github.com/dtnitsch/llm-doc-digest/internal/history"
	"github.com/dtnitsch/llm-doc-digest/internal/upstream"
	"github.com/dtnitsch/llm-doc-digest/pkg/help"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "llm-doc-digest",
		Usage:   "Fetch library documentation and reduce it to a token-bounded digest",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "digest",
				Usage:  "Resolve a library, fetch its docs and print a digest",
				Action: digest.DigestAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "library", Aliases: []string{"l"}, Usage: "library name to resolve, e.g. better-auth"},
					&cli.StringFlag{Name: "id", Usage: "canonical library id (/org/project[/version]); skips resolution"},
					&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "topic to focus the documentation on"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "code", Usage: "code or info"},
					&cli.IntFlag{Name: "page", Value: 1, Usage: "documentation page, starting at 1"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print the token budget report on stderr"},
					&cli.StringFlag{Name: "format", Value: "text", Usage: "output format: text, yaml or json"},
					&cli.StringFlag{Name: "fields", Usage: "comma separated result fields for yaml/json output"},
					&cli.StringFlag{Name: "config", Usage: "config file (default: ./llm-doc-digest.yaml, then ~/.config/llm-doc-digest/config.yaml)"},
					&cli.StringFlag{Name: "transport", Usage: "upstream transport: exec or mcp"},
					&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "upstream call timeout"},
					&cli.IntFlag{Name: "tokens", Usage: "token size hint forwarded to the documentation service"},
					&cli.BoolFlag{Name: "history", Usage: "record this run in the history database"},
					&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
				},
			},
			{
				Name:   "history",
				Usage:  "List recorded runs",
				Action: history.HistoryAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs to show"},
					&cli.StringFlag{Name: "db", Usage: "history database path (default: next to the binary)"},
					&cli.StringFlag{Name: "format", Value: "table", Usage: "table, yaml or json"},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
			upstream.Command(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
