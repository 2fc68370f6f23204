package history

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-digest/internal/common"
	"github.com/dtnitsch/llm-doc-digest/internal/config"
	dbpkg "github.com/dtnitsch/llm-doc-digest/pkg/db"
)

func HistoryAction(c *cli.Context) error {
	cfg, _, err := config.LoadDefault()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}
	path := cfg.History.Path
	if c.IsSet("db") {
		path = c.String("db")
	}

	database, err := dbpkg.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	format := strings.ToLower(c.String("format"))
	if format == "yaml" || format == "json" {
		out, err := common.Marshal(format, runs)
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(out)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		fmt.Fprintln(c.App.Writer, "\nTip: enable history with 'llm-doc-digest digest --history ...' or history.enabled in the config")
		return nil
	}
	PrintRuns(c.App.Writer, runs)

	counts, err := database.OutcomeCounts()
	if err != nil {
		return fmt.Errorf("failed to summarise outcomes: %w", err)
	}
	parts := make([]string, 0, len(counts))
	for _, oc := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", oc.Outcome, oc.Count))
	}
	fmt.Fprintf(c.App.Writer, "\nShown: %d runs | All outcomes: %s\n", len(runs), strings.Join(parts, " "))
	return nil
}

// PrintRuns writes the run table.
func PrintRuns(w io.Writer, runs []dbpkg.Run) {
	fmt.Fprintf(w, "%-20s %-32s %-20s %-5s %-11s %-14s %-8s %-10s\n",
		"Created", "Library", "Topic", "Mode", "Outcome", "Tokens", "Savings", "Digest")
	fmt.Fprintln(w, strings.Repeat("-", 126))

	for _, r := range runs {
		library := r.LibraryID
		if library == "" {
			library = r.Input + " (unresolved)"
		}
		savings := "n/a"
		if r.SavingsPercent != nil {
			savings = fmt.Sprintf("%.1f%%", *r.SavingsPercent)
		}
		fmt.Fprintf(w, "%-20s %-32s %-20s %-5s %-11s %-14s %-8s %-10s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			truncate(library, 32),
			truncate(r.Topic, 20),
			r.Mode,
			r.Outcome,
			fmt.Sprintf("%d -> %d", r.RawTokens, r.FilteredTokens),
			savings,
			humanize.Bytes(uint64(r.FilteredBytes)),
		)
	}
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
