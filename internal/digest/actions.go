package digest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-digest/internal/common"
	"github.com/dtnitsch/llm-doc-digest/internal/config"
	child "github.com/dtnitsch/llm-doc-digest/internal/upstream"
	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/assembler"
	"github.com/dtnitsch/llm-doc-digest/pkg/budget"
	"github.com/dtnitsch/llm-doc-digest/pkg/corpus"
	"github.com/dtnitsch/llm-doc-digest/pkg/db"
	"github.com/dtnitsch/llm-doc-digest/pkg/fetcher"
	"github.com/dtnitsch/llm-doc-digest/pkg/pipeline"
	"github.com/dtnitsch/llm-doc-digest/pkg/resolver"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream"
)

// LoadConfig reads --config when given, otherwise the default search path,
// then applies the flags that override file settings.
func LoadConfig(c *cli.Context) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file %s: %w", path, statErr)
		}
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("transport") {
		cfg.Upstream.Transport = c.String("transport")
	}
	if c.IsSet("timeout") {
		cfg.Upstream.Timeout = c.Duration("timeout")
	}
	if c.IsSet("tokens") {
		cfg.Upstream.Tokens = c.Int("tokens")
	}
	if c.Bool("history") {
		cfg.History.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewBoundary builds the configured transport. The exec transport defaults
// to this binary's hidden upstream command.
func NewBoundary(cfg *config.AppConfig, logger *slog.Logger) (upstream.Boundary, error) {
	u := cfg.Upstream
	switch u.Transport {
	case config.TransportMCP:
		t, err := upstream.NewMCPTransport(u.MCPCommand, nil, logger)
		if err != nil {
			return nil, err
		}
		t.ResolveTool = u.ResolveTool
		t.DocsTool = u.DocsTool
		return t, nil
	default:
		command := u.Command
		if len(command) == 0 {
			self, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("failed to get executable path: %w", err)
			}
			command = []string{self, "upstream"}
		}
		env := []string{
			child.EnvBaseURL + "=" + u.BaseURL,
			child.EnvAPIKeyEnv + "=" + u.APIKeyEnv,
			child.EnvTimeout + "=" + cfg.Timeout().String(),
		}
		return upstream.NewExecTransport(command, env, logger)
	}
}

func DigestAction(c *cli.Context) error {
	if err := config.LoadEnv(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	cfg, err := LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}
	logger, err := common.NewLogger(cfg.LogLevel, c.Bool("quiet"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	mode, err := models.ParseMode(c.String("mode"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	format := strings.ToLower(c.String("format"))
	if format != "text" && format != "yaml" && format != "json" {
		return cli.Exit(fmt.Sprintf("unsupported output format %q", format), 2)
	}

	q := models.LibraryQuery{
		RawName:    common.SanitizeInput(c.String("library")),
		LibraryID:  common.SanitizeInput(c.String("id")),
		TopicQuery: strings.TrimSpace(c.String("topic")),
		Mode:       mode,
		Page:       c.Int("page"),
	}
	if err := q.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	boundary, err := NewBoundary(cfg, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to set up upstream: %v", err), 2)
	}
	defer boundary.Close()

	profile := cfg.ProfileFor(q.RawName, models.CanonicalLibraryID(q.LibraryID))
	asmOpts, err := cfg.AssemblerOptions(profile)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	asmOpts.Logger = logger

	local, err := corpus.Default()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load local reference corpus: %v", err), 2)
	}

	opts := pipeline.Options{
		Resolver:  resolver.New(boundary, cfg.Aliases(), logger).WithTimeout(cfg.Timeout()),
		Fetcher:   fetcher.NewFetcher(boundary, fetcher.Options{Timeout: cfg.Timeout(), Tokens: cfg.Upstream.Tokens, Logger: logger}),
		Assembler: assembler.New(asmOpts),
		Fallback:  local,
		Reporter:  budget.NewReporter(c.App.ErrWriter, c.Bool("verbose")),
		Logger:    logger,
	}
	if cfg.History.Enabled {
		database, err := db.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("run history unavailable", "error", err)
		} else {
			defer database.Close()
			opts.History = database
		}
	}

	p, err := pipeline.New(opts)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	res, err := p.Run(c.Context, q)
	if err != nil {
		if errors.Is(err, resolver.ErrLibraryNotResolved) {
			return cli.Exit(err.Error(), 1)
		}
		return cli.Exit(err.Error(), 2)
	}

	if err := WriteResult(c.App.Writer, res, format, c.String("fields")); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return nil
}

// WriteResult prints the digest on the primary channel. Text output is the
// rendered digest only; yaml and json carry the whole result, optionally
// filtered to some top-level fields.
func WriteResult(w io.Writer, res *pipeline.Result, format, fields string) error {
	if format == "text" {
		_, err := fmt.Fprintln(w, res.Text)
		return err
	}
	out, err := common.Marshal(format, common.FilterFields(res, fields))
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if format == "json" {
		_, err = fmt.Fprintln(w)
	}
	return err
}
