// Package fetcher retrieves raw documentation for a resolved library.
package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/parser"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream"
)

// DefaultTimeout bounds a single fetch when the configuration gives none.
const DefaultTimeout = 30 * time.Second

type Fetcher struct {
	boundary upstream.Boundary
	timeout  time.Duration
	tokens   int
	logger   *slog.Logger
}

// Options tune a Fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout time.Duration
	// Tokens is forwarded to the service as its size hint; 0 leaves it unset.
	Tokens int
	Logger *slog.Logger
}

func NewFetcher(boundary upstream.Boundary, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{
		boundary: boundary,
		timeout:  opts.Timeout,
		tokens:   opts.Tokens,
		logger:   opts.Logger,
	}
}

// Fetch makes exactly one boundary call. It never returns an error: any
// failure yields a RawDocument with Present false, which the pipeline answers
// with the local reference corpus.
func (f *Fetcher) Fetch(ctx context.Context, id models.CanonicalLibraryID, topic string, page int) models.RawDocument {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	started := time.Now()
	text, err := f.boundary.Fetch(ctx, upstream.FetchRequest{
		LibraryID: string(id),
		Topic:     topic,
		Page:      page,
		Tokens:    f.tokens,
	})
	if err != nil {
		f.logger.Warn("documentation fetch failed",
			"library_id", id,
			"topic", topic,
			"page", page,
			"elapsed", time.Since(started).String(),
			"error", err)
		return models.RawDocument{}
	}

	if parser.LooksLikeHTML(text) {
		normalized, err := parser.Normalize(text)
		if err != nil {
			f.logger.Warn("failed to normalize HTML payload, using it as is", "library_id", id, "error", err)
		} else {
			text = normalized
		}
	}

	f.logger.Debug("documentation fetched", "library_id", id, "bytes", len(text), "elapsed", time.Since(started).String())
	return models.RawDocument{Text: text, Present: true}
}
