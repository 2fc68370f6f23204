// Package pipeline runs one documentation request end to end: resolve the
// library, fetch its documentation, reduce it to a digest and report the
// token budget.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/analytics"
	"github.com/dtnitsch/llm-doc-digest/pkg/budget"
	"github.com/dtnitsch/llm-doc-digest/pkg/db"
)

// Conditions the pipeline recovers from. They are logged, never returned.
var (
	ErrUpstreamFetchFailed  = errors.New("upstream fetch failed")
	ErrEmptyDocument        = errors.New("empty document")
	ErrNoExtractableContent = errors.New("no extractable content")
)

// ErrInvalidQuery is returned for queries that cannot start a run at all.
var ErrInvalidQuery = errors.New("invalid query")

type Resolver interface {
	Resolve(ctx context.Context, q models.LibraryQuery) (models.CanonicalLibraryID, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, id models.CanonicalLibraryID, topic string, page int) models.RawDocument
}

type Assembler interface {
	Assemble(doc models.RawDocument, mode models.Mode) models.Digest
}

// Fallback answers a failed fetch from local material. It never fails.
type Fallback interface {
	Fallback(library, topic string) string
}

type Reporter interface {
	Enabled() bool
	Emit(report models.TokenReport) error
}

// HistoryRecorder stores finished runs. *db.DB satisfies it. Nothing recorded
// is read back by the pipeline.
type HistoryRecorder interface {
	InsertRun(run db.Run) error
}

type Options struct {
	Resolver  Resolver
	Fetcher   Fetcher
	Assembler Assembler
	Fallback  Fallback
	Reporter  Reporter        // optional
	History   HistoryRecorder // optional
	Logger    *slog.Logger
}

type Pipeline struct {
	opts Options
}

func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Resolver == nil:
		return nil, errors.New("pipeline: resolver is required")
	case opts.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case opts.Assembler == nil:
		return nil, errors.New("pipeline: assembler is required")
	case opts.Fallback == nil:
		return nil, errors.New("pipeline: fallback is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{opts: opts}, nil
}

// Result is what one run produced.
type Result struct {
	RunID     string                    `json:"run_id" yaml:"run_id"`
	Query     models.LibraryQuery       `json:"query" yaml:"query"`
	LibraryID models.CanonicalLibraryID `json:"library_id,omitempty" yaml:"library_id,omitempty"`
	Outcome   models.Outcome            `json:"outcome" yaml:"outcome"`
	Digest    models.Digest             `json:"digest" yaml:"digest"`
	Text      string                    `json:"text" yaml:"text"`
	Report    models.TokenReport        `json:"report" yaml:"report"`
	Duration  time.Duration             `json:"duration" yaml:"duration"`
}

// Run executes one invocation. The only error it returns for a valid query is
// a library that could not be resolved; in that case Result is still returned
// with Outcome unresolved and no digest. Every other failure degrades to a
// truncated or fallback digest.
func (p *Pipeline) Run(ctx context.Context, q models.LibraryQuery) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	res := &Result{RunID: uuid.NewString(), Query: q}
	started := time.Now()
	log := p.opts.Logger.With("run_id", res.RunID)
	log.Debug("run started", "library", q.Input(), "topic", q.TopicQuery, "mode", q.Mode.String(), "page", q.Page)

	id, err := p.opts.Resolver.Resolve(ctx, q)
	if err != nil {
		res.Outcome = models.OutcomeUnresolved
		res.Duration = time.Since(started)
		log.Error("library not resolved", "library", q.Input(), "error", err)
		p.record(log, res)
		return res, err
	}
	res.LibraryID = id

	doc := p.opts.Fetcher.Fetch(ctx, id, q.TopicQuery, q.Page)
	switch {
	case !doc.Present:
		log.Warn("answering from local reference", "library_id", id, "error", ErrUpstreamFetchFailed)
		res.Digest = models.Digest{
			Sections:     []models.ExtractedSection{models.NewSection("", []string{p.opts.Fallback.Fallback(string(id), q.TopicQuery)}, 1)},
			UsedFallback: true,
		}
		res.Outcome = models.OutcomeFallback
	default:
		if doc.IsBlank() {
			log.Info("document has no text", "library_id", id, "error", ErrEmptyDocument)
		}
		res.Digest = p.opts.Assembler.Assemble(doc, q.Mode)
		res.Outcome = models.OutcomeExtracted
		if res.Digest.UsedTruncation {
			res.Outcome = models.OutcomeTruncated
			if !doc.IsBlank() {
				log.Info("digest truncated", "library_id", id, "error", ErrNoExtractableContent)
			}
		}
	}

	res.Text = res.Digest.Render()
	res.Report = budget.Compute(doc.Text, res.Text)
	res.Duration = time.Since(started)

	if p.opts.Reporter != nil && p.opts.Reporter.Enabled() {
		res.Report.Language = budget.DetectLanguage(doc.Text)
		res.Report.TopTerms = analytics.TopWords(doc.Text, 5)
		if err := p.opts.Reporter.Emit(res.Report); err != nil {
			log.Warn("failed to emit token report", "error", err)
		}
	}

	log.Info("run finished",
		"library_id", id,
		"outcome", res.Outcome,
		"sections", res.Digest.Labels(),
		"raw_tokens", res.Report.RawTokens,
		"filtered_tokens", res.Report.FilteredTokens,
		"elapsed", res.Duration.String())
	p.record(log, res)
	return res, nil
}

func (p *Pipeline) record(log *slog.Logger, res *Result) {
	if p.opts.History == nil {
		return
	}
	run := db.Run{
		RunID:          res.RunID,
		LibraryID:      string(res.LibraryID),
		Input:          res.Query.Input(),
		Topic:          res.Query.TopicQuery,
		Mode:           res.Query.Mode.String(),
		Page:           res.Query.Page,
		Outcome:        string(res.Outcome),
		Sections:       res.Digest.Labels(),
		RawTokens:      res.Report.RawTokens,
		FilteredTokens: res.Report.FilteredTokens,
		RawBytes:       res.Report.RawBytes,
		FilteredBytes:  res.Report.FilteredBytes,
		Duration:       res.Duration,
	}
	if res.Report.HasSavings() {
		v := res.Report.SavingsPercent
		run.SavingsPercent = &v
	}
	if err := p.opts.History.InsertRun(run); err != nil {
		log.Warn("failed to record run", "error", err)
	}
}
