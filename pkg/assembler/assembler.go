// Package assembler reduces a raw document to a labeled digest.
package assembler

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/extractors"
)

const (
	LabelCodeExamples = "Code Examples"
	LabelSignatures   = "API Signatures"
	LabelExamples     = "Examples"
	LabelOverview     = "Overview"
	LabelNotes        = "Important Notes"
	LabelExcerpt      = "Excerpt"

	// TruncationMarker is appended to every head-truncated excerpt.
	TruncationMarker = "[... truncated: no structured content found ...]"
	// EmptyDocumentNotice stands in for the excerpt when the service returned
	// nothing to truncate.
	EmptyDocumentNotice = "The documentation service returned an empty document for this query."
)

// Caps bounds each section. Zero disables that section.
type Caps struct {
	CodeBlocks int `yaml:"code_blocks"`
	Signatures int `yaml:"signatures"`
	Paragraphs int `yaml:"paragraphs"`
	Notes      int `yaml:"notes"`
}

// DefaultCodeCaps and DefaultInfoCaps are used when no configuration is given.
var (
	DefaultCodeCaps = Caps{CodeBlocks: 5, Signatures: 3, Notes: 3}
	DefaultInfoCaps = Caps{CodeBlocks: 2, Paragraphs: 3, Notes: 3}
)

const (
	DefaultTruncateChars     = 500
	DefaultMinParagraphChars = 80
)

type Options struct {
	CodeCaps          Caps
	InfoCaps          Caps
	TruncateChars     int
	MinParagraphChars int
	Matcher           *extractors.SignatureMatcher
	// Concurrent runs the extractors of one mode in parallel.
	Concurrent bool
	Logger     *slog.Logger
}

type Assembler struct {
	opts Options
}

func New(opts Options) *Assembler {
	if opts.CodeCaps == (Caps{}) {
		opts.CodeCaps = DefaultCodeCaps
	}
	if opts.InfoCaps == (Caps{}) {
		opts.InfoCaps = DefaultInfoCaps
	}
	if opts.TruncateChars <= 0 {
		opts.TruncateChars = DefaultTruncateChars
	}
	if opts.MinParagraphChars <= 0 {
		opts.MinParagraphChars = DefaultMinParagraphChars
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Assembler{opts: opts}
}

// slot is one extractor run; its position in the plan fixes its position in
// the digest.
type slot struct {
	label string
	limit int
	run   func(text string, limit int) []string
}

func (a *Assembler) plan(mode models.Mode) []slot {
	signatures := extractors.Signatures
	if a.opts.Matcher != nil {
		signatures = a.opts.Matcher.Extract
	}
	minChars := a.opts.MinParagraphChars
	paragraphs := func(text string, limit int) []string {
		return extractors.Paragraphs(text, minChars, limit)
	}

	var slots []slot
	switch mode {
	case models.ModeInfo:
		c := a.opts.InfoCaps
		slots = []slot{
			{label: LabelExamples, limit: c.CodeBlocks, run: extractors.CodeBlocks},
			{label: LabelOverview, limit: c.Paragraphs, run: paragraphs},
			{label: LabelNotes, limit: c.Notes, run: extractors.Notes},
		}
	default:
		c := a.opts.CodeCaps
		slots = []slot{
			{label: LabelCodeExamples, limit: c.CodeBlocks, run: extractors.CodeBlocks},
			{label: LabelSignatures, limit: c.Signatures, run: signatures},
			{label: LabelNotes, limit: c.Notes, run: extractors.Notes},
		}
	}
	return slots
}

// Assemble never returns an empty digest. A document with nothing to extract is
// head-truncated; a blank document becomes a fixed notice.
func (a *Assembler) Assemble(doc models.RawDocument, mode models.Mode) models.Digest {
	if doc.IsBlank() {
		a.opts.Logger.Info("empty document, emitting notice", "mode", mode.String())
		return models.Digest{
			Sections:       []models.ExtractedSection{models.NewSection(LabelExcerpt, []string{EmptyDocumentNotice + "\n\n" + TruncationMarker}, 1)},
			UsedTruncation: true,
		}
	}

	slots := a.plan(mode)
	results := a.extract(doc.Text, slots)

	var digest models.Digest
	for i, s := range slots {
		if len(results[i]) == 0 {
			continue
		}
		digest.Sections = append(digest.Sections, models.NewSection(s.label, results[i], s.limit))
	}
	if !digest.IsEmpty() {
		return digest
	}

	a.opts.Logger.Info("no extractable content, truncating", "mode", mode.String(), "limit", a.opts.TruncateChars)
	return models.Digest{
		Sections:       []models.ExtractedSection{models.NewSection(LabelExcerpt, []string{Truncate(doc.Text, a.opts.TruncateChars)}, 1)},
		UsedTruncation: true,
	}
}

func (a *Assembler) extract(text string, slots []slot) [][]string {
	results := make([][]string, len(slots))
	if !a.opts.Concurrent {
		for i, s := range slots {
			results[i] = s.run(text, s.limit)
		}
		return results
	}

	var g errgroup.Group
	for i, s := range slots {
		g.Go(func() error {
			results[i] = s.run(text, s.limit)
			return nil
		})
	}
	_ = g.Wait() // extractors do not fail
	return results
}

// Truncate keeps at most limit runes of the trimmed head of text and appends
// the truncation marker on its own line.
func Truncate(text string, limit int) string {
	head := strings.TrimSpace(text)
	if utf8.RuneCountInString(head) > limit {
		head = strings.TrimRightFunc(string([]rune(head)[:limit]), func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
	}
	return head + "\n\n" + TruncationMarker
}
