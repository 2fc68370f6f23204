// Package budget estimates token usage before and after reduction and reports
// it on the diagnostic channel.
package budget

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pemistahl/lingua-go"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/analytics"
)

// Estimate approximates the token count of text as ceil(words * 1.3), computed
// in integers so whole-number results are exact.
func Estimate(text string) int {
	words := analytics.WordCount(text)
	return (words*13 + 9) / 10
}

// Compute builds the report for one run. SavingsPercent is SavingsUnavailable
// when the raw estimate is zero; it can be negative when the digest is larger
// than the raw text, as with a fallback entry.
func Compute(raw, digest string) models.TokenReport {
	r := models.TokenReport{
		RawTokens:      Estimate(raw),
		FilteredTokens: Estimate(digest),
		RawBytes:       len(raw),
		FilteredBytes:  len(digest),
		SavingsPercent: models.SavingsUnavailable,
	}
	if r.RawTokens > 0 {
		r.SavingsPercent = float64(r.RawTokens-r.FilteredTokens) / float64(r.RawTokens) * 100
	}
	return r
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectLanguage names the natural language of text, or "" when it cannot tell.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.German, lingua.French, lingua.Spanish,
				lingua.Portuguese, lingua.Italian, lingua.Russian, lingua.Chinese,
				lingua.Japanese, lingua.Korean).
			WithLowAccuracyMode().
			Build()
	})
	if lang, ok := detector.DetectLanguageOf(text); ok {
		return lang.String()
	}
	return ""
}

// Reporter writes TokenReports to the diagnostic writer. Nothing is written
// unless verbose is set, so the digest channel never carries a report.
type Reporter struct {
	w       io.Writer
	verbose bool
	styled  bool
	render  *lipgloss.Renderer
}

func NewReporter(w io.Writer, verbose bool) *Reporter {
	r := &Reporter{w: w, verbose: verbose}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r.styled = true
		r.render = lipgloss.NewRenderer(w)
	}
	return r
}

// Enabled reports whether Emit will write anything.
func (r *Reporter) Enabled() bool {
	return r != nil && r.verbose
}

func (r *Reporter) Emit(report models.TokenReport) error {
	if !r.Enabled() {
		return nil
	}
	rows := Lines(report)
	var out string
	if r.styled {
		title := r.render.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render("Token budget")
		box := r.render.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
		out = box.Render(title+"\n"+strings.Join(rows, "\n")) + "\n"
	} else {
		out = "token budget\n  " + strings.Join(rows, "\n  ") + "\n"
	}
	if _, err := io.WriteString(r.w, out); err != nil {
		return fmt.Errorf("failed to write token report: %w", err)
	}
	return nil
}

// Lines formats the report body, one field per line.
func Lines(report models.TokenReport) []string {
	savings := "n/a"
	if report.HasSavings() {
		savings = fmt.Sprintf("%.1f%%", report.SavingsPercent)
	}
	lines := []string{
		fmt.Sprintf("raw:      %d tokens (%s)", report.RawTokens, humanize.Bytes(uint64(report.RawBytes))),
		fmt.Sprintf("digest:   %d tokens (%s)", report.FilteredTokens, humanize.Bytes(uint64(report.FilteredBytes))),
		fmt.Sprintf("savings:  %s", savings),
	}
	if report.Language != "" {
		lines = append(lines, fmt.Sprintf("language: %s", report.Language))
	}
	if len(report.TopTerms) > 0 {
		lines = append(lines, fmt.Sprintf("terms:    %s", strings.Join(report.TopTerms, ", ")))
	}
	return lines
}
