package extractors

import (
	"regexp"
	"strings"
)

// NoteKeywords are the advisory words that start a note line.
var NoteKeywords = []string{"note", "warning", "tip", "important"}

var noteKeywordGroup = `(?:` + strings.Join(NoteKeywords, "|") + `)`

// notePattern allows list, quote, emphasis and alert markup before the keyword:
// "> **Note:**", "- Warning", "1. tip", "> [!IMPORTANT]". A plural keyword only
// counts as a heading ("Notes:", "**Tips**:"), so "Tips and tricks" is prose.
var notePattern = regexp.MustCompile(`(?i)^\s*(?:(?:>|[-*+]|\d+[.)])\s*)*(?:\*\*|__|\*|_)?(?:\[!)?(?:` +
	noteKeywordGroup + `\b|` + noteKeywordGroup + `s(?:\*\*|__|\*|_)?:)`)

// IsNote reports whether a single line is an advisory note.
func IsNote(s string) bool {
	return notePattern.MatchString(s)
}

// Notes returns up to limit advisory lines from prose, in input order. Lines inside
// fenced code are not prose and never match. Duplicates are kept.
func Notes(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var out []string
	for _, seg := range scan(text) {
		if seg.kind != proseSegment {
			continue
		}
		for _, ln := range seg.lines {
			if !IsNote(ln.text) {
				continue
			}
			out = append(out, strings.TrimRight(ln.text, " \t"))
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
