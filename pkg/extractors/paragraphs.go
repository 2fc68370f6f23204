package extractors

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	headingLine   = regexp.MustCompile(`^\s{0,3}#{1,6}(\s|$)`)
	separatorLine = regexp.MustCompile(`^\s*([-=*_])(\s*[-=*_]){2,}\s*$`)
)

// Paragraphs greedily takes the first limit prose paragraphs whose text is at
// least minChars runes long. Paragraphs are separated by blank lines; fenced code
// is never a paragraph, nor is a paragraph made only of headings or rules.
func Paragraphs(text string, minChars, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var out []string
	for _, seg := range scan(text) {
		if seg.kind != proseSegment {
			continue
		}
		var buf []string
		take := func() bool {
			p := joinParagraph(buf)
			buf = buf[:0]
			if p == "" || utf8.RuneCountInString(p) < minChars {
				return false
			}
			out = append(out, p)
			return len(out) == limit
		}
		for _, ln := range seg.lines {
			if strings.TrimSpace(ln.text) == "" {
				if take() {
					return out
				}
				continue
			}
			buf = append(buf, ln.text)
		}
		if take() {
			return out
		}
	}
	return out
}

func joinParagraph(lines []string) string {
	prose := false
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if !headingLine.MatchString(t) && !separatorLine.MatchString(t) {
			prose = true
		}
		parts = append(parts, t)
	}
	if !prose {
		return ""
	}
	return strings.Join(parts, " ")
}
