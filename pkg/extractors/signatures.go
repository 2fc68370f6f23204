package extractors

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultDeclarationPatterns match declaration-shaped lines across the languages
// documentation snippets are usually written in. Patterns are applied to the
// line with leading whitespace removed.
var DefaultDeclarationPatterns = []string{
	`^(export\s+)?(default\s+)?(declare\s+)?(async\s+)?function\*?\s*\w`,
	`^(export\s+)?(default\s+)?(declare\s+)?(abstract\s+)?class\s+\w`,
	`^(export\s+)?(declare\s+)?interface\s+\w`,
	`^(export\s+)?(declare\s+)?(const\s+)?enum\s+\w`,
	`^(export\s+)?(declare\s+)?type\s+\w+(\s*<[^>]*>)?\s*=`,
	`^export\s+(const|let)\s+\w`,
	`^(async\s+)?def\s+\w+\s*\(`,
	`^func\s+(\([^)]*\)\s*)?\w+\s*[\[(]`,
	`^(pub(\([^)]*\))?\s+)?(fn|struct|trait)\s+\w`,
}

// callLead lets an API prefix appear after an assignment, await or return.
const callLead = `^(?:(?:export\s+)?(?:const|let|var)\s+[\w{}\[\],\s]+=\s*)?(?:await\s+|return\s+)?`

// SignatureMatcher recognises declaration lines and fixed API call prefixes.
type SignatureMatcher struct {
	patterns []*regexp.Regexp
}

var defaultMatcher = mustMatcher(DefaultDeclarationPatterns, nil)

func mustMatcher(patterns, prefixes []string) *SignatureMatcher {
	m, err := NewSignatureMatcher(patterns, prefixes)
	if err != nil {
		panic(err)
	}
	return m
}

// NewSignatureMatcher compiles declaration patterns plus literal API prefixes such
// as "auth.api." or "createAuthClient(".
func NewSignatureMatcher(patterns, prefixes []string) (*SignatureMatcher, error) {
	m := &SignatureMatcher{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid signature pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	for _, prefix := range prefixes {
		if strings.TrimSpace(prefix) == "" {
			continue
		}
		m.patterns = append(m.patterns, regexp.MustCompile(callLead+regexp.QuoteMeta(prefix)))
	}
	return m, nil
}

// Matches reports whether a single line looks like a declaration.
func (m *SignatureMatcher) Matches(s string) bool {
	trimmed := strings.TrimLeft(s, " \t")
	if trimmed == "" {
		return false
	}
	for _, re := range m.patterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// Signatures extracts declarations with the default patterns.
func Signatures(text string, limit int) []string {
	return defaultMatcher.Extract(text, limit)
}

// Extract returns up to limit declarations in document order. A multi-line
// declaration keeps consuming lines while they stay indented deeper than the
// declaration line; a bracket line back at the declaration's indent closes it
// and is included. Fence marker lines are never part of a signature.
func (m *SignatureMatcher) Extract(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var out []string
	for _, seg := range scan(text) {
		lines := seg.lines
		if seg.kind == fenceSegment {
			lines = seg.body()
		}
		for i := 0; i < len(lines); i++ {
			if !m.Matches(lines[i].text) {
				continue
			}
			last := continuation(lines, i)
			out = append(out, text[lines[i].start:lines[last].end])
			if len(out) == limit {
				return out
			}
			i = last
		}
	}
	return out
}

// continuation returns the index of the last line belonging to the declaration
// that starts at lines[i].
func continuation(lines []line, i int) int {
	base := indentWidth(lines[i].text)
	opener := opensBlock(lines[i].text)
	last := i
	for j := i + 1; j < len(lines); j++ {
		s := lines[j].text
		if strings.TrimSpace(s) == "" {
			// A blank line only continues when more indented content follows.
			k := j + 1
			for k < len(lines) && strings.TrimSpace(lines[k].text) == "" {
				k++
			}
			if k < len(lines) && indentWidth(lines[k].text) > base {
				j = k - 1
				continue
			}
			break
		}
		w := indentWidth(s)
		if w > base {
			last = j
			continue
		}
		if opener && w == base && closesBlock(s) {
			last = j
		}
		break
	}
	return last
}

func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

func opensBlock(s string) bool {
	t := strings.TrimRight(s, " \t")
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '{', '(', '[', '<', ':':
		return true
	}
	return false
}

func closesBlock(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || len(t) > 4 {
		return false
	}
	switch t[0] {
	case '}', ')', ']', '>':
		return true
	}
	return false
}
