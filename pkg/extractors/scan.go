// Package extractors holds the deterministic pattern extractors that reduce raw
// documentation text to fragments worth keeping.
//
// Every extractor is a pure function of its input. Absence of matches yields an
// empty slice, never an error.
package extractors

import "strings"

// line is one physical line of the input. start/end are byte offsets into the
// source with end excluding the line terminator.
type line struct {
	start int
	end   int
	text  string
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for start < len(text) {
		nl := strings.IndexByte(text[start:], '\n')
		next := len(text)
		end := len(text)
		if nl >= 0 {
			end = start + nl
			next = end + 1
		}
		if end > start && text[end-1] == '\r' {
			end--
		}
		lines = append(lines, line{start: start, end: end, text: text[start:end]})
		start = next
	}
	return lines
}

// scanState is the state of the fence scanner.
type scanState int

const (
	stateOutside scanState = iota
	stateInFence
)

type fence struct {
	char byte
	n    int
}

// openFence recognises an opening fence: up to three spaces, then a run of at
// least three backticks or tildes, then an optional info string.
func openFence(s string) (fence, string, bool) {
	rest, ok := stripFenceIndent(s)
	if !ok || len(rest) < 3 {
		return fence{}, "", false
	}
	c := rest[0]
	if c != '`' && c != '~' {
		return fence{}, "", false
	}
	n := 0
	for n < len(rest) && rest[n] == c {
		n++
	}
	if n < 3 {
		return fence{}, "", false
	}
	info := strings.TrimSpace(rest[n:])
	if c == '`' && strings.ContainsRune(info, '`') {
		return fence{}, "", false
	}
	lang := info
	if i := strings.IndexAny(lang, " \t{"); i >= 0 {
		lang = lang[:i]
	}
	return fence{char: c, n: n}, lang, true
}

// closes reports whether s terminates the fence: same character, a run at least
// as long as the opener, and nothing but whitespace after it.
func (f fence) closes(s string) bool {
	rest, ok := stripFenceIndent(s)
	if !ok {
		return false
	}
	n := 0
	for n < len(rest) && rest[n] == f.char {
		n++
	}
	return n >= f.n && strings.TrimSpace(rest[n:]) == ""
}

func stripFenceIndent(s string) (string, bool) {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i > 3 {
		return "", false
	}
	return s[i:], true
}

type segmentKind int

const (
	proseSegment segmentKind = iota
	fenceSegment
)

// segment is a run of lines that are either all prose or one fenced block.
// For fenced blocks the first line is the opener and, when closed, the last
// line is the closer.
type segment struct {
	kind   segmentKind
	lines  []line
	lang   string
	closed bool
}

func (s segment) span(src string) string {
	if len(s.lines) == 0 {
		return ""
	}
	return src[s.lines[0].start:s.lines[len(s.lines)-1].end]
}

// body returns the lines between the fence markers.
func (s segment) body() []line {
	if s.kind != fenceSegment || len(s.lines) == 0 {
		return s.lines
	}
	inner := s.lines[1:]
	if s.closed && len(inner) > 0 {
		inner = inner[:len(inner)-1]
	}
	return inner
}

// scan splits text into prose and fenced segments. An opener that is never
// closed extends its block to end of input. Inside a fence only a proper closer
// changes state, so nested-looking openers are content.
func scan(text string) []segment {
	var (
		segments []segment
		current  segment
		open     fence
		state    = stateOutside
	)
	flush := func() {
		if len(current.lines) > 0 {
			segments = append(segments, current)
		}
		current = segment{}
	}

	for _, ln := range splitLines(text) {
		switch state {
		case stateOutside:
			if f, lang, ok := openFence(ln.text); ok {
				flush()
				open = f
				current = segment{kind: fenceSegment, lang: lang, lines: []line{ln}}
				state = stateInFence
				continue
			}
			current.kind = proseSegment
			current.lines = append(current.lines, ln)
		case stateInFence:
			current.lines = append(current.lines, ln)
			if open.closes(ln.text) {
				current.closed = true
				flush()
				state = stateOutside
			}
		}
	}
	flush()
	return segments
}
