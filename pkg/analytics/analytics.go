// Package analytics provides the word-level text helpers shared by the corpus
// lookup and the budget report.
package analytics

import (
	"sort"
	"strings"
)

// commonWords are ignored when turning a topic into lookup terms.
var commonWords = map[string]struct{}{
	"a": {}, "about": {}, "all": {}, "also": {}, "an": {}, "and": {}, "any": {},
	"are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "can": {}, "do": {},
	"does": {}, "for": {}, "from": {}, "get": {}, "how": {}, "i": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "me": {}, "my": {}, "of": {},
	"on": {}, "or": {}, "should": {}, "so": {}, "some": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "this": {},
	"to": {}, "up": {}, "use": {}, "using": {}, "was": {}, "we": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "who": {}, "why": {},
	"will": {}, "with": {}, "would": {}, "you": {}, "your": {},

	// Documentation-request noise
	"docs": {}, "documentation": {}, "example": {}, "examples": {}, "guide": {},
	"help": {}, "show": {}, "want": {}, "need": {}, "work": {}, "works": {},
}

// IsStopword checks if a word is a common stopword that should be filtered out.
func IsStopword(word string) bool {
	_, exists := commonWords[strings.ToLower(word)]
	return exists
}

// normalizeWord lowercases and trims everything but letters and digits from both
// ends, so "Sessions," and "(sessions)" count as the same word.
func normalizeWord(word string) string {
	return strings.TrimFunc(strings.ToLower(word), func(r rune) bool {
		return ('a' > r || r > 'z') && ('0' > r || r > '9')
	})
}

// WordCount is the whitespace-delimited word count of text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WordFrequency counts normalised non-stopword words.
func WordFrequency(text string) map[string]int {
	frequencies := make(map[string]int)
	for _, word := range strings.Fields(text) {
		word = normalizeWord(word)
		if word == "" || IsStopword(word) {
			continue
		}
		frequencies[word]++
	}
	return frequencies
}

// Terms returns the distinct normalised non-stopword words of text in first-seen
// order. Hyphenated and slash-joined words also contribute their parts.
func Terms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	add := func(w string) {
		w = normalizeWord(w)
		if w == "" || IsStopword(w) {
			return
		}
		if _, dup := seen[w]; dup {
			return
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	for _, word := range strings.Fields(text) {
		add(word)
		if strings.ContainsAny(word, "-/_") {
			for _, part := range strings.FieldsFunc(word, func(r rune) bool { return r == '-' || r == '/' || r == '_' }) {
				add(part)
			}
		}
	}
	return terms
}

type wordCount struct {
	Word  string
	Count int
}

// TopWords returns the n most frequent non-stopword words, ties broken
// alphabetically so output is stable.
func TopWords(text string, n int) []string {
	frequencies := WordFrequency(text)

	counts := make([]wordCount, 0, len(frequencies))
	for k, v := range frequencies {
		counts = append(counts, wordCount{k, v})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})

	limit := n
	if len(counts) < n {
		limit = len(counts)
	}

	top := make([]string, limit)
	for i := 0; i < limit; i++ {
		top[i] = counts[i].Word
	}
	return top
}
