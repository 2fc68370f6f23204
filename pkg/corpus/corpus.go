// Package corpus is the static, read-only reference set consulted when the
// upstream documentation service cannot be reached.
package corpus

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/dtnitsch/llm-doc-digest/pkg/analytics"
	"gopkg.in/yaml.v3"
)

// NoLocalReference is returned by Fallback when no entry matches the topic.
const NoLocalReference = "No local reference available for this topic. " +
	"The documentation service could not be reached; retry later or consult the library's official documentation."

// Category is a known topic category. Its name counts as an implicit keyword.
type Category string

const (
	CategorySessions       Category = "sessions"
	CategoryAuthentication Category = "authentication"
	CategoryOAuth          Category = "oauth"
	CategoryDatabase       Category = "database"
	CategoryPlugins        Category = "plugins"
	CategoryClient         Category = "client"
	CategoryGeneral        Category = "general"
)

var knownCategories = map[Category]struct{}{
	CategorySessions: {}, CategoryAuthentication: {}, CategoryOAuth: {},
	CategoryDatabase: {}, CategoryPlugins: {}, CategoryClient: {}, CategoryGeneral: {},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := knownCategories[c]
	return ok
}

const (
	categoryWeight = 2
	minSubstring   = 3 // shorter terms only count on exact match
)

// Entry is one static reference document.
type Entry struct {
	ID       string         `yaml:"id"`
	Library  string         `yaml:"library,omitempty"` // empty means any library
	Category Category       `yaml:"category"`
	File     string         `yaml:"file"`
	Keywords map[string]int `yaml:"keywords"` // keyword -> weight
	Content  string         `yaml:"-"`
}

type index struct {
	Entries []Entry `yaml:"entries"`
}

// Corpus is immutable after Load.
type Corpus struct {
	entries []Entry
}

//go:embed reference
var referenceFS embed.FS

var (
	defaultOnce   sync.Once
	defaultCorpus *Corpus
	defaultErr    error
)

// Default returns the corpus embedded in the binary, loaded once per process.
func Default() (*Corpus, error) {
	defaultOnce.Do(func() {
		defaultCorpus, defaultErr = Load(referenceFS, "reference/index.yaml")
	})
	return defaultCorpus, defaultErr
}

// Load reads an index file and the documents it names from fsys. Document paths
// are relative to the index file's directory.
func Load(fsys fs.FS, indexPath string) (*Corpus, error) {
	data, err := fs.ReadFile(fsys, indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus index: %w", err)
	}
	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse corpus index: %w", err)
	}

	dir := path.Dir(indexPath)
	c := &Corpus{entries: make([]Entry, 0, len(idx.Entries))}
	for _, e := range idx.Entries {
		if !e.Category.Valid() {
			return nil, fmt.Errorf("corpus entry %q: unknown category %q", e.ID, e.Category)
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, e.File))
		if err != nil {
			return nil, fmt.Errorf("corpus entry %q: %w", e.ID, err)
		}
		e.Content = string(content)
		e.Keywords = lowerKeys(e.Keywords)
		e.Library = strings.ToLower(strings.TrimSpace(e.Library))
		c.entries = append(c.entries, e)
	}
	return c, nil
}

func lowerKeys(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, w := range in {
		if w <= 0 {
			w = 1
		}
		out[strings.ToLower(strings.TrimSpace(k))] = w
	}
	return out
}

// Entries returns a copy of the entry list in index order.
func (c *Corpus) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup picks the best entry for a topic. Only entries for the requested
// library, or for no particular library, are considered. Ties go to the entry
// listed first in the index.
func (c *Corpus) Lookup(library, topic string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	terms := analytics.Terms(topic)
	phrase := strings.ToLower(topic)
	if len(terms) == 0 && strings.TrimSpace(phrase) == "" {
		return Entry{}, false
	}

	best, bestScore := -1, 0
	for i, e := range c.entries {
		if !libraryMatches(e.Library, library) {
			continue
		}
		score := e.score(terms, phrase)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return c.entries[best], true
}

// Fallback returns the matching entry's content verbatim, or NoLocalReference.
func (c *Corpus) Fallback(library, topic string) string {
	if e, ok := c.Lookup(library, topic); ok {
		return e.Content
	}
	return NoLocalReference
}

func (e Entry) score(terms []string, phrase string) int {
	score := 0
	for kw, w := range e.Keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(phrase, kw) {
				score += 2 * w
			}
			continue
		}
		for _, t := range terms {
			switch {
			case t == kw:
				score += 2 * w
			case len(t) >= minSubstring && (strings.Contains(t, kw) || strings.Contains(kw, t)):
				score += w
			}
		}
	}
	cat := string(e.Category)
	for _, t := range terms {
		if t == cat || (len(t) >= minSubstring && (strings.HasPrefix(t, cat) || strings.HasPrefix(cat, t))) {
			score += categoryWeight
			break
		}
	}
	return score
}

// libraryMatches compares an entry's library tag with a library name or a
// canonical id such as /better-auth/better-auth.
func libraryMatches(entryLib, requested string) bool {
	if entryLib == "" {
		return true
	}
	req := strings.ToLower(strings.TrimSpace(requested))
	if req == "" {
		return false
	}
	if squash(req) == squash(entryLib) {
		return true
	}
	for _, part := range strings.Split(strings.Trim(req, "/"), "/") {
		if squash(part) == squash(entryLib) {
			return true
		}
	}
	return false
}

func squash(s string) string {
	return strings.NewReplacer("-", "", "_", "", ".", "", " ", "").Replace(s)
}
