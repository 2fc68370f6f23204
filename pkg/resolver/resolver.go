// Package resolver turns a free-text library name into a canonical library id.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream"
)

// ErrLibraryNotResolved is the only fatal pipeline condition.
var ErrLibraryNotResolved = errors.New("library not resolved")

const idToken = `/[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*(?:/[A-Za-z0-9][A-Za-z0-9._-]*)?`

// Strategy extracts an id from the boundary's unstructured response.
type Strategy struct {
	Name    string
	pattern *regexp.Regexp
}

// Match returns the first id the strategy finds.
func (s Strategy) Match(response string) (models.CanonicalLibraryID, bool) {
	m := s.pattern.FindStringSubmatch(response)
	if len(m) < 2 {
		return "", false
	}
	return models.CanonicalLibraryID(m[1]), true
}

// Strategies are tried in order: an explicit "ID:" field, then a token wrapped
// in backticks.
var Strategies = []Strategy{
	{Name: "labeled-field", pattern: regexp.MustCompile("(?im)\\bID:[ \\t]*`?(" + idToken + ")`?")},
	{Name: "delimiter-wrapped", pattern: regexp.MustCompile("`(" + idToken + ")`")},
}

// NotResolvedError carries what was attempted so the caller can show one clear
// message.
type NotResolvedError struct {
	Input      string
	Strategies []string
	Response   string
	Err        error // boundary failure, nil when the response simply did not match
}

func (e *NotResolvedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "could not resolve library %q", e.Input)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": lookup failed: %v", e.Err)
	}
	if len(e.Strategies) > 0 {
		fmt.Fprintf(&sb, " (tried: %s)", strings.Join(e.Strategies, ", "))
	}
	return sb.String()
}

func (e *NotResolvedError) Is(target error) bool { return target == ErrLibraryNotResolved }

func (e *NotResolvedError) Unwrap() error { return e.Err }

// Resolver issues at most one boundary call per invocation.
type Resolver struct {
	boundary upstream.Boundary
	aliases  map[string]models.CanonicalLibraryID
	timeout  time.Duration
	logger   *slog.Logger
}

// New builds a resolver. aliases maps lower-cased library names to ids known
// from configuration; a hit short-circuits the boundary call.
func New(boundary upstream.Boundary, aliases map[string]models.CanonicalLibraryID, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{boundary: boundary, aliases: aliases, logger: logger}
}

// WithTimeout bounds the single boundary call.
func (r *Resolver) WithTimeout(d time.Duration) *Resolver {
	r.timeout = d
	return r
}

// Resolve returns the canonical id for q. An id supplied by the caller, a name
// already in canonical shape, or a configured alias skip the boundary entirely.
func (r *Resolver) Resolve(ctx context.Context, q models.LibraryQuery) (models.CanonicalLibraryID, error) {
	if id := strings.TrimSpace(q.LibraryID); id != "" {
		if models.IsCanonicalID(id) {
			return models.CanonicalLibraryID(id), nil
		}
		return "", &NotResolvedError{Input: id, Strategies: []string{"explicit-id"}}
	}

	name := strings.TrimSpace(q.RawName)
	tried := []string{"explicit-id"}
	if models.IsCanonicalID(name) {
		return models.CanonicalLibraryID(name), nil
	}
	if id, ok := r.aliases[strings.ToLower(name)]; ok {
		r.logger.Debug("library resolved from profile", "library", name, "library_id", id)
		return id, nil
	}
	tried = append(tried, "profile")
	if name == "" {
		return "", &NotResolvedError{Input: q.Input(), Strategies: tried}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	response, err := r.boundary.Resolve(ctx, name, q.TopicQuery)
	if err != nil {
		return "", &NotResolvedError{Input: name, Strategies: append(tried, "lookup"), Err: err}
	}
	for _, s := range Strategies {
		tried = append(tried, s.Name)
		if id, ok := s.Match(response); ok {
			r.logger.Debug("library resolved", "library", name, "library_id", id, "strategy", s.Name)
			return id, nil
		}
	}
	return "", &NotResolvedError{Input: name, Strategies: tried, Response: response}
}
