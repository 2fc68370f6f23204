package models

import (
	"errors"
	"regexp"
	"strings"
)

// CanonicalLibraryID addresses one library's documentation, shaped /org/project[/version].
type CanonicalLibraryID string

var canonicalIDPattern = regexp.MustCompile(`^/[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*(/[A-Za-z0-9][A-Za-z0-9._-]*)?$`)

// IsCanonicalID reports whether s already has the /org/project[/version] shape.
func IsCanonicalID(s string) bool {
	return canonicalIDPattern.MatchString(strings.TrimSpace(s))
}

// LibraryQuery is the immutable input of one pipeline invocation.
type LibraryQuery struct {
	RawName    string `json:"library,omitempty" yaml:"library,omitempty"`
	LibraryID  string `json:"library_id,omitempty" yaml:"library_id,omitempty"` // caller-supplied, skips resolution
	TopicQuery string `json:"topic" yaml:"topic"`
	Mode       Mode   `json:"mode" yaml:"mode"`
	Page       int    `json:"page" yaml:"page"`
}

// Validate checks the invariants the pipeline relies on. The shape of an
// explicit id is left to resolution so a bad id is reported as unresolved.
func (q LibraryQuery) Validate() error {
	if strings.TrimSpace(q.RawName) == "" && strings.TrimSpace(q.LibraryID) == "" {
		return errors.New("a library name or library id is required")
	}
	if q.Page < 1 {
		return errors.New("page must be >= 1")
	}
	return nil
}

// Input returns what the caller typed, used when echoing failures back.
func (q LibraryQuery) Input() string {
	if q.LibraryID != "" {
		return q.LibraryID
	}
	return q.RawName
}
