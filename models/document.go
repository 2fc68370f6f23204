package models

import "strings"

// RawDocument is the unreduced upstream payload.
// Present=false is an explicit fetch failure; Present=true with empty Text is an
// empty-but-successful fetch.
type RawDocument struct {
	Text    string
	Present bool
}

// IsBlank reports a successful fetch that carried no usable text.
func (d RawDocument) IsBlank() bool {
	return d.Present && strings.TrimSpace(d.Text) == ""
}

// Outcome records which path produced a digest.
type Outcome string

const (
	OutcomeExtracted  Outcome = "extracted"
	OutcomeTruncated  Outcome = "truncated"
	OutcomeFallback   Outcome = "fallback"
	OutcomeUnresolved Outcome = "unresolved"
)
