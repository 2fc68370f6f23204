// Package upstream is the boundary to the documentation lookup service. Every
// call runs in a child process so the raw payload is only materialised in a
// scope the caller controls.
package upstream

import (
	"context"
	"errors"
)

var (
	// ErrUpstream marks any failed boundary call: non-zero exit, timeout or an
	// explicit error payload.
	ErrUpstream = errors.New("upstream call failed")
	// ErrMalformedPayload marks a child that exited cleanly but did not print a
	// payload with a text field.
	ErrMalformedPayload = errors.New("malformed upstream payload")
)

// FetchRequest addresses one page of documentation.
type FetchRequest struct {
	LibraryID string
	Topic     string
	Page      int
	Tokens    int
}

// Boundary is the minimal contract the pipeline needs from the lookup service:
// each call returns text or an error.
type Boundary interface {
	// Resolve returns the service's unstructured answer for a library name.
	Resolve(ctx context.Context, libraryName, query string) (string, error)
	// Fetch returns raw documentation text.
	Fetch(ctx context.Context, req FetchRequest) (string, error)
	Close() error
}

// Payload is what a child process prints on stdout. Text is a pointer so a
// missing field can be told apart from an empty document.
type Payload struct {
	Text  *string `json:"text,omitempty"`
	Error string  `json:"error,omitempty"`
}

// TextPayload builds a success payload.
func TextPayload(text string) Payload {
	return Payload{Text: &text}
}
