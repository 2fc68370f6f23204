package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream"
)

type fakeBoundary struct {
	response string
	err      error
	calls    int
}

func (f *fakeBoundary) Resolve(ctx context.Context, name, query string) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeBoundary) Fetch(ctx context.Context, req upstream.FetchRequest) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeBoundary) Close() error { return nil }

// blockingBoundary waits for the context before answering.
type blockingBoundary struct {
	fakeBoundary
	deadline bool
}

func (b *blockingBoundary) Resolve(ctx context.Context, name, query string) (string, error) {
	b.calls++
	_, b.deadline = ctx.Deadline()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestResolve_ShortCircuits(t *testing.T) {
	aliases := map[string]models.CanonicalLibraryID{"better-auth": "/better-auth/better-auth"}

	tests := []struct {
		name string
		q    models.LibraryQuery
		want models.CanonicalLibraryID
	}{
		{name: "explicit id", q: models.LibraryQuery{LibraryID: "/vercel/next.js", RawName: "ignored"}, want: "/vercel/next.js"},
		{name: "explicit versioned id", q: models.LibraryQuery{LibraryID: "/vercel/next.js/v14.3.0"}, want: "/vercel/next.js/v14.3.0"},
		{name: "canonical name", q: models.LibraryQuery{RawName: "/org/project"}, want: "/org/project"},
		{name: "profile alias", q: models.LibraryQuery{RawName: "Better-Auth"}, want: "/better-auth/better-auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBoundary{}
			r := New(fb, aliases, nil)
			got, err := r.Resolve(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if fb.calls != 0 {
				t.Errorf("boundary called %d times, want 0", fb.calls)
			}
		})
	}
}

func TestResolve_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     models.CanonicalLibraryID
	}{
		{
			name:     "labeled field",
			response: "- Title: Better Auth\n- Context7-compatible library ID: /better-auth/better-auth\n- Description: auth",
			want:     "/better-auth/better-auth",
		},
		{
			name:     "labeled field wins over earlier wrapped token",
			response: "see `/other/lib` below\nID: /better-auth/better-auth",
			want:     "/better-auth/better-auth",
		},
		{
			name:     "labeled field with backticks",
			response: "Library ID: `/vercel/next.js/v15.0.0`",
			want:     "/vercel/next.js/v15.0.0",
		},
		{
			name:     "delimiter wrapped",
			response: "The best match is `/tanstack/query` with 3000 snippets.",
			want:     "/tanstack/query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBoundary{response: tt.response}
			r := New(fb, nil, nil)
			got, err := r.Resolve(context.Background(), models.LibraryQuery{RawName: "x", TopicQuery: "t", Page: 1})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if fb.calls != 1 {
				t.Errorf("boundary called %d times, want 1", fb.calls)
			}
		})
	}
}

func TestResolve_NotResolved(t *testing.T) {
	t.Run("no pattern matches", func(t *testing.T) {
		fb := &fakeBoundary{response: "No matching libraries found."}
		_, err := New(fb, nil, nil).Resolve(context.Background(), models.LibraryQuery{RawName: "nosuchlib", Page: 1})
		if !errors.Is(err, ErrLibraryNotResolved) {
			t.Fatalf("Resolve() error = %v, want ErrLibraryNotResolved", err)
		}
		var nre *NotResolvedError
		if !errors.As(err, &nre) {
			t.Fatal("error is not a *NotResolvedError")
		}
		if nre.Response != "No matching libraries found." {
			t.Errorf("Response = %q, want raw response", nre.Response)
		}
		msg := err.Error()
		for _, s := range []string{"nosuchlib", "labeled-field", "delimiter-wrapped"} {
			if !strings.Contains(msg, s) {
				t.Errorf("error message %q missing %q", msg, s)
			}
		}
		if fb.calls != 1 {
			t.Errorf("boundary called %d times, want exactly 1 (no retries)", fb.calls)
		}
	})

	t.Run("boundary failure", func(t *testing.T) {
		fb := &fakeBoundary{err: upstream.ErrUpstream}
		_, err := New(fb, nil, nil).Resolve(context.Background(), models.LibraryQuery{RawName: "x", Page: 1})
		if !errors.Is(err, ErrLibraryNotResolved) || !errors.Is(err, upstream.ErrUpstream) {
			t.Errorf("Resolve() error = %v, want not-resolved wrapping upstream error", err)
		}
	})

	t.Run("malformed explicit id", func(t *testing.T) {
		fb := &fakeBoundary{}
		_, err := New(fb, nil, nil).Resolve(context.Background(), models.LibraryQuery{LibraryID: "not-an-id", Page: 1})
		if !errors.Is(err, ErrLibraryNotResolved) {
			t.Errorf("Resolve() error = %v, want ErrLibraryNotResolved", err)
		}
		if fb.calls != 0 {
			t.Errorf("boundary called %d times, want 0", fb.calls)
		}
	})
}

func TestResolve_WithTimeout(t *testing.T) {
	bb := &blockingBoundary{}
	r := New(bb, nil, nil).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), models.LibraryQuery{RawName: "slowlib", Page: 1})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Resolve() took %v, want bounded by timeout", elapsed)
	}
	if !bb.deadline {
		t.Error("boundary context has no deadline")
	}
	if !errors.Is(err, ErrLibraryNotResolved) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Resolve() error = %v, want not-resolved wrapping deadline exceeded", err)
	}
	if bb.calls != 1 {
		t.Errorf("boundary called %d times, want 1", bb.calls)
	}
}
