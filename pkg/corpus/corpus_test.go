package corpus

import (
	"strings"
	"testing"
	"testing/fstest"
)

func loadReference(t *testing.T) *Corpus {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return c
}

func TestDefault_LoadsEmbeddedEntries(t *testing.T) {
	c := loadReference(t)
	entries := c.Entries()
	if len(entries) == 0 {
		t.Fatal("Default() loaded no entries")
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			t.Errorf("entry %q has empty content", e.ID)
		}
		if !e.Category.Valid() {
			t.Errorf("entry %q has invalid category %q", e.ID, e.Category)
		}
	}
}

func TestLookup(t *testing.T) {
	c := loadReference(t)

	tests := []struct {
		name    string
		library string
		topic   string
		wantID  string
		wantHit bool
	}{
		{name: "sessions by name", library: "better-auth", topic: "sessions", wantID: "better-auth-sessions", wantHit: true},
		{name: "case insensitive", library: "Better-Auth", topic: "SESSION Cookie", wantID: "better-auth-sessions", wantHit: true},
		{name: "canonical id counts as library", library: "/better-auth/better-auth", topic: "two-factor authentication", wantID: "better-auth-plugins", wantHit: true},
		{name: "phrase keyword", library: "better-auth", topic: "how to sign in", wantID: "better-auth-email-password", wantHit: true},
		{name: "generic entry for any library", library: "react", topic: "installation", wantID: "general-getting-started", wantHit: true},
		{name: "other library does not see better-auth entries", library: "react", topic: "sessions", wantHit: false},
		{name: "no match", library: "better-auth", topic: "websockets", wantHit: false},
		{name: "empty topic", library: "better-auth", topic: "", wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Lookup(tt.library, tt.topic)
			if ok != tt.wantHit {
				t.Fatalf("Lookup(%q, %q) hit = %v, want %v (got %q)", tt.library, tt.topic, ok, tt.wantHit, got.ID)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("Lookup(%q, %q) = %q, want %q", tt.library, tt.topic, got.ID, tt.wantID)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	c := loadReference(t)

	entry, ok := c.Lookup("better-auth", "sessions")
	if !ok {
		t.Fatal("expected a sessions entry")
	}
	if got := c.Fallback("better-auth", "sessions"); got != entry.Content {
		t.Errorf("Fallback() did not return entry content verbatim")
	}
	if got := c.Fallback("better-auth", "websockets"); got != NoLocalReference {
		t.Errorf("Fallback() = %q, want NoLocalReference", got)
	}
}

func TestLookup_TieGoesToFirstEntry(t *testing.T) {
	fsys := fstest.MapFS{
		"idx.yaml": {Data: []byte(`entries:
  - id: first
    category: general
    file: a.md
    keywords: {widget: 1}
  - id: second
    category: general
    file: b.md
    keywords: {widget: 1}
`)},
		"a.md": {Data: []byte("A")},
		"b.md": {Data: []byte("B")},
	}
	c, err := Load(fsys, "idx.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, ok := c.Lookup("anything", "widget")
	if !ok || got.ID != "first" {
		t.Errorf("Lookup() = %q, %v, want first", got.ID, ok)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{name: "missing index", fsys: fstest.MapFS{}},
		{name: "bad yaml", fsys: fstest.MapFS{"idx.yaml": {Data: []byte("entries: [")}}},
		{name: "unknown category", fsys: fstest.MapFS{
			"idx.yaml": {Data: []byte("entries:\n  - id: x\n    category: astrology\n    file: x.md\n")},
			"x.md":     {Data: []byte("x")},
		}},
		{name: "missing document", fsys: fstest.MapFS{
			"idx.yaml": {Data: []byte("entries:\n  - id: x\n    category: general\n    file: x.md\n")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.fsys, "idx.yaml"); err == nil {
				t.Error("Load() should return error")
			}
		})
	}
}
