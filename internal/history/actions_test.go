package history

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	dbpkg "github.com/dtnitsch/llm-doc-digest/pkg/db"
)

func TestPrintRuns(t *testing.T) {
	savings := 75.0
	runs := []dbpkg.Run{
		{LibraryID: "/better-auth/better-auth", Topic: "sessions", Mode: "code", Outcome: "extracted",
			RawTokens: 400, FilteredTokens: 100, SavingsPercent: &savings, FilteredBytes: 1500,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Input: "nosuchlib", Mode: "info", Outcome: "unresolved"},
	}

	var buf bytes.Buffer
	PrintRuns(&buf, runs)
	out := buf.String()

	for _, want := range []string{"2026-01-02 03:04:05", "/better-auth/better-auth", "400 -> 100", "75.0%", "1.5 kB", "nosuchlib (unresolved)", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "fits", in: "short", n: 10, want: "short"},
		{name: "ascii", in: "/organisation/very-long-project-name", n: 16, want: "/organisation..."},
		{name: "multibyte fits by runes", in: "Sitzungsgrößen", n: 14, want: "Sitzungsgrößen"},
		{name: "multibyte cut on rune boundary", in: "セッションの有効期限と更新", n: 8, want: "セッション..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate() returned invalid UTF-8 %q", got)
			}
		})
	}
}
