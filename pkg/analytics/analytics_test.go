package analytics

import (
	"reflect"
	"testing"
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "stopwords dropped", text: "How do I use the session cookie", want: []string{"session", "cookie"}},
		{name: "punctuation and case", text: "Sessions, (sessions) OAuth!", want: []string{"sessions", "oauth"}},
		{name: "hyphenated word adds parts", text: "email-password", want: []string{"email-password", "email", "password"}},
		{name: "empty", text: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Terms(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two\n\tthree  "); got != 3 {
		t.Errorf("WordCount() = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(\"\") = %d, want 0", got)
	}
}

func TestTopWords(t *testing.T) {
	got := TopWords("session token session cookie token session", 2)
	want := []string{"session", "token"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopWords() = %q, want %q", got, want)
	}
}
