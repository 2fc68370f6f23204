package assembler

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/extractors"
)

func blocks(n int) []string {
	var out []string
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("```ts\nconst step%d = %d\n```", i, i))
	}
	return out
}

func TestAssemble_CodeModeScenario(t *testing.T) {
	bs := blocks(7)
	text := "# Guide\n\n" + strings.Join(bs, "\n\nSome prose.\n\n") +
		"\n\nNote: sessions expire.\n\nWarning: rotate secrets.\n"

	for _, concurrent := range []bool{false, true} {
		t.Run(fmt.Sprintf("concurrent=%v", concurrent), func(t *testing.T) {
			d := New(Options{Concurrent: concurrent}).Assemble(models.RawDocument{Text: text, Present: true}, models.ModeCode)

			labels := d.Labels()
			want := []string{LabelCodeExamples, LabelNotes}
			if strings.Join(labels, ",") != strings.Join(want, ",") {
				t.Fatalf("labels = %v, want %v", labels, want)
			}
			code := d.Sections[0]
			if len(code.Items) != 5 {
				t.Fatalf("code blocks = %d, want 5", len(code.Items))
			}
			for i := range code.Items {
				if code.Items[i] != bs[i] {
					t.Errorf("block %d = %q, want %q", i, code.Items[i], bs[i])
				}
			}
			notes := d.Sections[1].Items
			if len(notes) != 2 || notes[0] != "Note: sessions expire." || notes[1] != "Warning: rotate secrets." {
				t.Errorf("notes = %q", notes)
			}
			if d.UsedTruncation || d.UsedFallback {
				t.Errorf("UsedTruncation=%v UsedFallback=%v, want both false", d.UsedTruncation, d.UsedFallback)
			}
			if strings.Contains(d.Render(), TruncationMarker) {
				t.Error("rendered digest contains truncation marker")
			}
		})
	}
}

func TestAssemble_OmitsEmptySections(t *testing.T) {
	text := "function createAuth(options) {\n  return options\n}\n\nNothing else here."
	d := New(Options{}).Assemble(models.RawDocument{Text: text, Present: true}, models.ModeCode)

	if got := d.Labels(); len(got) != 1 || got[0] != LabelSignatures {
		t.Fatalf("labels = %v, want only %q", got, LabelSignatures)
	}
	if strings.Contains(d.Render(), "## "+LabelCodeExamples) {
		t.Error("rendered digest has an empty Code Examples header")
	}
}

func TestAssemble_InfoMode(t *testing.T) {
	long := strings.Repeat("Better Auth keeps the session in a signed cookie and the database. ", 2)
	text := strings.Join([]string{
		"# Sessions",
		long,
		"Too short.",
		blocks(1)[0],
		blocks(2)[1],
		blocks(3)[2],
		"> **Tip:** enable cookie caching.",
	}, "\n\n")

	d := New(Options{}).Assemble(models.RawDocument{Text: text, Present: true}, models.ModeInfo)

	want := []string{LabelExamples, LabelOverview, LabelNotes}
	if strings.Join(d.Labels(), ",") != strings.Join(want, ",") {
		t.Fatalf("labels = %v, want %v", d.Labels(), want)
	}
	if n := len(d.Sections[0].Items); n != 2 {
		t.Errorf("examples = %d, want 2", n)
	}
	if got := d.Sections[1].Items; len(got) != 1 || got[0] != strings.TrimSpace(long) {
		t.Errorf("overview = %q", got)
	}
}

func TestAssemble_Truncation(t *testing.T) {
	text := strings.Repeat("plain words without structure ", 40)
	d := New(Options{}).Assemble(models.RawDocument{Text: text, Present: true}, models.ModeCode)

	if !d.UsedTruncation {
		t.Fatal("UsedTruncation = false, want true")
	}
	if len(d.Sections) != 1 || d.Sections[0].Label != LabelExcerpt {
		t.Fatalf("sections = %+v", d.Sections)
	}
	out := d.Sections[0].Items[0]
	if !strings.HasSuffix(out, TruncationMarker) {
		t.Errorf("excerpt does not end with marker: %q", out)
	}
	head := strings.TrimSuffix(out, "\n\n"+TruncationMarker)
	if n := utf8.RuneCountInString(head); n > DefaultTruncateChars {
		t.Errorf("excerpt head = %d runes, want <= %d", n, DefaultTruncateChars)
	}
	if d.IsEmpty() {
		t.Error("digest is empty")
	}
}

func TestAssemble_EmptyDocument(t *testing.T) {
	for _, text := range []string{"", "  \n\t\n"} {
		d := New(Options{}).Assemble(models.RawDocument{Text: text, Present: true}, models.ModeInfo)
		if d.IsEmpty() || !d.UsedTruncation {
			t.Fatalf("Assemble(%q) = %+v, want non-empty truncation digest", text, d)
		}
		if !strings.Contains(d.Render(), EmptyDocumentNotice) {
			t.Errorf("Assemble(%q) missing empty-document notice", text)
		}
	}
}

func TestAssemble_CustomMatcherAndCaps(t *testing.T) {
	m, err := extractors.NewSignatureMatcher(nil, []string{"auth.api."})
	if err != nil {
		t.Fatal(err)
	}
	text := "```ts\nawait auth.api.signInEmail({ body })\n```\n"
	d := New(Options{Matcher: m, CodeCaps: Caps{Signatures: 1}}).Assemble(models.RawDocument{Text: text, Present: true}, models.ModeCode)

	if got := d.Labels(); len(got) != 1 || got[0] != LabelSignatures {
		t.Fatalf("labels = %v, want only signatures (code blocks and notes capped to 0)", got)
	}
	if d.Sections[0].Items[0] != "await auth.api.signInEmail({ body })" {
		t.Errorf("signature = %q", d.Sections[0].Items[0])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short text kept whole", in: "hello", limit: 10, want: "hello\n\n" + TruncationMarker},
		{name: "cut at limit", in: "abcdefghij", limit: 4, want: "abcd\n\n" + TruncationMarker},
		{name: "rune safe", in: "héllo wörld", limit: 2, want: "hé\n\n" + TruncationMarker},
		{name: "trailing space trimmed", in: "ab  cd", limit: 3, want: "ab\n\n" + TruncationMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.limit); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}
