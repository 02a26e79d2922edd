package frontmatter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode_OrderAndBlankLine(t *testing.T) {
	got := Encode([]Field{{"id", "w1"}, {"title", "Hello"}}, "Body", WithBlankLine())
	want := "---\nid: w1\ntitle: Hello\n---\n\nBody\n"
	if string(got) != want {
		t.Errorf("encode = %q, want %q", got, want)
	}
}

func TestEncode_NoBlankLine(t *testing.T) {
	got := Encode([]Field{{"title", "Hello"}}, "Body")
	want := "---\ntitle: Hello\n---\nBody\n"
	if string(got) != want {
		t.Errorf("encode = %q, want %q", got, want)
	}
}

func TestDecode_FrontmatterAndBody(t *testing.T) {
	doc, err := Decode([]byte("---\nid: w1\ntitle: Hello\n---\n\n  Some body.\n\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := doc.String("title"); v != "Hello" {
		t.Errorf("title = %q", v)
	}
	if doc.Body != "Some body." {
		t.Errorf("body = %q", doc.Body)
	}
	if diff := cmp.Diff([]string{"id", "title"}, doc.Keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestDecode_NoFrontmatter(t *testing.T) {
	doc, err := Decode([]byte("just some text\n"))
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Fatalf("err = %v, want ErrNoFrontmatter", err)
	}
	if doc == nil || doc.Body != "just some text" {
		t.Errorf("doc = %+v", doc)
	}
	if _, ok := doc.String("title"); ok {
		t.Error("expected no metadata")
	}
}

func TestDecode_Unterminated(t *testing.T) {
	_, err := Decode([]byte("---\ntitle: x\nbody without close\n"))
	if !errors.Is(err, ErrUnterminated) {
		t.Fatalf("err = %v, want ErrUnterminated", err)
	}
}

func TestDecode_LeadingTextAndBlankLines(t *testing.T) {
	doc, err := Decode([]byte("preamble\n---\n\n\ntitle: T\n---\nbody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := doc.String("title"); v != "T" {
		t.Errorf("title = %q", v)
	}
	if doc.Body != "body" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestDecode_CRLF(t *testing.T) {
	doc, err := Decode([]byte("---\r\ntitle: Win\r\n---\r\nbody\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := doc.String("title"); v != "Win" {
		t.Errorf("title = %q", v)
	}
}

func TestDecode_IgnoresLinesWithoutColon(t *testing.T) {
	doc, err := Decode([]byte("---\ngarbage line\n: no key\ntitle: ok\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Meta) != 1 {
		t.Errorf("meta = %v, want only title", doc.Meta)
	}
	if doc.Body != "" {
		t.Errorf("body = %q, want empty", doc.Body)
	}
}

func TestDecode_MissingVersusEmpty(t *testing.T) {
	doc, err := Decode([]byte("---\ncountry: \ntitle: x\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := doc.String("country"); !ok || v != "" {
		t.Errorf("country = %q, %v; want present and empty", v, ok)
	}
	if _, ok := doc.String("link"); ok {
		t.Error("link should be absent")
	}
}

func TestDocument_Int(t *testing.T) {
	doc, _ := Decode([]byte("---\na: 12\nb: twelve\nc: 1700000000000\n---\n"))
	if n, ok := doc.Int("a"); !ok || n != 12 {
		t.Errorf("a = %d, %v", n, ok)
	}
	if _, ok := doc.Int("b"); ok {
		t.Error("b should not parse")
	}
	if _, ok := doc.Int("missing"); ok {
		t.Error("missing should not parse")
	}
	if n, ok := doc.Int64("c"); !ok || n != 1700000000000 {
		t.Errorf("c = %d, %v", n, ok)
	}
}

func TestEscape_RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain",
		"Re:Zero",
		`back\slash`,
		`trailing\`,
		"multi\nline\r\nvalue",
		`\: already looks escaped`,
		`\n literal`,
		"  padded  ",
		"\tJP",
		"Alt; ",
		" ",
		"\u00a0nbsp\u00a0",
		"x \\",
		"\n leading break",
	}
	for _, in := range cases {
		esc := Escape(in)
		for _, c := range esc {
			if c == '\n' || c == '\r' {
				t.Errorf("escaped %q still contains a line break: %q", in, esc)
			}
		}
		if got := Unescape(esc); got != in {
			t.Errorf("round trip %q -> %q -> %q", in, esc, got)
		}
	}
}

func TestUnescape_UnknownSequenceKept(t *testing.T) {
	if got := Unescape(`C:\Users\x`); got != `C:\Users\x` {
		t.Errorf("got %q", got)
	}
}

func TestUnescape_WhitespaceEscapesOnlyAtEdges(t *testing.T) {
	tests := map[string]string{
		`C\:\temp`: `C:\temp`,
		`a\sb`:     `a\sb`,
		`\sa\sb\s`: ` a\sb `,
		`\tJP`:     "\tJP",
		`\u00A0x`:  "\u00a0x",
		`\u0041x`:  `\u0041x`,
	}
	for in, want := range tests {
		if got := Unescape(in); got != want {
			t.Errorf("Unescape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeDecode_EdgeWhitespace(t *testing.T) {
	fields := []Field{
		{"title", "  Padded  "},
		{"country", "\tJP"},
		{"otherTitle", "Alt; "},
		{"blank", "   "},
	}
	doc, err := Decode(Encode(fields, "body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range fields {
		if v, _ := doc.String(f.Key); v != f.Value {
			t.Errorf("%s = %q, want %q", f.Key, v, f.Value)
		}
	}
}

func TestEncodeDecode_ValueWithColonAndBackslash(t *testing.T) {
	title := `Steins;Gate: 0 \ director's cut`
	data := Encode([]Field{{"title", title}}, "")
	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := doc.String("title"); v != title {
		t.Errorf("title = %q, want %q", v, title)
	}
}
