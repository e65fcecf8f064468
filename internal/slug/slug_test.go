package slug

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intro", "intro"},
		{"Генерация видео", "генерация-видео"},
		{"  Hello,   World!  ", "hello-world"},
		{"Node.js -- tips", "node.js-tips"},
		{"Ёлки и палки", "ёлки-и-палки"},
		{"C++ / C#", "c-c"},
		{"---", ""},
		{"日本語", ""},
		{"ªb ʰx", "b-x"},
		{"Version 2.0 release", "version-2.0-release"},
	}
	for _, tt := range tests {
		if got := Make(tt.in); got != tt.want {
			t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMakeAlphabet(t *testing.T) {
	valid := regexp.MustCompile(`^([\p{Ll}0-9.]+(-[\p{Ll}0-9.]+)*)?$`)
	inputs := []string{
		"Hello World", " - leading", "trailing - ", "a  --  b", "Tab\tand\nnewline",
		"ÀÉÎ õü", "ПРИВЕТ мир!", "emoji 🚀 rocket", "under_score", "(parens) [brackets]",
		"ªb ʰx", "modifier ˢ letters",
	}
	for _, in := range inputs {
		got := Make(in)
		if !valid.MatchString(got) {
			t.Errorf("Make(%q) = %q has invalid shape", in, got)
		}
		if again := Make(in); again != got {
			t.Errorf("Make(%q) not deterministic: %q vs %q", in, got, again)
		}
	}
}

func TestRegistryUnique(t *testing.T) {
	r := NewRegistry()
	got := []string{r.Unique("Intro"), r.Unique("Intro"), r.Unique("Intro"), r.Unique("!!!")}
	want := []string{"intro", "intro-1", "intro-2", "section"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryReserve(t *testing.T) {
	r := NewRegistry()
	r.Reserve("intro")
	r.Reserve("intro-1")
	if got := r.Unique("Intro"); got != "intro-2" {
		t.Errorf("got %q, want %q", got, "intro-2")
	}
}

func TestHeadingIDsUseText(t *testing.T) {
	md := goldmark.New(goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(HeadingIDs{}, 100)),
	))
	src := "## [Chatbots](https://x.com/a)\n\n## *Intro* to `Go`\n\n## Intro to Go\n\n### <b>Raw</b> html\n"
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<h2 id="chatbots">`,
		`<h2 id="intro-to-go">`,
		`<h2 id="intro-to-go-1">`,
		`<h3 id="raw-html">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
