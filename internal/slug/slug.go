// Package slug derives URL-safe heading identifiers.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Fallback is used when a title has no characters that survive slugging.
const Fallback = "section"

// Make lower-cases text and keeps only Latin or Cyrillic letters, ASCII
// digits, hyphens and periods. Whitespace runs become a single hyphen,
// hyphen runs collapse, and leading/trailing hyphens are trimmed. The result
// may be empty.
func Make(text string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
			continue
		case keep(r):
		default:
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}
	return b.String()
}

func keep(r rune) bool {
	if r >= '0' && r <= '9' || r == '.' {
		return true
	}
	if !unicode.IsLower(r) {
		return false
	}
	return unicode.In(r, unicode.Latin, unicode.Cyrillic)
}

// Registry hands out unique slugs within one document.
type Registry struct {
	used     map[string]bool
	suffixes map[string]int
}

func NewRegistry() *Registry {
	return &Registry{used: make(map[string]bool), suffixes: make(map[string]int)}
}

// Unique slugs text and suffixes -1, -2, ... on collisions.
func (r *Registry) Unique(text string) string {
	base := Make(text)
	if base == "" {
		base = Fallback
	}
	id := base
	for r.used[id] {
		r.suffixes[base]++
		id = base + "-" + strconv.Itoa(r.suffixes[base])
	}
	r.used[id] = true
	return id
}

// Reserve records an id assigned elsewhere so later slugs avoid it.
func (r *Registry) Reserve(id string) {
	r.used[id] = true
}

// HeadingIDs is a goldmark AST transformer that ids every heading from its
// text content, so link or emphasis markup never leaks into the slug.
// Ids already set on a heading are kept.
type HeadingIDs struct{}

func (HeadingIDs) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	src := reader.Source()
	var hs []*ast.Heading
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			hs = append(hs, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	reg := NewRegistry()
	for _, h := range hs {
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				reg.Reserve(string(b))
			}
		}
	}
	for _, h := range hs {
		if _, ok := h.AttributeString("id"); ok {
			continue
		}
		h.SetAttributeString("id", []byte(reg.Unique(HeadingText(h, src))))
	}
}

// HeadingText concatenates the literal text below n. Raw HTML tags are skipped.
func HeadingText(n ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
