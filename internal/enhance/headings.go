package enhance

import (
	"github.com/erkantaylan/mdview/internal/slug"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	anchorClass = "anchor"
	anchorGlyph = "#"
)

// EnhanceHeadings gives every h2-h4 under root an id and appends a
// same-page anchor link. Ids already present are kept; the rest are slugged
// from the heading text, avoiding collisions with existing ids.
func EnhanceHeadings(root *html.Node, msgs Messages) {
	hs := headings(root, false)

	reg := slug.NewRegistry()
	for _, h := range hs {
		if id := attr(h, "id"); id != "" {
			reg.Reserve(id)
		}
	}

	for _, h := range hs {
		id := attr(h, "id")
		if id == "" {
			id = reg.Unique(textContent(h))
			setAttr(h, "id", id)
		}
		a := element(atom.A,
			html.Attribute{Key: "href", Val: "#" + id},
			html.Attribute{Key: "class", Val: anchorClass},
			html.Attribute{Key: "aria-label", Val: msgs.AnchorLabel},
		)
		a.AppendChild(text(anchorGlyph))
		h.AppendChild(a)
	}
}
