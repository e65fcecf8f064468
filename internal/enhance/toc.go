package enhance

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TocEntry links to one top-level section.
type TocEntry struct {
	Label    string `json:"label"`
	TargetID string `json:"target_id"`
	Active   bool   `json:"active,omitempty"`
}

// BuildTOC lists every h2 under root in document order.
func BuildTOC(root *html.Node) []TocEntry {
	tops := headings(root, true)
	entries := make([]TocEntry, 0, len(tops))
	for _, h := range tops {
		entries = append(entries, TocEntry{
			Label:    textContent(h),
			TargetID: attr(h, "id"),
		})
	}
	return entries
}

// RenderTOC renders the title and navigation list for entries. The output
// always replaces whatever TOC markup was there before.
func RenderTOC(entries []TocEntry, msgs Messages) (string, error) {
	wrapper := element(atom.Div)
	title := element(atom.H2)
	title.AppendChild(text(msgs.TOCTitle))
	wrapper.AppendChild(title)

	nav := element(atom.Nav)
	for _, e := range entries {
		attrs := []html.Attribute{{Key: "href", Val: "#" + e.TargetID}}
		if e.Active {
			attrs = append(attrs, html.Attribute{Key: "class", Val: "active"})
		}
		link := element(atom.A, attrs...)
		link.AppendChild(text(e.Label))
		nav.AppendChild(link)
	}

	var buf bytes.Buffer
	for _, n := range []*html.Node{wrapper, nav} {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render toc: %w", err)
		}
	}
	return buf.String(), nil
}
