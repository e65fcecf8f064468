// Package enhance turns rendered markdown HTML into a navigable page:
// anchored headings, category call-outs and a table of contents.
package enhance

import (
	"fmt"
	"html"
)

// Document is the enhanced page content.
type Document struct {
	HTML    string     `json:"html"`
	TOC     []TocEntry `json:"toc"`
	TOCHTML string     `json:"toc_html"`
}

// Process runs the heading, annotation and TOC passes, in that order, over
// a rendered HTML fragment.
func Process(fragment string, msgs Messages) (Document, error) {
	root, err := ParseFragment(fragment)
	if err != nil {
		return Document{}, err
	}

	EnhanceHeadings(root, msgs)
	Annotate(root)
	toc := BuildTOC(root)

	content, err := RenderChildren(root)
	if err != nil {
		return Document{}, err
	}
	tocHTML, err := RenderTOC(toc, msgs)
	if err != nil {
		return Document{}, err
	}
	return Document{HTML: content, TOC: toc, TOCHTML: tocHTML}, nil
}

// Failed is the document shown when the source could not be loaded: a
// single muted message and no table of contents.
func Failed(msgs Messages) Document {
	return Document{
		HTML: fmt.Sprintf(`<p class="muted">%s</p>`, html.EscapeString(msgs.LoadFailed)),
		TOC:  []TocEntry{},
	}
}
