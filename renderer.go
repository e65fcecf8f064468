package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/erkantaylan/mdview/internal/enhance"
	"github.com/erkantaylan/mdview/internal/slug"
	"github.com/erkantaylan/mdview/internal/source"
)

// Page is one rendered load of the document.
type Page struct {
	Title string
	enhance.Document
	Failed bool
}

// Renderer fetches markdown, converts it to HTML and runs the enhancement
// pipeline over the result.
type Renderer struct {
	md   goldmark.Markdown
	msgs enhance.Messages
	log  *slog.Logger
}

func NewRenderer(style string, msgs enhance.Messages, log *slog.Logger) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // GitHub Flavored Markdown (tables, strikethrough, autolinks, task lists)
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(),
			),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(slug.HeadingIDs{}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(), // Allow raw HTML in markdown
		),
	)

	return &Renderer{md: md, msgs: msgs, log: log}
}

type frontMatter struct {
	Title string `yaml:"title" toml:"title"`
}

// Render fetches src and enhances it. On failure the returned page carries
// the localized failure document and the error is returned alongside.
func (r *Renderer) Render(ctx context.Context, src source.Source) (Page, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return r.failed(src.Name()), err
	}
	page, err := r.Convert(data, src.Name())
	if err != nil {
		return r.failed(src.Name()), err
	}
	return page, nil
}

// Convert renders markdown bytes. fallbackTitle is used when the document
// has no front matter title.
func (r *Renderer) Convert(data []byte, fallbackTitle string) (Page, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		r.log.Warn("ignoring malformed front matter", "error", err)
		body, meta = data, frontMatter{}
	}

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return Page{}, fmt.Errorf("converting markdown: %w", err)
	}

	doc, err := enhance.Process(buf.String(), r.msgs)
	if err != nil {
		return Page{}, err
	}

	title := meta.Title
	if title == "" {
		title = fallbackTitle
	}
	return Page{Title: title, Document: doc}, nil
}

func (r *Renderer) failed(title string) Page {
	return Page{Title: title, Document: enhance.Failed(r.msgs), Failed: true}
}
