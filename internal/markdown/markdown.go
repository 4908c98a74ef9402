// Package markdown turns model output written in Markdown into HTML that is
// safe to embed in a page.
//
// Raw HTML found in the input is escaped and shown as text. It is never
// passed through and never silently dropped.
package markdown

import (
	"bytes"
	"html"
	"html/template"
	"io"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer is safe for concurrent use; the bluemonday policy is read-only
// once built and a parser is created per call.
type Renderer struct {
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Renderer{policy: policy}
}

// Render converts raw Markdown to sanitized HTML.
func (r *Renderer) Render(raw string) template.HTML {
	unsafe := ToHTML([]byte(raw))
	//nolint:gosec // output of the bluemonday policy
	return template.HTML(r.policy.Sanitize(unsafe))
}

// ToHTML renders Markdown with raw HTML nodes escaped. The result still needs
// a sanitizer before display; use Renderer.Render for that.
func ToHTML(md []byte) string {
	opts := mdhtml.RendererOptions{
		Flags:          mdhtml.Safelink | mdhtml.HrefTargetBlank | mdhtml.NofollowLinks | mdhtml.NoreferrerLinks | mdhtml.NoopenerLinks,
		RenderNodeHook: escapeRawHTML,
	}
	renderer := mdhtml.NewRenderer(opts)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

func escapeRawHTML(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	switch n := node.(type) {
	case *ast.HTMLBlock:
		if entering {
			io.WriteString(w, "<p>")
			io.WriteString(w, html.EscapeString(string(n.Literal)))
			io.WriteString(w, "</p>\n")
		}
		return ast.GoToNext, true
	case *ast.HTMLSpan:
		if entering {
			io.WriteString(w, html.EscapeString(string(n.Literal)))
		}
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}

func ToPlainText(md []byte) string {
	htmlContent := ToHTML(md)
	return html.UnescapeString(StripHTMLTags(htmlContent))
}

func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return result.String()
}
