// Package render writes normalized documents as HTML or Word files.
package render

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/richtext"
)

// DefaultCalloutIcon is shown on callouts without an emoji.
const DefaultCalloutIcon = "💡"

// HTML renders the document body as an HTML fragment.
func HTML(doc doctree.Document) (string, error) {
	var buf bytes.Buffer
	for _, n := range HTMLNodes(doc) {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

// HTMLPage writes a complete HTML document wrapping the body in <article>.
func HTMLPage(w io.Writer, doc doctree.Document) error {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(element(atom.Meta, attr("name", "viewport"), attr("content", "width=device-width, initial-scale=1")))
	if doc.Title != "" {
		title := element(atom.Title)
		title.AppendChild(text(doc.Title))
		head.AppendChild(title)
	}
	htmlEl.AppendChild(head)

	body := element(atom.Body)
	article := element(atom.Article)
	for _, n := range HTMLNodes(doc) {
		article.AppendChild(n)
	}
	body.AppendChild(article)
	htmlEl.AppendChild(body)
	root.AppendChild(htmlEl)

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("render html page: %w", err)
	}
	return nil
}

// HTMLNodes builds one detached node per document node.
func HTMLNodes(doc doctree.Document) []*html.Node {
	out := make([]*html.Node, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		switch n.Kind {
		case doctree.KindBulletedList, doctree.KindNumberedList:
			out = append(out, listNode(n))
		case doctree.KindBlock:
			if el := blockNode(*n.Block); el != nil {
				out = append(out, el)
			}
		}
	}
	return out
}

func listNode(n doctree.Node) *html.Node {
	tag := atom.Ul
	if n.Kind == doctree.KindNumberedList {
		tag = atom.Ol
	}
	list := element(tag)
	for _, item := range n.Items {
		li := element(atom.Li)
		appendSpans(li, item.RichText)
		list.AppendChild(li)
	}
	return list
}

func blockNode(b content.Block) *html.Node {
	switch b.Type {
	case content.BlockParagraph:
		return withSpans(element(atom.P), b.RichText)
	case content.BlockHeading1:
		return withSpans(element(atom.H1), b.RichText)
	case content.BlockHeading2:
		return withSpans(element(atom.H2), b.RichText)
	case content.BlockHeading3:
		return withSpans(element(atom.H3), b.RichText)
	case content.BlockQuote:
		return withSpans(element(atom.Blockquote), b.RichText)
	case content.BlockDivider:
		return element(atom.Hr)
	case content.BlockCallout:
		icon := b.Icon
		if icon == "" {
			icon = DefaultCalloutIcon
		}
		div := element(atom.Div, attr("class", "callout"))
		iconEl := element(atom.Span, attr("class", "callout-icon"))
		iconEl.AppendChild(text(icon))
		div.AppendChild(iconEl)
		div.AppendChild(withSpans(element(atom.Div, attr("class", "callout-content")), b.RichText))
		return div
	case content.BlockCode:
		pre := element(atom.Pre)
		code := element(atom.Code)
		if b.Language != "" {
			code.Attr = append(code.Attr, attr("class", "language-"+b.Language))
		}
		code.AppendChild(text(content.PlainText(b.RichText)))
		pre.AppendChild(code)
		return pre
	case content.BlockImage:
		if b.Image == nil || b.Image.URL == "" {
			return nil
		}
		caption := firstCaption(b.Image)
		fig := element(atom.Figure)
		fig.AppendChild(element(atom.Img,
			attr("src", b.Image.URL),
			attr("alt", caption),
			attr("loading", "lazy"),
		))
		if caption != "" {
			fc := element(atom.Figcaption)
			fc.AppendChild(text(caption))
			fig.AppendChild(fc)
		}
		return fig
	case content.BlockBulletedListItem, content.BlockNumberedListItem:
		// A list item outside a list node renders as its own one-item list.
		return listNode(doctree.Normalize([]content.Block{b}).Nodes[0])
	}
	return nil
}

// firstCaption returns the text of the caption's first span.
func firstCaption(img *content.Image) string {
	if len(img.Caption) == 0 {
		return ""
	}
	return img.Caption[0].Text
}

func withSpans(el *html.Node, spans []content.Span) *html.Node {
	appendSpans(el, spans)
	return el
}

func appendSpans(parent *html.Node, spans []content.Span) {
	for _, n := range richtext.Compose(spans) {
		parent.AppendChild(inlineNode(n))
	}
}

// inlineNode maps a composed wrapper chain onto nested inline elements.
func inlineNode(n *richtext.Node) *html.Node {
	var el *html.Node
	switch n.Kind {
	case richtext.Text:
		if n.Color == "" {
			return text(n.Text)
		}
		el = element(atom.Span, attr("class", "color-"+n.Color))
		el.AppendChild(text(n.Text))
		return el
	case richtext.Bold:
		el = element(atom.Strong)
	case richtext.Italic:
		el = element(atom.Em)
	case richtext.Strikethrough:
		el = element(atom.S)
	case richtext.Underline:
		el = element(atom.U)
	case richtext.Code:
		el = element(atom.Code)
	case richtext.Link:
		el = element(atom.A,
			attr("href", n.Href),
			attr("target", "_blank"),
			attr("rel", "noopener noreferrer"),
		)
	default:
		el = element(atom.Span)
	}
	if n.Child != nil {
		el.AppendChild(inlineNode(n.Child))
	}
	return el
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
