package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/notioncms/internal/content"
)

// HTMLParser handles HTML files, including pages written by the renderer.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	props := content.Properties{}
	if title := findTitle(doc); title != "" {
		props["Title"] = content.Title{Spans: []content.Span{{Text: title}}}
	}

	w := &htmlWalker{}
	if body := findBody(doc); body != nil {
		w.walk(body)
	} else {
		w.walk(doc)
	}

	return &Source{
		Page:   newPage(filename, props),
		Blocks: blockIDs(w.blocks),
	}, nil
}

type htmlWalker struct {
	blocks []content.Block
}

func (w *htmlWalker) emit(b content.Block) {
	w.blocks = append(w.blocks, b)
}

func (w *htmlWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if level := headingLevel(n.Data); level > 0 {
			w.emit(content.Block{Type: headingType(level), RichText: spansOf(n)})
			return
		}

		switch n.Data {
		case "script", "style", "nav", "footer", "header", "title", "head":
			return
		case "p":
			if spans := spansOf(n); len(spans) > 0 {
				w.emit(content.Block{Type: content.BlockParagraph, RichText: spans})
			}
			return
		case "blockquote":
			w.emit(content.Block{Type: content.BlockQuote, RichText: spansOf(n)})
			return
		case "hr":
			w.emit(content.Block{Type: content.BlockDivider})
			return
		case "ul", "ol":
			itemType := content.BlockBulletedListItem
			if n.Data == "ol" {
				itemType = content.BlockNumberedListItem
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "li" {
					w.emit(content.Block{Type: itemType, RichText: spansOf(c)})
				}
			}
			return
		case "pre":
			code := n
			if c := firstElement(n, "code"); c != nil {
				code = c
			}
			w.emit(content.Block{
				Type:     content.BlockCode,
				Language: codeLanguage(code),
				RichText: []content.Span{{Text: strings.Trim(rawText(code), "\n")}},
			})
			return
		case "figure", "img":
			if b, ok := imageBlock(n); ok {
				w.emit(b)
			}
			return
		case "div":
			if hasClass(n, "callout") {
				w.emit(calloutBlock(n))
				return
			}
		case "table":
			w.emit(content.Block{Type: "table"})
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			// Bare text between blocks becomes its own paragraph.
			w.emit(content.Block{Type: content.BlockParagraph, RichText: []content.Span{{Text: strings.TrimSpace(c.Data)}}})
		}
		if c.Type == html.ElementNode {
			w.walk(c)
		}
	}
}

func calloutBlock(n *html.Node) content.Block {
	b := content.Block{Type: content.BlockCallout}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch {
		case hasClass(c, "callout-icon"):
			b.Icon = textContent(c)
		case hasClass(c, "callout-content"):
			b.RichText = spansOf(c)
		}
	}
	if b.RichText == nil {
		b.RichText = spansOf(n)
	}
	return b
}

func imageBlock(n *html.Node) (content.Block, bool) {
	img := n
	if n.Data != "img" {
		img = firstElement(n, "img")
	}
	if img == nil {
		return content.Block{}, false
	}
	src := attrValue(img, "src")
	if src == "" {
		return content.Block{}, false
	}
	caption := attrValue(img, "alt")
	if fc := firstElement(n, "figcaption"); fc != nil {
		caption = textContent(fc)
	}
	image := &content.Image{URL: src, External: true}
	if caption != "" {
		image.Caption = []content.Span{{Text: caption}}
	}
	return content.Block{Type: content.BlockImage, Image: image}, true
}

// spansOf reads the inline content of n into spans.
func spansOf(n *html.Node) []content.Span {
	var sb spanBuilder
	collectInline(&sb, n, content.Annotations{}, "")
	return sb.result()
}

func collectInline(sb *spanBuilder, n *html.Node, ann content.Annotations, href string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			sb.add(collapseSpace(c.Data), ann, href)
		case html.ElementNode:
			inner, link := ann, href
			switch c.Data {
			case "strong", "b":
				inner.Bold = true
			case "em", "i":
				inner.Italic = true
			case "s", "del", "strike":
				inner.Strikethrough = true
			case "u":
				inner.Underline = true
			case "code":
				inner.Code = true
			case "a":
				link = attrValue(c, "href")
			case "br":
				sb.add("\n", ann, href)
				continue
			case "span":
				for _, cls := range strings.Fields(attrValue(c, "class")) {
					if color, ok := strings.CutPrefix(cls, "color-"); ok {
						inner.Color = color
					}
				}
			case "script", "style":
				continue
			}
			collectInline(sb, c, inner, link)
		}
	}
}

// collapseSpace folds whitespace runs the way a browser would.
func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func codeLanguage(n *html.Node) string {
	for _, cls := range strings.Fields(attrValue(n, "class")) {
		if lang, ok := strings.CutPrefix(cls, "language-"); ok {
			return lang
		}
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func firstElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// rawText returns the text under n without trimming.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(rawText(n))
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
