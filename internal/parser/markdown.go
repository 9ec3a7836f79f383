package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/notioncms/internal/content"
)

// MarkdownParser handles Markdown files with optional YAML front matter.
type MarkdownParser struct{}

// ParseMarkdown parses a Markdown document into a page and its blocks.
func ParseMarkdown(r io.Reader, filename string) (content.Page, []content.Block, error) {
	src, err := (&MarkdownParser{}).Parse(r, filename)
	if err != nil {
		return content.Page{}, nil, err
	}
	return src.Page, src.Blocks, nil
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Source, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(body))

	w := &mdWalker{src: body}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
	}

	return &Source{
		Page:   newPage(filename, metaProperties(meta)),
		Blocks: blockIDs(w.blocks),
	}, nil
}

type mdWalker struct {
	src    []byte
	blocks []content.Block
}

func (w *mdWalker) emit(b content.Block) {
	w.blocks = append(w.blocks, b)
}

func (w *mdWalker) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		w.emit(content.Block{Type: headingType(node.Level), RichText: w.spans(node)})

	case *ast.Paragraph, *ast.TextBlock:
		if img, ok := soleImage(n); ok {
			w.emit(content.Block{Type: content.BlockImage, Image: &content.Image{
				URL:      string(img.Destination),
				External: true,
				Caption:  w.spans(img),
			}})
			return
		}
		if spans := w.spans(n); len(spans) > 0 {
			w.emit(content.Block{Type: content.BlockParagraph, RichText: spans})
		}

	case *ast.List:
		itemType := content.BlockBulletedListItem
		if node.IsOrdered() {
			itemType = content.BlockNumberedListItem
		}
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			w.listItem(item, itemType)
		}

	case *ast.Blockquote:
		var sb spanBuilder
		first := true
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if !first {
				sb.add("\n", content.Annotations{}, "")
			}
			first = false
			w.inlines(&sb, c, content.Annotations{}, "")
		}
		w.emit(content.Block{Type: content.BlockQuote, RichText: sb.result()})

	case *ast.FencedCodeBlock:
		w.emit(content.Block{
			Type:     content.BlockCode,
			Language: string(node.Language(w.src)),
			RichText: []content.Span{{Text: w.lines(n)}},
		})

	case *ast.CodeBlock:
		w.emit(content.Block{Type: content.BlockCode, RichText: []content.Span{{Text: w.lines(n)}}})

	case *ast.ThematicBreak:
		w.emit(content.Block{Type: content.BlockDivider})

	case *east.Table:
		// Kept so the normalizer reports it as unsupported.
		w.emit(content.Block{Type: "table"})

	case *ast.HTMLBlock:
		w.emit(content.Block{Type: "html"})
	}
}

// listItem emits the item's own text, then any nested blocks after it.
func (w *mdWalker) listItem(item ast.Node, itemType content.BlockType) {
	b := content.Block{Type: itemType}
	c := item.FirstChild()
	if c != nil && (c.Kind() == ast.KindTextBlock || c.Kind() == ast.KindParagraph) {
		b.RichText = w.spans(c)
		c = c.NextSibling()
	}
	b.HasChildren = c != nil
	w.emit(b)
	for ; c != nil; c = c.NextSibling() {
		w.block(c)
	}
}

func soleImage(n ast.Node) (*ast.Image, bool) {
	if n.ChildCount() != 1 {
		return nil, false
	}
	img, ok := n.FirstChild().(*ast.Image)
	return img, ok
}

func (w *mdWalker) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(w.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (w *mdWalker) spans(n ast.Node) []content.Span {
	var sb spanBuilder
	w.inlines(&sb, n, content.Annotations{}, "")
	return sb.result()
}

// inlines collects the inline children of n into sb.
func (w *mdWalker) inlines(sb *spanBuilder, n ast.Node, ann content.Annotations, href string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			sb.add(string(node.Segment.Value(w.src)), ann, href)
			switch {
			case node.HardLineBreak():
				sb.add("\n", ann, href)
			case node.SoftLineBreak():
				sb.add(" ", ann, href)
			}
		case *ast.String:
			sb.add(string(node.Value), ann, href)
		case *ast.CodeSpan:
			code := ann
			code.Code = true
			var buf strings.Builder
			for t := node.FirstChild(); t != nil; t = t.NextSibling() {
				if tn, ok := t.(*ast.Text); ok {
					buf.Write(tn.Segment.Value(w.src))
				}
			}
			sb.add(buf.String(), code, href)
		case *ast.Emphasis:
			inner := ann
			if node.Level >= 2 {
				inner.Bold = true
			} else {
				inner.Italic = true
			}
			w.inlines(sb, node, inner, href)
		case *east.Strikethrough:
			inner := ann
			inner.Strikethrough = true
			w.inlines(sb, node, inner, href)
		case *ast.Link:
			w.inlines(sb, node, ann, string(node.Destination))
		case *ast.AutoLink:
			sb.add(string(node.Label(w.src)), ann, string(node.URL(w.src)))
		case *ast.Image:
			// Inline images keep their alt text, linked to the image.
			w.inlines(sb, node, ann, string(node.Destination))
		case *ast.RawHTML, *east.TaskCheckBox:
		default:
			// Paragraphs inside blockquotes and other containers.
			w.inlines(sb, c, ann, href)
		}
	}
}

// metaProperties maps front matter values onto typed properties.
func metaProperties(meta map[string]any) content.Properties {
	props := make(content.Properties, len(meta))
	for key, v := range meta {
		if p := metaProperty(key, v); p != nil {
			props[key] = p
		}
	}
	return props
}

func metaProperty(key string, v any) content.Property {
	lower := strings.ToLower(key)
	switch val := v.(type) {
	case bool:
		return content.Checkbox{Checked: val}
	case int:
		return content.Number{Value: float64(val), Set: true}
	case int64:
		return content.Number{Value: float64(val), Set: true}
	case uint64:
		if val > math.MaxInt64 {
			return content.Number{Value: math.MaxInt64, Set: true}
		}
		return content.Number{Value: float64(val), Set: true}
	case float64:
		return content.Number{Value: val, Set: true}
	case time.Time:
		return content.Date{Start: formatDate(val), Set: true}
	case string:
		return stringProperty(lower, val)
	case []any:
		var files []content.File
		for _, item := range val {
			s, ok := item.(string)
			if !ok || !isURL(s) {
				return content.Unsupported{Type: "multi_select"}
			}
			files = append(files, content.File{URL: s, External: true})
		}
		return content.Files{Files: files}
	case nil:
		return nil
	}
	return content.Unsupported{Type: fmt.Sprintf("%T", v)}
}

func stringProperty(lowerKey, s string) content.Property {
	spans := []content.Span{{Text: s}}
	switch {
	case lowerKey == "title":
		return content.Title{Spans: spans}
	case isURL(s) && (strings.Contains(lowerKey, "image") || strings.Contains(lowerKey, "cover")):
		return content.Files{Files: []content.File{{URL: s, External: true}}}
	case isURL(s):
		return content.URL{Value: s, Set: true}
	case (strings.Contains(lowerKey, "date") || strings.HasSuffix(lowerKey, "at")) && !content.ParseDate(s).IsZero():
		return content.Date{Start: s, Set: true}
	case strings.HasPrefix(lowerKey, "category") || strings.HasPrefix(lowerKey, "registrationtype"):
		return content.Select{Name: s, Set: s != ""}
	}
	return content.RichText{Spans: spans}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
