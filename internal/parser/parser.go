// Package parser turns local files into the same page and block shapes the
// remote store produces, so they can be previewed without a credential.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
)

// Source is a parsed local document.
type Source struct {
	Page   content.Page
	Blocks []content.Block
}

// Title returns the page title, falling back to the file name.
func (s *Source) Title() string {
	return s.Page.Properties.PageTitle()
}

// Document normalizes the blocks and carries the title over.
func (s *Source) Document() doctree.Document {
	doc := doctree.Normalize(s.Blocks)
	doc.Title = s.Title()
	return doc
}

// Parser converts raw document bytes into a Source.
type Parser interface {
	Parse(r io.Reader, filename string) (*Source, error)
}

// SupportedExtensions lists file extensions that can be previewed.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".txt":      true,
	".pdf":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newPage builds a page whose id is stable for a given file name.
func newPage(filename string, props content.Properties) content.Page {
	if props == nil {
		props = content.Properties{}
	}
	if !hasTitle(props) {
		if name := baseName(filename); name != "" {
			props["Title"] = content.Title{Spans: []content.Span{{Text: name}}}
		}
	}
	return content.Page{
		ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filename)).String(),
		URL:        "file://" + filename,
		Properties: props,
	}
}

func hasTitle(props content.Properties) bool {
	for _, p := range props {
		if p.Kind() == content.KindTitle {
			return true
		}
	}
	return false
}

func baseName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// spanBuilder accumulates spans, merging neighbours that share formatting.
type spanBuilder struct {
	spans []content.Span
}

func (b *spanBuilder) add(text string, ann content.Annotations, href string) {
	if text == "" {
		return
	}
	if n := len(b.spans); n > 0 {
		last := &b.spans[n-1]
		if last.Annotations == ann && last.Href == href {
			last.Text += text
			return
		}
	}
	b.spans = append(b.spans, content.Span{Text: text, Annotations: ann, Href: href})
}

// result returns the spans with outer whitespace trimmed.
func (b *spanBuilder) result() []content.Span {
	spans := b.spans
	for len(spans) > 0 {
		spans[0].Text = strings.TrimLeft(spans[0].Text, " \t\n")
		if spans[0].Text != "" {
			break
		}
		spans = spans[1:]
	}
	for len(spans) > 0 {
		last := &spans[len(spans)-1]
		last.Text = strings.TrimRight(last.Text, " \t\n")
		if last.Text != "" {
			break
		}
		spans = spans[:len(spans)-1]
	}
	if len(spans) == 0 {
		return nil
	}
	return spans
}

func headingType(level int) content.BlockType {
	switch {
	case level <= 1:
		return content.BlockHeading1
	case level == 2:
		return content.BlockHeading2
	}
	return content.BlockHeading3
}

// blockIDs numbers blocks in document order.
func blockIDs(blocks []content.Block) []content.Block {
	for i := range blocks {
		if blocks[i].ID == "" {
			blocks[i].ID = fmt.Sprintf("b%d", i+1)
		}
	}
	return blocks
}
