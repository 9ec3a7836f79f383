package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/notioncms/internal/content"
)

// DOCXParser handles .docx files, including documents written by the renderer.
type DOCXParser struct{}

const docxMonoFont = "Courier New"

var numberedMarker = regexp.MustCompile(`^\d+\.\s`)

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Source, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	props := content.Properties{}
	var blocks []content.Block

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			if _, isTable := item.(*docx.Table); isTable {
				blocks = append(blocks, content.Block{Type: "table"})
			}
			continue
		}

		if docxStyle(para) == "Title" {
			if t := docxParagraphText(para); t != "" {
				props["Title"] = content.Title{Spans: []content.Span{{Text: t}}}
			}
			continue
		}

		if b, ok := docxBlock(doc, para); ok {
			blocks = append(blocks, b)
		}
	}

	return &Source{
		Page:   newPage(filename, props),
		Blocks: blockIDs(blocks),
	}, nil
}

// docxRun is a run with its link target resolved.
type docxRun struct {
	text  string
	props *docx.RunProperties
	href  string
}

func docxRuns(doc *docx.Docx, para *docx.Paragraph) []docxRun {
	var runs []docxRun
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			runs = append(runs, docxRun{text: runText(c), props: c.RunProperties})
		case *docx.Hyperlink:
			target, err := doc.ReferTarget(c.ID)
			if err != nil {
				target = ""
			}
			text := c.Run.InstrText
			if text == "" {
				text = runText(&c.Run)
			}
			runs = append(runs, docxRun{text: text, props: c.Run.RunProperties, href: target})
		}
	}
	return runs
}

func runText(r *docx.Run) string {
	var sb strings.Builder
	for _, rc := range r.Children {
		switch t := rc.(type) {
		case *docx.Text:
			sb.WriteString(t.Text)
		case *docx.Tab:
			sb.WriteString("\t")
		case *docx.BarterRabbet:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func docxBlock(doc *docx.Docx, para *docx.Paragraph) (content.Block, bool) {
	runs := docxRuns(doc, para)
	text := strings.TrimSpace(joinRuns(runs))
	if text == "" {
		return content.Block{}, false
	}

	if level := docxHeadingLevel(para); level > 0 {
		return content.Block{Type: headingType(level), RichText: docxSpans(runs, func(a *content.Annotations) { a.Bold = false })}, true
	}

	centered := para.Properties != nil && para.Properties.Justification != nil &&
		para.Properties.Justification.Val == "center"

	switch {
	case centered && strings.Trim(text, "─-_*") == "":
		return content.Block{Type: content.BlockDivider}, true

	case centered && len(runs) == 1 && runs[0].href != "":
		img := &content.Image{URL: runs[0].href, External: true}
		if runs[0].text != runs[0].href {
			img.Caption = []content.Span{{Text: runs[0].text}}
		}
		return content.Block{Type: content.BlockImage, Image: img}, true

	case len(runs) == 1 && isMono(runs[0].props) && runs[0].props.Shade != nil:
		return content.Block{
			Type:     content.BlockCode,
			RichText: []content.Span{{Text: runs[0].text}},
		}, true

	case len(runs) > 1 && allRuns(runs, func(p *docx.RunProperties) bool { return p != nil && p.Shade != nil }):
		return content.Block{
			Type:     content.BlockCallout,
			Icon:     strings.TrimSpace(runs[0].text),
			RichText: docxSpans(runs[1:], nil),
		}, true

	case allRuns(runs, isQuote):
		return content.Block{Type: content.BlockQuote, RichText: docxSpans(runs, func(a *content.Annotations) { a.Italic = false })}, true
	}

	if len(runs) > 1 && runs[0].href == "" {
		marker := runs[0].text
		switch {
		case marker == "• ":
			return content.Block{Type: content.BlockBulletedListItem, RichText: docxSpans(runs[1:], nil)}, true
		case numberedMarker.MatchString(marker) && numberedMarker.FindString(marker) == marker:
			return content.Block{Type: content.BlockNumberedListItem, RichText: docxSpans(runs[1:], nil)}, true
		}
	}

	return content.Block{Type: content.BlockParagraph, RichText: docxSpans(runs, nil)}, true
}

func docxSpans(runs []docxRun, adjust func(*content.Annotations)) []content.Span {
	var sb spanBuilder
	for _, r := range runs {
		ann := runAnnotations(r.props)
		if adjust != nil {
			adjust(&ann)
		}
		sb.add(r.text, ann, r.href)
	}
	return sb.result()
}

func runAnnotations(p *docx.RunProperties) content.Annotations {
	if p == nil {
		return content.Annotations{}
	}
	return content.Annotations{
		Bold:          p.Bold != nil,
		Italic:        p.Italic != nil,
		Strikethrough: p.Strike != nil && p.Strike.Val != "false",
		Underline:     p.Underline != nil && p.Underline.Val != "none",
		Code:          isMono(p),
	}
}

func isMono(p *docx.RunProperties) bool {
	return p != nil && p.Fonts != nil && p.Fonts.ASCII == docxMonoFont
}

func isQuote(p *docx.RunProperties) bool {
	return p != nil && p.Italic != nil && p.Color != nil && p.Color.Val == "595959"
}

func allRuns(runs []docxRun, pred func(*docx.RunProperties) bool) bool {
	for _, r := range runs {
		if !pred(r.props) {
			return false
		}
	}
	return len(runs) > 0
}

func joinRuns(runs []docxRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.text)
	}
	return sb.String()
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxHeadingLevel(para *docx.Paragraph) int {
	style := docxStyle(para)
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", level)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			buf.WriteString(runText(run))
		}
	}
	return strings.TrimSpace(buf.String())
}
