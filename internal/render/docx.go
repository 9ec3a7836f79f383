package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/richtext"
)

const monoFont = "Courier New"

// Heading sizes in half-points.
var headingSize = map[content.BlockType]string{
	content.BlockHeading1: "36",
	content.BlockHeading2: "30",
	content.BlockHeading3: "26",
}

var headingStyle = map[content.BlockType]string{
	content.BlockHeading1: "Heading1",
	content.BlockHeading2: "Heading2",
	content.BlockHeading3: "Heading3",
}

// DOCX writes the document as a Word file.
func DOCX(doc doctree.Document, w io.Writer) error {
	f := docx.New().WithDefaultTheme()

	if doc.Title != "" {
		p := f.AddParagraph().Style("Title")
		p.AddText(doc.Title).Bold().Size("44")
	}

	for _, n := range doc.Nodes {
		switch n.Kind {
		case doctree.KindBulletedList, doctree.KindNumberedList:
			for i, item := range n.Items {
				p := f.AddParagraph()
				marker := "• "
				if n.Kind == doctree.KindNumberedList {
					marker = fmt.Sprintf("%d. ", i+1)
				}
				p.AddText(marker)
				addRuns(p, item.RichText, nil)
			}
		case doctree.KindBlock:
			writeBlock(f, *n.Block)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func writeBlock(f *docx.Docx, b content.Block) {
	switch b.Type {
	case content.BlockParagraph:
		addRuns(f.AddParagraph(), b.RichText, nil)
	case content.BlockHeading1, content.BlockHeading2, content.BlockHeading3:
		size := headingSize[b.Type]
		p := f.AddParagraph().Style(headingStyle[b.Type])
		addRuns(p, b.RichText, func(r *docx.Run) { r.Bold().Size(size) })
	case content.BlockQuote:
		addRuns(f.AddParagraph(), b.RichText, func(r *docx.Run) { r.Italic().Color("595959") })
	case content.BlockCallout:
		icon := b.Icon
		if icon == "" {
			icon = DefaultCalloutIcon
		}
		p := f.AddParagraph()
		p.AddText(icon + " ").Shade("clear", "auto", "F1F1EF")
		addRuns(p, b.RichText, func(r *docx.Run) { r.Shade("clear", "auto", "F1F1EF") })
	case content.BlockDivider:
		f.AddParagraph().Justification("center").AddText(strings.Repeat("─", 24)).Color("A0A0A0")
	case content.BlockCode:
		p := f.AddParagraph()
		p.AddText(content.PlainText(b.RichText)).
			Font(monoFont, monoFont, monoFont, "default").
			Shade("clear", "auto", "F5F5F5")
	case content.BlockImage:
		if b.Image == nil || b.Image.URL == "" {
			return
		}
		caption := firstCaption(b.Image)
		label := caption
		if label == "" {
			label = b.Image.URL
		}
		p := f.AddParagraph().Justification("center")
		p.AddLink(label, b.Image.URL)
	}
}

// addRuns writes one run per span. Links become hyperlinks carrying the
// span text; the other wrappers become run properties on either kind.
func addRuns(p *docx.Paragraph, spans []content.Span, style func(*docx.Run)) {
	for _, n := range richtext.Compose(spans) {
		var r *docx.Run
		if n.Kind == richtext.Link {
			r = &p.AddLink(n.PlainText(), n.Href).Run
		} else {
			r = p.AddText(n.PlainText())
		}
		richtext.Walk(n, func(x *richtext.Node) {
			switch x.Kind {
			case richtext.Bold:
				r.Bold()
			case richtext.Italic:
				r.Italic()
			case richtext.Strikethrough:
				r.Strike(true)
			case richtext.Underline:
				r.Underline("single")
			case richtext.Code:
				r.Font(monoFont, monoFont, monoFont, "default")
			}
		}, nil)
		if style != nil {
			style(r)
		}
	}
}
