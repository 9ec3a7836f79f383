package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/notioncms/internal/content"
)

// PDFParser extracts the plain text of each page. Pages are separated by
// dividers and blank lines within a page separate paragraphs.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var blocks []content.Block
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		paras, err := textBlocks(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", i, err)
		}
		if len(paras) == 0 {
			continue
		}
		if len(blocks) > 0 {
			blocks = append(blocks, content.Block{Type: content.BlockDivider})
		}
		blocks = append(blocks, paras...)
	}

	return &Source{
		Page:   newPage(filename, nil),
		Blocks: blockIDs(blocks),
	}, nil
}
