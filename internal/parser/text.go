package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/notioncms/internal/content"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Source, error) {
	blocks, err := textBlocks(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return &Source{
		Page:   newPage(filename, nil),
		Blocks: blockIDs(blocks),
	}, nil
}

// textBlocks splits r into paragraph blocks on blank lines.
func textBlocks(r io.Reader) ([]content.Block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []content.Block
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, content.Block{
				Type:     content.BlockParagraph,
				RichText: []content.Span{{Text: current.String()}},
			})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return blocks, nil
}
