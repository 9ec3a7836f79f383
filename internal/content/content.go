// Package content holds the store-agnostic data model: pages with a typed
// property bag, content blocks and rich text spans.
package content

import "strings"

// Page is one row of a collection.
type Page struct {
	ID             string
	URL            string
	CreatedTime    string
	LastEditedTime string
	Properties     Properties
}

// BlockType is the upstream type tag of a block. Types outside the
// supported set are kept verbatim so callers can log what they dropped.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockImage            BlockType = "image"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"
	BlockDivider          BlockType = "divider"
	BlockCode             BlockType = "code"
)

// Supported reports whether the block type is rendered by this module.
func (t BlockType) Supported() bool {
	switch t {
	case BlockParagraph, BlockHeading1, BlockHeading2, BlockHeading3,
		BlockBulletedListItem, BlockNumberedListItem,
		BlockImage, BlockQuote, BlockCallout, BlockDivider, BlockCode:
		return true
	}
	return false
}

// IsListItem reports whether blocks of this type are grouped into lists.
func (t BlockType) IsListItem() bool {
	return t == BlockBulletedListItem || t == BlockNumberedListItem
}

// Block is one node of a page body. Only the fields relevant to Type are set.
type Block struct {
	ID          string    `json:"id"`
	Type        BlockType `json:"type"`
	RichText    []Span    `json:"rich_text,omitempty"`
	Icon        string    `json:"icon,omitempty"`     // callout emoji
	Language    string    `json:"language,omitempty"` // code
	Image       *Image    `json:"image,omitempty"`
	HasChildren bool      `json:"has_children,omitempty"`
}

// Image is the payload of an image block.
type Image struct {
	URL      string `json:"url"`
	External bool   `json:"external"`
	Caption  []Span `json:"caption,omitempty"`
}

// Annotations is the formatting set of a span.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// Span is a run of text sharing one annotation set and optional link.
type Span struct {
	Text        string      `json:"text"`
	Annotations Annotations `json:"annotations"`
	Href        string      `json:"href,omitempty"`
}

// PlainText concatenates the text of spans in order.
func PlainText(spans []Span) string {
	if len(spans) == 1 {
		return spans[0].Text
	}
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
