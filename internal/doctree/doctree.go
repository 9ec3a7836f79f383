package doctree

import (
	"strings"

	"github.com/dgallion1/notioncms/internal/content"
)

// Kind distinguishes block passthrough nodes from composite list nodes.
type Kind string

const (
	KindBlock        Kind = "block"
	KindBulletedList Kind = "bulleted_list"
	KindNumberedList Kind = "numbered_list"
)

// Document is the normalized, render-ready body of a page.
type Document struct {
	Title string `json:"title,omitempty"`
	Nodes []Node `json:"nodes"`
}

// Node is either a single block (Kind == KindBlock) or a list owning a
// non-empty run of list items of one type.
type Node struct {
	Kind  Kind            `json:"kind"`
	Block *content.Block  `json:"block,omitempty"`
	Items []content.Block `json:"items,omitempty"`
}

// ItemType returns the block type of a list node's items.
func (n Node) ItemType() content.BlockType {
	if len(n.Items) == 0 {
		return ""
	}
	return n.Items[0].Type
}

func listKind(t content.BlockType) Kind {
	if t == content.BlockNumberedListItem {
		return KindNumberedList
	}
	return KindBulletedList
}

// Normalize turns a page's flat block list into document nodes. Maximal
// runs of the same list-item type become one list node; a different type,
// even another list type, starts a new node. Unsupported block types are
// dropped so new upstream types never break rendering.
func Normalize(blocks []content.Block) Document {
	doc := Document{Nodes: make([]Node, 0, len(blocks))}

	for i := 0; i < len(blocks); {
		b := blocks[i]
		switch {
		case b.Type.IsListItem():
			j := i + 1
			for j < len(blocks) && blocks[j].Type == b.Type {
				j++
			}
			items := make([]content.Block, j-i)
			copy(items, blocks[i:j])
			doc.Nodes = append(doc.Nodes, Node{Kind: listKind(b.Type), Items: items})
			i = j
		case b.Type.Supported():
			doc.Nodes = append(doc.Nodes, Node{Kind: KindBlock, Block: &blocks[i]})
			i++
		default:
			// Unknown variant: skipped on purpose.
			i++
		}
	}

	return doc
}

// Flatten returns the document's blocks in reading order.
func (d Document) Flatten() []content.Block {
	var out []content.Block
	for _, n := range d.Nodes {
		if n.Kind == KindBlock {
			out = append(out, *n.Block)
			continue
		}
		out = append(out, n.Items...)
	}
	return out
}

// PlainText joins the text of every block, one block per paragraph.
func (d Document) PlainText() string {
	var sb strings.Builder
	for _, b := range d.Flatten() {
		t := content.PlainText(b.RichText)
		if b.Type == content.BlockImage && b.Image != nil {
			t = content.PlainText(b.Image.Caption)
		}
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t)
	}
	return sb.String()
}
