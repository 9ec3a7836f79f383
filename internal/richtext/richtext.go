// Package richtext turns annotated text spans into nested wrapper trees.
package richtext

import (
	"strings"

	"github.com/dgallion1/notioncms/internal/content"
)

// Kind is the kind of a composed node.
type Kind int

const (
	Text Kind = iota
	Bold
	Italic
	Strikethrough
	Underline
	Code
	Link
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Strikethrough:
		return "strikethrough"
	case Underline:
		return "underline"
	case Code:
		return "code"
	case Link:
		return "link"
	}
	return "unknown"
}

// Node is either a text leaf or a wrapper with exactly one child.
type Node struct {
	Kind  Kind
	Text  string // Text leaves only
	Href  string // Link wrappers only
	Color string // carried on the leaf; renderers may ignore it
	Child *Node
}

// wrappers lists annotation wrappers from innermost to outermost.
var wrappers = [...]struct {
	kind Kind
	on   func(content.Annotations) bool
}{
	{Bold, func(a content.Annotations) bool { return a.Bold }},
	{Italic, func(a content.Annotations) bool { return a.Italic }},
	{Strikethrough, func(a content.Annotations) bool { return a.Strikethrough }},
	{Underline, func(a content.Annotations) bool { return a.Underline }},
	{Code, func(a content.Annotations) bool { return a.Code }},
}

// ComposeSpan wraps one span. Bold sits closest to the text and a link,
// when present, is always outermost.
func ComposeSpan(s content.Span) *Node {
	n := &Node{Kind: Text, Text: s.Text}
	if s.Annotations.Color != "" && s.Annotations.Color != "default" {
		n.Color = s.Annotations.Color
	}
	for _, w := range wrappers {
		if w.on(s.Annotations) {
			n = &Node{Kind: w.kind, Child: n}
		}
	}
	if s.Href != "" {
		n = &Node{Kind: Link, Href: s.Href, Child: n}
	}
	return n
}

// Compose returns one node per span, in order.
func Compose(spans []content.Span) []*Node {
	out := make([]*Node, len(spans))
	for i, s := range spans {
		out[i] = ComposeSpan(s)
	}
	return out
}

// Leaf returns the text node at the bottom of the chain.
func (n *Node) Leaf() *Node {
	for n.Child != nil {
		n = n.Child
	}
	return n
}

// PlainText returns the text under n.
func (n *Node) PlainText() string {
	return n.Leaf().Text
}

// Walk calls enter for each node from outermost to innermost, then leave
// in reverse order.
func Walk(n *Node, enter, leave func(*Node)) {
	if n == nil {
		return
	}
	if enter != nil {
		enter(n)
	}
	Walk(n.Child, enter, leave)
	if leave != nil {
		leave(n)
	}
}

// String renders the chain for debugging, e.g. link(bold("x")).
func (n *Node) String() string {
	var sb strings.Builder
	depth := 0
	Walk(n, func(x *Node) {
		if x.Kind == Text {
			sb.WriteString(`"` + x.Text + `"`)
			return
		}
		sb.WriteString(x.Kind.String() + "(")
		depth++
	}, nil)
	sb.WriteString(strings.Repeat(")", depth))
	return sb.String()
}

// PlainText concatenates the text of composed nodes.
func PlainText(nodes []*Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.PlainText())
	}
	return sb.String()
}
