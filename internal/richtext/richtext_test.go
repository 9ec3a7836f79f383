package richtext

import (
	"testing"

	"github.com/dgallion1/notioncms/internal/content"
)

func TestComposeSpan(t *testing.T) {
	tests := []struct {
		name string
		span content.Span
		want string
	}{
		{
			name: "bare text",
			span: content.Span{Text: "plain"},
			want: `"plain"`,
		},
		{
			name: "bold link",
			span: content.Span{Text: "x", Href: "https://a.test", Annotations: content.Annotations{Bold: true}},
			want: `link(bold("x"))`,
		},
		{
			name: "all annotations",
			span: content.Span{Text: "y", Annotations: content.Annotations{
				Bold: true, Italic: true, Strikethrough: true, Underline: true, Code: true,
			}},
			want: `code(underline(strikethrough(italic(bold("y")))))`,
		},
		{
			name: "italic code",
			span: content.Span{Text: "z", Annotations: content.Annotations{Italic: true, Code: true}},
			want: `code(italic("z"))`,
		},
	}
	for _, tt := range tests {
		if got := ComposeSpan(tt.span).String(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestComposeSpan_LinkIsOutermost(t *testing.T) {
	n := ComposeSpan(content.Span{
		Text:        "docs",
		Href:        "https://go.dev",
		Annotations: content.Annotations{Bold: true, Code: true},
	})
	if n.Kind != Link || n.Href != "https://go.dev" {
		t.Fatalf("expected link root, got %v", n.Kind)
	}
	if n.Child.Kind != Code {
		t.Errorf("expected code under link, got %v", n.Child.Kind)
	}
	if leaf := n.Leaf(); leaf.Kind != Text || leaf.Text != "docs" {
		t.Errorf("unexpected leaf %+v", leaf)
	}
}

func TestComposeSpan_Color(t *testing.T) {
	n := ComposeSpan(content.Span{Text: "c", Annotations: content.Annotations{Color: "red"}})
	if n.Color != "red" {
		t.Errorf("expected color %q, got %q", "red", n.Color)
	}
	n = ComposeSpan(content.Span{Text: "c", Annotations: content.Annotations{Color: "default"}})
	if n.Color != "" {
		t.Errorf("expected default color to be dropped, got %q", n.Color)
	}
}

func TestCompose_PreservesOrder(t *testing.T) {
	spans := []content.Span{
		{Text: "Hello, "},
		{Text: "bold", Annotations: content.Annotations{Bold: true}},
		{Text: " world", Href: "https://x.test"},
	}
	nodes := Compose(spans)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if got := PlainText(nodes); got != "Hello, bold world" {
		t.Errorf("expected %q, got %q", "Hello, bold world", got)
	}
	if got := PlainText(nodes); got != content.PlainText(spans) {
		t.Errorf("composed text %q differs from spans %q", got, content.PlainText(spans))
	}
}

func TestWalk_EnterLeaveOrder(t *testing.T) {
	n := ComposeSpan(content.Span{Text: "x", Href: "h", Annotations: content.Annotations{Italic: true}})
	var trace []string
	Walk(n,
		func(x *Node) { trace = append(trace, "+"+x.Kind.String()) },
		func(x *Node) { trace = append(trace, "-"+x.Kind.String()) },
	)
	want := []string{"+link", "+italic", "+text", "-text", "-italic", "-link"}
	if len(trace) != len(want) {
		t.Fatalf("expected %v, got %v", want, trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], trace[i])
		}
	}
}
