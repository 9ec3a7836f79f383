package content

import (
	"maps"
	"slices"
)

// Kind is the tag of a property value.
type Kind string

const (
	KindTitle    Kind = "title"
	KindRichText Kind = "rich_text"
	KindSelect   Kind = "select"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindURL      Kind = "url"
	KindFiles    Kind = "files"
	KindCheckbox Kind = "checkbox"
)

// Property is a tagged property value. The variant set is closed: only the
// types in this file implement it.
type Property interface {
	Kind() Kind
	property()
}

// Title is the page title property.
type Title struct{ Spans []Span }

// RichText is a rich text property.
type RichText struct{ Spans []Span }

// Select holds the chosen option, or nothing when Set is false.
type Select struct {
	Name string
	Set  bool
}

// Number holds a numeric value, or nothing when Set is false.
type Number struct {
	Value float64
	Set   bool
}

// Date is a date or date range. End is ignored by the extractors.
type Date struct {
	Start string
	End   string
	Set   bool
}

// URL holds a literal URL, or nothing when Set is false.
type URL struct {
	Value string
	Set   bool
}

// File is one entry of a files property. Hosted files and external links
// both resolve to URL.
type File struct {
	Name     string
	URL      string
	External bool
}

// Files is a file list property.
type Files struct{ Files []File }

// Checkbox is a boolean property.
type Checkbox struct{ Checked bool }

// Unsupported stands in for any upstream property kind this module does not
// read. It never matches an extractor.
type Unsupported struct{ Type string }

func (Title) Kind() Kind { return KindTitle }
func (RichText) Kind() Kind { return KindRichText }
func (Select) Kind() Kind { return KindSelect }
func (Number) Kind() Kind { return KindNumber }
func (Date) Kind() Kind { return KindDate }
func (URL) Kind() Kind { return KindURL }
func (Files) Kind() Kind { return KindFiles }
func (Checkbox) Kind() Kind { return KindCheckbox }
func (u Unsupported) Kind() Kind { return Kind(u.Type) }

func (Title) property()       {}
func (RichText) property()    {}
func (Select) property()      {}
func (Number) property()      {}
func (Date) property()        {}
func (URL) property()         {}
func (Files) property()       {}
func (Checkbox) property()    {}
func (Unsupported) property() {}

// Properties is a page's property bag keyed by field name.
type Properties map[string]Property

// Text returns the textual value of field when it holds kind. Only title,
// rich_text and select are textual; every other combination is "".
func (p Properties) Text(field string, kind Kind) string {
	prop, ok := p[field]
	if !ok || prop.Kind() != kind {
		return ""
	}
	switch v := prop.(type) {
	case Title:
		return PlainText(v.Spans)
	case RichText:
		return PlainText(v.Spans)
	case Select:
		return v.Name
	case Number, Date, URL, Files, Checkbox, Unsupported:
		return ""
	}
	return ""
}

// Title returns the plain text of a title field, or "".
func (p Properties) Title(field string) string {
	return p.Text(field, KindTitle)
}

// RichText returns the plain text of a rich text field, or "".
func (p Properties) RichText(field string) string {
	return p.Text(field, KindRichText)
}

// Select returns the selected option name.
func (p Properties) Select(field string) (string, bool) {
	v, ok := p[field].(Select)
	if !ok || !v.Set {
		return "", false
	}
	return v.Name, true
}

// Number returns the numeric value.
func (p Properties) Number(field string) (float64, bool) {
	v, ok := p[field].(Number)
	if !ok || !v.Set {
		return 0, false
	}
	return v.Value, true
}

// Date returns the ISO start of a date field.
func (p Properties) Date(field string) (string, bool) {
	v, ok := p[field].(Date)
	if !ok || !v.Set || v.Start == "" {
		return "", false
	}
	return v.Start, true
}

// URL returns the literal URL.
func (p Properties) URL(field string) (string, bool) {
	v, ok := p[field].(URL)
	if !ok || !v.Set {
		return "", false
	}
	return v.Value, true
}

// FileURL returns the URL of the first file in a files field.
func (p Properties) FileURL(field string) (string, bool) {
	v, ok := p[field].(Files)
	if !ok || len(v.Files) == 0 {
		return "", false
	}
	return v.Files[0].URL, true
}

// Checkbox returns the checkbox state; absent fields are unchecked.
func (p Properties) Checkbox(field string) bool {
	v, ok := p[field].(Checkbox)
	return ok && v.Checked
}

// PageTitle returns the text of the page's title property. "Title" wins,
// then other title-kind properties in name order.
func (p Properties) PageTitle() string {
	if t := p.Title("Title"); t != "" {
		return t
	}
	for _, name := range slices.Sorted(maps.Keys(p)) {
		if p[name].Kind() != KindTitle {
			continue
		}
		if t := p.Title(name); t != "" {
			return t
		}
	}
	return ""
}
