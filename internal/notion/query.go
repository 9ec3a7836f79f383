package notion

import "time"

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// MaxPageSize is the largest page the API returns.
const MaxPageSize = 100

// Query is the body of a data source query.
type Query struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
}

// Sort orders results by one property.
type Sort struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

// Filter is a property condition or a conjunction of filters. Set exactly
// one of the condition fields, or And.
type Filter struct {
	Property string             `json:"property,omitempty"`
	Date     *DateCondition     `json:"date,omitempty"`
	Checkbox *CheckboxCondition `json:"checkbox,omitempty"`
	RichText *TextCondition     `json:"rich_text,omitempty"`
	And      []Filter           `json:"and,omitempty"`
}

type DateCondition struct {
	OnOrAfter string `json:"on_or_after,omitempty"`
}

type CheckboxCondition struct {
	Equals bool `json:"equals"`
}

type TextCondition struct {
	Equals string `json:"equals"`
}

// DateOnOrAfter matches pages whose date property starts at or after t.
func DateOnOrAfter(property string, t time.Time) Filter {
	return Filter{Property: property, Date: &DateCondition{OnOrAfter: t.UTC().Format(time.RFC3339)}}
}

func CheckboxEquals(property string, v bool) Filter {
	return Filter{Property: property, Checkbox: &CheckboxCondition{Equals: v}}
}

func RichTextEquals(property, v string) Filter {
	return Filter{Property: property, RichText: &TextCondition{Equals: v}}
}

// And combines filters; a single filter is returned as is.
func And(filters ...Filter) Filter {
	if len(filters) == 1 {
		return filters[0]
	}
	return Filter{And: filters}
}

func (q Query) normalized() Query {
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.PageSize < 0 {
		q.PageSize = 0
	}
	return q
}
