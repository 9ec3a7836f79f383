package content

import (
	"math"
	"time"
)

// Field declares how an entity reads one property.
type Field struct {
	Name      string
	Kind      Kind
	Localized bool
}

// String returns the textual value of the field. Localized fields go
// through the locale fallback chain; others read Kind directly.
func (f Field) String(props Properties, locale Locale) string {
	if f.Localized {
		return Localized(props, f.Name, locale)
	}
	switch f.Kind {
	case KindURL:
		v, _ := props.URL(f.Name)
		return v
	case KindFiles:
		v, _ := props.FileURL(f.Name)
		return v
	case KindDate:
		v, _ := props.Date(f.Name)
		return v
	}
	return props.Text(f.Name, f.Kind)
}

// Optional returns a pointer to the field's value, or nil when it is absent
// or empty.
func (f Field) Optional(props Properties, locale Locale) *string {
	v := f.String(props, locale)
	if v == "" {
		return nil
	}
	return &v
}

// Int returns the field as an integer when it is a set number.
func (f Field) Int(props Properties) (int, bool) {
	v, ok := props.Number(f.Name)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

// OptionalInt is Int as a pointer.
func (f Field) OptionalInt(props Properties) *int {
	v, ok := f.Int(props)
	if !ok {
		return nil
	}
	return &v
}

// Time parses the start of a date field. Date-only and RFC 3339 values
// are accepted; anything else yields the zero time.
func (f Field) Time(props Properties) time.Time {
	s, ok := props.Date(f.Name)
	if !ok {
		return time.Time{}
	}
	return ParseDate(s)
}

// ParseDate parses an upstream date value.
func ParseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
