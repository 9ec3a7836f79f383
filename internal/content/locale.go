package content

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale is a caller-supplied language code such as "en" or "es".
type Locale string

// ParseLocale validates a language code. The returned Locale keeps the
// caller's spelling, lower-cased, since it only feeds field-name suffixes.
func ParseLocale(s string) (Locale, error) {
	if s == "" {
		return "", fmt.Errorf("locale is required")
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return Locale(cases.Lower(language.Und).String(tag.String())), nil
}

// Suffix returns the field-name suffix for the locale, e.g. "ES".
func (l Locale) Suffix() string {
	return cases.Upper(language.Und).String(string(l))
}

// LocalizedName returns "<base>_<LOCALE>".
func LocalizedName(base string, locale Locale) string {
	return base + "_" + locale.Suffix()
}

// localizedKinds is the probe order within one field name.
var localizedKinds = [...]Kind{KindRichText, KindTitle, KindSelect}

// Localized resolves a text field for a locale. It probes the
// locale-qualified field as rich_text, title, then select, then the base
// field in the same order. The first non-empty value wins.
func Localized(props Properties, base string, locale Locale) string {
	if locale != "" {
		name := LocalizedName(base, locale)
		for _, k := range localizedKinds {
			if v := props.Text(name, k); v != "" {
				return v
			}
		}
	}
	for _, k := range localizedKinds {
		if v := props.Text(base, k); v != "" {
			return v
		}
	}
	return ""
}
