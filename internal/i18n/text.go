// Package i18n holds translatable text as an explicit locale map.
package i18n

import (
	"sort"
	"strings"
)

// DefaultLocale is used when a request does not name a supported locale.
const DefaultLocale = "ru"

// Supported lists the storefront locales in fallback order.
var Supported = []string{"ru", "en", "uz", "kk", "ko"}

// Text maps a locale code to a translated value.
type Text map[string]string

// Lookup returns the value stored for exactly this locale.
func (t Text) Lookup(locale string) (string, bool) {
	v, ok := t[locale]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Get resolves a value for locale, falling back to fallback, then to the
// supported locales in order, then to any remaining entry.
func (t Text) Get(locale, fallback string) string {
	if v, ok := t.Lookup(locale); ok {
		return v
	}
	if v, ok := t.Lookup(fallback); ok {
		return v
	}
	for _, l := range Supported {
		if v, ok := t.Lookup(l); ok {
			return v
		}
	}

	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t[k] != "" {
			return t[k]
		}
	}
	return ""
}

// Normalize reduces a language tag such as "en-US" to a supported locale.
// It returns "" for unsupported tags.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_;"); i >= 0 {
		tag = tag[:i]
	}
	for _, l := range Supported {
		if l == tag {
			return l
		}
	}
	return ""
}

// Resolve picks the first supported locale from the candidates, or fallback.
func Resolve(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if l := Normalize(c); l != "" {
			return l
		}
	}
	if l := Normalize(fallback); l != "" {
		return l
	}
	return DefaultLocale
}
