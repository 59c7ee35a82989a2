package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reNotLetterOrDigit = regexp.MustCompile(`[^0-9\p{L}]+`)
	reMultiHyphen      = regexp.MustCompile(`-+`)
)

// TrimAndNormalize trims the input and collapses every whitespace run into a
// single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}

func lower(s string) string {
	return strings.ToLower(s)
}

func hyphenate(s string) string {
	s = reNotLetterOrDigit.ReplaceAllString(s, "-")
	s = reMultiHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeText is used for names, titles, notes and descriptions.
func SanitizeText(input string) string {
	return TrimAndNormalize(input)
}

// SanitizeTag turns "  Plein Air " into "plein-air".
func SanitizeTag(input string) string {
	return Pipeline{TrimAndNormalize, lower, hyphenate}.Apply(input)
}

// SanitizeCategory keeps the display casing of a category and only fixes
// spacing, so "  Nature " and "Nature" group together in stats.
func SanitizeCategory(input string) string {
	return TrimAndNormalize(input)
}
