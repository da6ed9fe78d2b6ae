package core

import (
	"strings"
	"unicode"
)

// Suggester proposes a header for each system field. Implementations must
// be pure: the same headers and fields always give the same mapping.
type Suggester func(headers []string, fields []SystemField) FieldMapping

// SuggestMapping is the default Suggester.
//
// For each field in declaration order it picks the first header whose
// normalized form equals the field's normalized key or label, or contains
// either, or is contained by either. Headers stay available to later
// fields, so two fields may be offered the same header; ValidateMapping
// reports that as DuplicateColumnMapping. Headers that normalize to the
// empty string never match.
func SuggestMapping(headers []string, fields []SystemField) FieldMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeKey(h)
	}

	mapping := make(FieldMapping)
	for _, f := range fields {
		candidates := []string{NormalizeKey(f.Key), NormalizeKey(f.Label)}
		for i, h := range normalized {
			if h != "" && matchesAny(h, candidates) {
				mapping[f.Key] = headers[i]
				break
			}
		}
	}
	return mapping
}

func matchesAny(header string, candidates []string) bool {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if header == c || strings.Contains(header, c) || strings.Contains(c, header) {
			return true
		}
	}
	return false
}

// NormalizeKey lower-cases s and strips every rune that is not a letter or digit.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
