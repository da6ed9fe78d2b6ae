package core

import "strings"

// ValidateMapping checks a proposed mapping against a schema and collects
// every violation: required fields left unmapped, and headers claimed by
// more than one field (each such field is reported). Keys that are not
// fields of the schema are ignored. Returns nil or a *ValidationError.
func ValidateMapping(fields []SystemField, m FieldMapping) error {
	violations := make(map[string]Reason)

	claims := make(map[string][]string)
	for _, f := range fields {
		header := strings.TrimSpace(m[f.Key])
		if header == "" {
			if f.Required {
				violations[f.Key] = ReasonMissingRequiredField
			}
			continue
		}
		claims[header] = append(claims[header], f.Key)
	}

	for _, keys := range claims {
		if len(keys) < 2 {
			continue
		}
		for _, k := range keys {
			violations[k] = ReasonDuplicateColumnMapping
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Fields: violations}
}
