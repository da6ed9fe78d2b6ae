package core

import (
	"fmt"
	"sort"
	"sync"
)

// Category is the closed set of batch types a file can be imported as.
type Category string

const (
	CategoryCompany Category = "Company"
	CategoryPeople  Category = "People"
)

// DefaultCategory is used when an import names no category.
const DefaultCategory = CategoryCompany

// SystemField is one element of a category's fixed schema.
type SystemField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Schema is the ordered list of system fields for a category.
type Schema struct {
	Category Category
	Fields   []SystemField
}

// Field returns the field with the given key.
func (s Schema) Field(key string) (SystemField, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return SystemField{}, false
}

var (
	registry   = make(map[Category]Schema)
	registryMu sync.RWMutex
)

// RegisterSchema adds a category schema to the registry.
// Panics if the category is already registered or a field key repeats.
func RegisterSchema(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Category]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.Category))
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Key] {
			panic(fmt.Sprintf("schema %s: duplicate field key %q", s.Category, f.Key))
		}
		seen[f.Key] = true
	}

	registry[s.Category] = s
}

// SchemaFor returns the schema registered for c.
func SchemaFor(c Category) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[c]
	return s, ok
}

// Categories returns all registered categories, sorted.
func Categories() []Category {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Category, 0, len(registry))
	for c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ResolveCategory maps raw input to a registered category. Empty input
// yields DefaultCategory; anything else must match exactly.
func ResolveCategory(raw string) (Category, error) {
	c := Category(raw)
	if raw == "" {
		c = DefaultCategory
	}
	if _, ok := SchemaFor(c); !ok {
		return "", invalid("batchType", ReasonInvalidCategory)
	}
	return c, nil
}
