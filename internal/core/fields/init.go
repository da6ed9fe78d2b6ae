// Package fields registers the system field schemas with the core registry.
// Import this package to ensure every category is available.
package fields
