package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when no owner identity accompanies a call.
	ErrUnauthorized = errors.New("unauthorized: owner identity required")

	// ErrNotFound is returned for missing entities and for entities owned by
	// someone else; callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrTooManyImports is returned when no import slot frees up in time.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)

// maxParseIssues caps the issues collected before parsing gives up.
const maxParseIssues = 50

// ParseIssue locates one tokenizer problem. Line is 1-based; Column is
// 1-based and zero when unknown.
type ParseIssue struct {
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// ParseError reports a malformed CSV. No partial result accompanies it.
type ParseError struct {
	Issues []ParseIssue
}

func (e *ParseError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid csv"
	}
	first := e.Issues[0]
	msg := fmt.Sprintf("invalid csv: line %d: %s", first.Line, first.Message)
	if len(e.Issues) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Issues)-1)
	}
	return msg
}

// Reason explains why a field failed validation.
type Reason string

const (
	ReasonMissingRequiredField   Reason = "MissingRequiredField"
	ReasonDuplicateColumnMapping Reason = "DuplicateColumnMapping"
	ReasonInvalidCategory        Reason = "InvalidCategory"
	ReasonInvalidValue           Reason = "InvalidValue"
)

// ValidationError maps each offending field to its reason.
type ValidationError struct {
	Fields map[string]Reason
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + string(e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Describe returns the sentence shown next to a field that failed with r.
func (r Reason) Describe(label string) string {
	switch r {
	case ReasonMissingRequiredField:
		return label + " is required"
	case ReasonDuplicateColumnMapping:
		return "This column is mapped to multiple fields"
	case ReasonInvalidCategory:
		return label + " must be Company or People"
	default:
		return label + " is invalid"
	}
}

// invalid builds a single-field ValidationError.
func invalid(field string, reason Reason) *ValidationError {
	return &ValidationError{Fields: map[string]Reason{field: reason}}
}

// StorageError wraps a backing-store failure. Its detail is for logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps err unless it is nil or already part of the public taxonomy.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
