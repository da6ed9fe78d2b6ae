package core

// # Error Codes Reference
//
// MapError turns any error into a UserMessage carrying a code that users can
// quote to support staff. Typed errors are mapped first; anything else is
// matched case-insensitively against known substrings, first match wins.
//
// # Request Errors
//
//	AUTH001 - Not signed in                  ErrUnauthorized
//	NF001   - File or row not found          ErrNotFound
//	CSV001  - Malformed CSV                  *ParseError
//	MAP001  - Invalid field mapping/input    *ValidationError
//	UPL001  - Import slots busy              ErrTooManyImports
//	UPL002  - Request cancelled              "context canceled"
//	UPL003  - Request timed out              "context deadline exceeded"
//	RATE001 - Rate limited                   "rate limit"
//
// # File Errors
//
//	FILE001 - File too large                 "file too large"
//	FILE002 - Not a CSV file                 "only csv files"
//	FILE003 - No file attached               "no file provided"
//
// # Database Errors
//
//	DB001 - Duplicate row index              "duplicate key", "unique constraint"
//	DB002 - Connection refused               "connection refused"
//	DB003 - Connection reset                 "connection reset"
//	DB004 - Timeout                          "timeout"
//	DB005 - Deadlock                         "deadlock"
//	DB000 - Any other *StorageError
//
// # Default Error
//
//	ERR000 - An unexpected error occurred. Check the logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgUnauthorized = UserMessage{
		Message: "You must be signed in to do that",
		Action:  "Sign in and try again",
		Code:    "AUTH001",
	}
	msgNotFound = UserMessage{
		Message: "CSV file not found",
		Action:  "Refresh the file list; it may have been deleted",
		Code:    "NF001",
	}
	msgParse = UserMessage{
		Message: "The file is not valid CSV",
		Action:  "Check quoting on the reported lines and upload again",
		Code:    "CSV001",
	}
	msgValidation = UserMessage{
		Message: "Some fields are invalid",
		Action:  "Correct the highlighted fields and try again",
		Code:    "MAP001",
	}
	msgBusy = UserMessage{
		Message: "Too many imports are running",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}
	msgStorage = UserMessage{
		Message: "Failed to save or load data",
		Action:  "Please try again or contact support",
		Code:    "DB000",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: more specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// Request lifecycle
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL003"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},

	// Upload transport
	{"file too large", UserMessage{"File exceeds the maximum size limit (10MB)", "Split the file into smaller files", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum size limit (10MB)", "Split the file into smaller files", "FILE001"}},
	{"only csv files", UserMessage{"Only CSV files are allowed", "Upload a file with a .csv extension", "FILE002"}},
	{"no file provided", UserMessage{"No file was uploaded", "Please select a CSV file to upload", "FILE003"}},

	// Database
	{"duplicate key", UserMessage{"A row with this position already exists", "Please try the import again", "DB001"}},
	{"unique constraint", UserMessage{"A row with this position already exists", "Please try the import again", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB004"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB005"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		parseErr   *ParseError
		validErr   *ValidationError
		storageErr *StorageError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.As(err, &parseErr):
		return msgParse
	case errors.As(err, &validErr):
		return msgValidation
	case errors.As(err, &storageErr):
		if msg, ok := matchPattern(storageErr.Err); ok {
			return msg
		}
		return msgStorage
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	msg := MapError(err)
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// Use NewUserError to create instances.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps a technical error to a user-friendly one. The original
// stays reachable through Unwrap. Returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
