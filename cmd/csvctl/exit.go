package main

import (
	"errors"

	"github.com/JonMunkholm/csvbatch/internal/core"
)

const (
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
	exitNotFound   = 4
	exitStorage    = 5
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor picks the process exit status for an error returned by a command.
func exitCodeFor(err error) int {
	var (
		coded    *exitError
		parseErr *core.ParseError
		validErr *core.ValidationError
		storeErr *core.StorageError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &coded):
		return coded.code
	case errors.Is(err, core.ErrUnauthorized):
		return exitUsage
	case errors.As(err, &parseErr), errors.As(err, &validErr):
		return exitValidation
	case errors.Is(err, core.ErrNotFound):
		return exitNotFound
	case errors.As(err, &storeErr), errors.Is(err, core.ErrTooManyImports):
		return exitStorage
	default:
		return exitFailure
	}
}

// userError renders err for the terminal. Parse and validation errors are
// shown verbatim; storage errors get the mapped message and support code.
func userError(err error) string {
	var (
		parseErr *core.ParseError
		validErr *core.ValidationError
	)
	if errors.As(err, &parseErr) || errors.As(err, &validErr) {
		return err.Error()
	}
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
