package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure leaves a handler through respondError, which:
//  1. maps the error via core.MapError to a user-facing message and code
//  2. logs the technical error with the request ID for correlation
//  3. writes an ErrorResponse, adding parse issues or field reasons when
//     the error carries them
//
// Storage detail is only ever logged; clients see the generic message.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/JonMunkholm/csvbatch/internal/logging"
)

// Upload transport errors. Their text matches the FILE00x patterns in core.MapError.
var (
	errFileTooLarge = errors.New("file too large")
	errNotCSV       = errors.New("only csv files are allowed")
	errNoFile       = errors.New("no file provided")
	errRateLimited  = errors.New("rate limit exceeded")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Issues  []core.ParseIssue `json:"issues,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor returns the HTTP status for an error from the core or transport.
func statusFor(err error) int {
	var (
		parseErr *core.ParseError
		validErr *core.ValidationError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr), errors.As(err, &validErr),
		errors.Is(err, errNotCSV), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status statusFor picks.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs err server-side and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	respondError(w, r, err, statusCode)
}

func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	logFn := logger.Warn
	if statusCode >= http.StatusInternalServerError {
		logFn = logger.Error
	}
	logFn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}

	var (
		parseErr *core.ParseError
		validErr *core.ValidationError
	)
	if errors.As(err, &parseErr) {
		resp.Error = parseErr.Error()
		resp.Issues = parseErr.Issues
	}
	if errors.As(err, &validErr) {
		resp.Error = validErr.Error()
		resp.Fields = make(map[string]string, len(validErr.Fields))
		for field, reason := range validErr.Fields {
			resp.Fields[field] = string(reason)
		}
	}

	writeJSON(w, statusCode, resp)
}
