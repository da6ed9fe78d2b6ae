package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxJSONBody bounds request bodies other than uploads.
const maxJSONBody = 1 << 20

type updateRowRequest struct {
	RowData core.RowData `json:"rowData" validate:"required"`
}

// handleUpdateRow replaces the values of one row.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	var req updateRowRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, owner := requestContext(r)
	row, err := s.service.UpdateRow(ctx, chi.URLParam(r, "rowID"), owner, req.RowData)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "row": row})
}

// decodeJSON reads a bounded JSON body into v and runs its validate tags.
// Malformed JSON and tag failures both come back as *core.ValidationError
// keyed by the offending json field ("body" when unknown).
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var (
			maxBytes  *http.MaxBytesError
			typeErr   *json.UnmarshalTypeError
			fieldName = "body"
		)
		switch {
		case errors.As(err, &maxBytes):
			return fmt.Errorf("request body too large: %w", err)
		case errors.Is(err, io.EOF):
			return &core.ValidationError{Fields: map[string]core.Reason{"body": core.ReasonMissingRequiredField}}
		case errors.As(err, &typeErr) && typeErr.Field != "":
			fieldName = typeErr.Field
		}
		return &core.ValidationError{Fields: map[string]core.Reason{fieldName: core.ReasonInvalidValue}}
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &core.ValidationError{Fields: make(map[string]core.Reason, len(verrs))}
		for _, fe := range verrs {
			reason := core.ReasonInvalidValue
			if fe.Tag() == "required" {
				reason = core.ReasonMissingRequiredField
			}
			out.Fields[fe.Field()] = reason
		}
		return out
	}
	return nil
}

// newValidator reports struct fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
