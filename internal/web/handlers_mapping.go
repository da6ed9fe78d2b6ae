package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/go-chi/chi/v5"
)

type suggestRequest struct {
	Headers   []string `json:"headers" validate:"required,min=1,max=1000,dive,max=512"`
	BatchType string   `json:"batchType"`
}

type validateRequest struct {
	BatchType string            `json:"batchType"`
	Mapping   core.FieldMapping `json:"mapping" validate:"required"`
}

// mappingResponse reports a mapping and the reason each failing field failed.
type mappingResponse struct {
	Mapping core.FieldMapping `json:"mapping,omitempty"`
	Valid   bool              `json:"valid"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// handleFields lists the system fields of a category.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	fields, err := s.service.Fields(category)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batchType": category,
		"fields":    fields,
	})
}

// handleSuggestMapping proposes a mapping for the given headers. A
// suggestion that fails validation is still returned, with valid=false.
func (s *Server) handleSuggestMapping(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	mapping, err := s.service.SuggestMapping(req.Headers, req.BatchType)
	if mapping == nil && err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeMappingResult(w, r, req.BatchType, mapping, err)
}

// handleValidateMapping checks a mapping chosen by the user.
func (s *Server) handleValidateMapping(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	err := s.service.ValidateMapping(req.BatchType, req.Mapping)
	s.writeMappingResult(w, r, req.BatchType, nil, err)
}

// writeMappingResult answers 200 for a valid or invalid mapping. Only
// errors other than mapping validation (e.g. an unknown category) fail.
func (s *Server) writeMappingResult(w http.ResponseWriter, r *http.Request, category string, m core.FieldMapping, err error) {
	resp := mappingResponse{Mapping: m, Valid: err == nil}
	if err != nil {
		var verr *core.ValidationError
		if !errors.As(err, &verr) || verr.Fields["batchType"] == core.ReasonInvalidCategory {
			s.fail(w, r, err)
			return
		}
		resp.Errors = describeReasons(category, verr)
	}
	writeJSON(w, http.StatusOK, resp)
}

// describeReasons renders each failing field with its label.
func describeReasons(category string, verr *core.ValidationError) map[string]string {
	labels := map[string]string{}
	if c, err := core.ResolveCategory(category); err == nil {
		if schema, ok := core.SchemaFor(c); ok {
			for _, f := range schema.Fields {
				labels[f.Key] = f.Label
			}
		}
	}

	out := make(map[string]string, len(verr.Fields))
	for field, reason := range verr.Fields {
		label := labels[field]
		if label == "" {
			label = field
		}
		out[field] = reason.Describe(label)
	}
	return out
}
