package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/JonMunkholm/csvbatch/internal/logging"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the slack allowed on top of the file size for form
// boundaries and the batchName/batchType fields.
const multipartOverhead = 64 << 10

// fileSummary is the file metadata shape returned with an import.
type fileSummary struct {
	ID            string        `json:"id"`
	FileName      string        `json:"fileName"`
	OriginalName  string        `json:"originalName"`
	ColumnHeaders []string      `json:"columnHeaders"`
	RowCount      int           `json:"rowCount"`
	BatchName     string        `json:"batchName"`
	BatchType     core.Category `json:"batchType"`
	UploadedAt    time.Time     `json:"uploadedAt"`
}

type uploadResponse struct {
	Success  bool           `json:"success"`
	CSVFile  fileSummary    `json:"csvFile"`
	Preview  []core.RowData `json:"preview"`
	Warnings []string       `json:"warnings,omitempty"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type rowsResponse struct {
	Data       []core.Row        `json:"data"`
	Pagination pagination        `json:"pagination"`
	CSVFile    core.ImportedFile `json:"csvFile"`
}

// handleUpload imports a multipart upload: the file in csvFile plus
// optional batchName and batchType fields.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.fail(w, r, errFileTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("csvFile")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.fail(w, r, errFileTooLarge)
		return
	}
	if !isCSVUpload(header.Filename, header.Header.Get("Content-Type")) {
		s.fail(w, r, errNotCSV)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}
	if int64(len(data)) > maxSize {
		s.fail(w, r, errFileTooLarge)
		return
	}

	ctx, owner := requestContext(r)
	result, err := s.service.ImportBatch(ctx, core.ImportRequest{
		OwnerID:   owner,
		FileName:  header.Filename,
		Content:   data,
		BatchName: r.FormValue("batchName"),
		Category:  r.FormValue("batchType"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := uploadResponse{
		Success: true,
		CSVFile: summarize(result.File),
		Preview: result.Preview,
	}
	if len(result.DuplicateHeaders) > 0 {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf(
			"duplicate column headers %s: only the right-most column was kept",
			strings.Join(result.DuplicateHeaders, ", "),
		))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListFiles returns the caller's files, newest first.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	ctx, owner := requestContext(r)
	files, err := s.service.ListFiles(ctx, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"csvFiles": files})
}

// handleListRows returns one page of a file's rows.
// Query: page, limit, sort (asc|desc), filter.
func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	params, err := parseRowParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, owner := requestContext(r)
	params.FileID = chi.URLParam(r, "fileID")
	params.OwnerID = owner

	page, err := s.service.ListRows(ctx, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rowsResponse{
		Data: page.Rows,
		Pagination: pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
			Pages: page.PageCount,
		},
		CSVFile: page.File,
	})
}

// handleExport streams a file back as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, owner := requestContext(r)
	fileID := chi.URLParam(r, "fileID")

	// Resolve the file first so a missing file still gets a JSON error.
	file, err := s.service.GetFile(ctx, fileID, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": core.ExportFileName(*file),
	}))

	if err := s.service.ExportFile(ctx, file, w); err != nil {
		// Headers are already sent; the client sees a truncated download.
		logging.WithFields(r.Context(), "file_id", fileID).Error("export failed", "error", err)
	}
}

// handleDeleteFile removes a file and its rows.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx, owner := requestContext(r)
	if err := s.service.DeleteFile(ctx, chi.URLParam(r, "fileID"), owner); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// parseRowParams reads the paging query. Absent values take the defaults;
// values that are not integers are reported as invalid.
func parseRowParams(r *http.Request) (core.ListRowsParams, error) {
	q := r.URL.Query()
	p := core.ListRowsParams{
		Page:   core.DefaultPage,
		Limit:  core.DefaultLimit,
		Sort:   core.SortDirection(strings.ToLower(strings.TrimSpace(q.Get("sort")))),
		Filter: q.Get("filter"),
	}

	verr := &core.ValidationError{Fields: map[string]core.Reason{}}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Fields["page"] = core.ReasonInvalidValue
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Fields["limit"] = core.ReasonInvalidValue
		}
		p.Limit = n
	}
	if len(verr.Fields) > 0 {
		return p, verr
	}
	return p, nil
}

// isCSVUpload accepts a .csv extension or a text/csv content type.
func isCSVUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/csv"
}

func summarize(f core.ImportedFile) fileSummary {
	return fileSummary{
		ID:            f.ID.String(),
		FileName:      f.FileName,
		OriginalName:  f.OriginalName,
		ColumnHeaders: f.ColumnHeaders,
		RowCount:      f.RowCount,
		BatchName:     f.BatchName,
		BatchType:     f.Category,
		UploadedAt:    f.UploadedAt,
	}
}
