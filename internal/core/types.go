package core

import (
	"time"

	"github.com/google/uuid"
)

// PreviewRows is the number of rows returned with a fresh import.
const PreviewRows = 5

// ImportedFile is one completed CSV upload and its metadata.
type ImportedFile struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       string    `json:"userId"`
	FileName      string    `json:"fileName"`     // stored artifact name
	OriginalName  string    `json:"originalName"` // name supplied by the uploader
	BatchName     string    `json:"batchName"`
	Category      Category  `json:"batchType"`
	ColumnHeaders []string  `json:"columnHeaders"`
	RowCount      int       `json:"rowCount"`
	FilePath      string    `json:"-"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// Row is one persisted record of a file, keyed by the file's headers.
// Index is assigned at import and never changes.
type Row struct {
	ID        uuid.UUID `json:"id"`
	FileID    uuid.UUID `json:"csvFileId"`
	Index     int       `json:"rowIndex"`
	Data      RowData   `json:"rowData"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldMapping maps a system field key to the chosen CSV header.
// A missing key or an empty header means the field is unmapped.
type FieldMapping map[string]string

// SortDirection orders rows by their import index.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ImportRequest carries one upload into ImportBatch.
type ImportRequest struct {
	OwnerID   string
	FileName  string
	Content   []byte
	BatchName string
	Category  string
}

// ImportResult is returned by a successful ImportBatch.
type ImportResult struct {
	File             ImportedFile `json:"csvFile"`
	Preview          []RowData    `json:"preview"`
	DuplicateHeaders []string     `json:"duplicateHeaders,omitempty"`
}

// ListRowsParams selects one page of a file's rows.
type ListRowsParams struct {
	FileID  string
	OwnerID string
	Page    int           `validate:"min=1" json:"page"`
	Limit   int           `validate:"min=1,max=10000" json:"limit"`
	Sort    SortDirection `validate:"omitempty,oneof=asc desc" json:"sort"`
	Filter  string        `json:"filter"`
}

// RowPage is one page of rows plus the pagination summary.
type RowPage struct {
	Rows      []Row        `json:"data"`
	Total     int          `json:"total"`
	Page      int          `json:"page"`
	Limit     int          `json:"limit"`
	PageCount int          `json:"pages"`
	File      ImportedFile `json:"csvFile"`
}

// RowQuery is the store-level form of ListRowsParams, ownership already checked.
type RowQuery struct {
	FileID uuid.UUID
	Offset int
	Limit  int
	Desc   bool
	Filter string
}

// pageCount returns ceil(total/limit), 0 for an empty result.
func pageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
