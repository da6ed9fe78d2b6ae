package core

import (
	"context"

	"github.com/google/uuid"
)

// Store persists files and their rows. Implementations return ErrNotFound
// (possibly wrapped) for missing or foreign-owned entities; any other error
// is treated as a storage failure.
type Store interface {
	// CreateImport stores file and rows as one unit: either both are
	// visible afterwards or neither is.
	CreateImport(ctx context.Context, file ImportedFile, rows []Row) error

	// GetFile returns the file if it belongs to ownerID.
	GetFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*ImportedFile, error)

	// ListFiles returns ownerID's files, newest first.
	ListFiles(ctx context.Context, ownerID string) ([]ImportedFile, error)

	// ListRows returns one page of a file's rows and the number of rows
	// matching the filter. A row matches when any non-null value contains
	// Filter, case-sensitively.
	ListRows(ctx context.Context, q RowQuery) ([]Row, int, error)

	// StreamRows calls fn for every row of a file in index order. An error
	// from fn stops the iteration and is returned.
	StreamRows(ctx context.Context, fileID uuid.UUID, fn func(Row) error) error

	// UpdateRow replaces a row's data if its file belongs to ownerID.
	UpdateRow(ctx context.Context, rowID uuid.UUID, ownerID string, data RowData) (*Row, error)

	// DeleteFile removes the file and all its rows as one unit and returns
	// the deleted record.
	DeleteFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*ImportedFile, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// ArtifactStore keeps the raw bytes of each upload.
type ArtifactStore interface {
	// Save writes data and returns the artifact's location.
	Save(ctx context.Context, originalName string, data []byte) (string, error)

	// Remove deletes the artifact at path.
	Remove(path string) error
}

// ImportLimiter bounds the number of imports running at once.
type ImportLimiter interface {
	// Acquire blocks until a slot is free. It returns ErrTooManyImports
	// when the wait budget runs out, or the context's error.
	Acquire(ctx context.Context) error

	// Release frees a slot taken by a successful Acquire.
	Release()
}
