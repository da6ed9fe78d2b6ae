package core

import (
	"context"
	"math"
)

// Defaults applied by transports when a query parameter is absent.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 10000
)

// ListFiles returns the owner's files, newest first.
func (s *Service) ListFiles(ctx context.Context, ownerID string) ([]ImportedFile, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	files, err := s.store.ListFiles(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list files", err)
	}
	if files == nil {
		files = []ImportedFile{}
	}
	return files, nil
}

// GetFile returns one file's metadata if it belongs to ownerID.
func (s *Service) GetFile(ctx context.Context, fileID, ownerID string) (*ImportedFile, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	id, err := parseID(fileID)
	if err != nil {
		return nil, err
	}

	file, err := s.store.GetFile(ctx, id, ownerID)
	if err != nil {
		return nil, storageErr("get file", err)
	}
	return file, nil
}

// ListRows returns one page of a file's rows ordered by import index.
//
// Page numbering starts at 1 and pages past the end are empty rather than
// an error; a page whose offset would overflow an int is a ValidationError.
// A non-empty Filter keeps rows where any value contains it,
// case-sensitively; the filter narrows both Rows and Total.
func (s *Service) ListRows(ctx context.Context, p ListRowsParams) (*RowPage, error) {
	if err := requireOwner(p.OwnerID); err != nil {
		return nil, err
	}
	if p.Sort == "" {
		p.Sort = SortAsc
	}
	if err := s.checkStruct(p); err != nil {
		return nil, err
	}
	// Page*Limit must fit in an int for the store's offset arithmetic.
	if p.Page > math.MaxInt/p.Limit {
		return nil, invalid("page", ReasonInvalidValue)
	}

	file, err := s.GetFile(ctx, p.FileID, p.OwnerID)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.store.ListRows(ctx, RowQuery{
		FileID: file.ID,
		Offset: (p.Page - 1) * p.Limit,
		Limit:  p.Limit,
		Desc:   p.Sort == SortDesc,
		Filter: p.Filter,
	})
	if err != nil {
		return nil, storageErr("list rows", err)
	}
	if rows == nil {
		rows = []Row{}
	}

	return &RowPage{
		Rows:      rows,
		Total:     total,
		Page:      p.Page,
		Limit:     p.Limit,
		PageCount: pageCount(total, p.Limit),
		File:      *file,
	}, nil
}
