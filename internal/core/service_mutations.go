package core

import (
	"context"

	"github.com/JonMunkholm/csvbatch/internal/logging"
)

// UpdateRow replaces the whole value mapping of a row whose file belongs to
// ownerID. Keys are not checked against the file's headers. Repeating the
// call with the same data leaves the row unchanged.
func (s *Service) UpdateRow(ctx context.Context, rowID, ownerID string, data RowData) (*Row, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, invalid("rowData", ReasonInvalidValue)
	}

	id, err := parseID(rowID)
	if err != nil {
		return nil, err
	}

	row, err := s.store.UpdateRow(ctx, id, ownerID, data.Clone())
	if err != nil {
		return nil, storageErr("update row", err)
	}

	s.logAudit(ctx, AuditEvent{
		Action:       ActionRowEdit,
		OwnerID:      ownerID,
		FileID:       row.FileID.String(),
		RowID:        row.ID.String(),
		RowsAffected: 1,
	})
	return row, nil
}

// DeleteFile removes a file and all of its rows. Removing the raw upload
// afterwards is best-effort: a failure there is logged and the delete
// still succeeds.
func (s *Service) DeleteFile(ctx context.Context, fileID, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}

	id, err := parseID(fileID)
	if err != nil {
		return err
	}

	file, err := s.store.DeleteFile(ctx, id, ownerID)
	if err != nil {
		return storageErr("delete file", err)
	}

	if s.artifacts != nil && file.FilePath != "" {
		if err := s.artifacts.Remove(file.FilePath); err != nil {
			logging.WithFields(ctx, "file_id", file.ID).
				Warn("could not delete uploaded file", "path", file.FilePath, "error", err)
		}
	}

	s.logAudit(ctx, AuditEvent{
		Action:       ActionFileDelete,
		OwnerID:      ownerID,
		FileID:       file.ID.String(),
		RowsAffected: file.RowCount,
	})
	return nil
}
