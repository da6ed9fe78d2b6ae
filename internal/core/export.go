package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ExportCSV writes a file's headers and every row, in index order, to w.
// Null cells are written empty and numbers as their canonical literal, so parsing
// the output reproduces the headers and the values of unedited rows.
func (s *Service) ExportCSV(ctx context.Context, fileID, ownerID string, w io.Writer) error {
	file, err := s.GetFile(ctx, fileID, ownerID)
	if err != nil {
		return err
	}
	return s.ExportFile(ctx, file, w)
}

// ExportFile is ExportCSV for a file already resolved by GetFile, so
// callers that need the metadata first do a single ownership lookup.
func (s *Service) ExportFile(ctx context.Context, file *ImportedFile, w io.Writer) error {
	if file == nil {
		return ErrNotFound
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(file.ColumnHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(file.ColumnHeaders))
	err := s.store.StreamRows(ctx, file.ID, func(r Row) error {
		for i, h := range file.ColumnHeaders {
			record[i] = r.Data[h].Text()
		}
		return cw.Write(record)
	})
	if err != nil {
		return storageErr("stream rows", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	s.logAudit(ctx, AuditEvent{
		Action:       ActionExport,
		OwnerID:      file.OwnerID,
		FileID:       file.ID.String(),
		RowsAffected: file.RowCount,
	})
	return nil
}

// ExportFileName is the download name offered for an export.
func ExportFileName(file ImportedFile) string {
	name := strings.TrimSpace(file.BatchName)
	if name == "" {
		name = file.OriginalName
	}
	name = strings.TrimSuffix(name, ".csv")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n':
			return '_'
		}
		return r
	}, name)
	return name + "_export.csv"
}
