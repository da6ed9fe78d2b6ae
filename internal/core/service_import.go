package core

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/logging"
	"github.com/google/uuid"
)

// ImportBatch parses an upload and stores it as one file with its rows.
//
// The steps run in order: parse (a *ParseError aborts before anything
// else), owner check, defaults for name and category, wait for an import
// slot, save the raw artifact, then store file and rows in one unit. If
// storing fails the artifact is removed again, so a failed import leaves
// nothing behind.
func (s *Service) ImportBatch(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	parsed, err := ParseCSV(req.Content)
	if err != nil {
		return nil, err
	}

	if err := requireOwner(req.OwnerID); err != nil {
		return nil, err
	}

	category, err := ResolveCategory(req.Category)
	if err != nil {
		return nil, err
	}

	originalName := filepath.Base(strings.TrimSpace(req.FileName))
	if originalName == "." || originalName == string(filepath.Separator) {
		originalName = "upload.csv"
	}
	batchName := strings.TrimSpace(req.BatchName)
	if batchName == "" {
		batchName = originalName
	}

	logger := logging.WithFields(ctx,
		"owner", req.OwnerID,
		"file_name", originalName,
		"batch_type", string(category),
	)
	if len(parsed.DuplicateHeaders) > 0 {
		logger.Warn("duplicate headers, right-most value kept", "headers", parsed.DuplicateHeaders)
	}

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			logger.Warn("import slot unavailable", "error", err)
			return nil, err
		}
		defer s.limiter.Release()
	}

	file := ImportedFile{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		FileName:      originalName,
		OriginalName:  originalName,
		BatchName:     batchName,
		Category:      category,
		ColumnHeaders: parsed.Headers,
		RowCount:      len(parsed.Rows),
		UploadedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if s.artifacts != nil {
		path, err := s.artifacts.Save(ctx, originalName, req.Content)
		if err != nil {
			logger.Error("save artifact failed", "error", err)
			return nil, &StorageError{Op: "save artifact", Err: err}
		}
		file.FilePath = path
		file.FileName = filepath.Base(path)
	}

	rows := make([]Row, len(parsed.Rows))
	for i, data := range parsed.Rows {
		rows[i] = Row{
			ID:        uuid.New(),
			FileID:    file.ID,
			Index:     i,
			Data:      data,
			UpdatedAt: file.UploadedAt,
		}
	}

	if err := s.store.CreateImport(ctx, file, rows); err != nil {
		logger.Error("store import failed", "error", err, "rows", len(rows))
		s.discardArtifact(ctx, file.FilePath)
		return nil, storageErr("create import", err)
	}

	logger.Info("import stored", "file_id", file.ID, "rows", file.RowCount)
	s.logAudit(ctx, AuditEvent{
		Action:       ActionImport,
		OwnerID:      file.OwnerID,
		FileID:       file.ID.String(),
		RowsAffected: file.RowCount,
	})

	preview := make([]RowData, 0, min(PreviewRows, len(rows)))
	for _, r := range rows[:min(PreviewRows, len(rows))] {
		preview = append(preview, r.Data)
	}

	return &ImportResult{
		File:             file,
		Preview:          preview,
		DuplicateHeaders: parsed.DuplicateHeaders,
	}, nil
}

// discardArtifact removes an artifact best-effort; failures are only logged.
func (s *Service) discardArtifact(ctx context.Context, path string) {
	if s.artifacts == nil || path == "" {
		return
	}
	if err := s.artifacts.Remove(path); err != nil {
		logging.FromContext(ctx).Warn("remove artifact failed", "path", path, "error", err)
	}
}
