// Package memory is a process-local core.Store used by tests and by the
// "memory" store driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	files map[uuid.UUID]*fileRecord
	rows  map[uuid.UUID]rowRef
}

type fileRecord struct {
	file core.ImportedFile
	rows []core.Row // ordered by Index
}

type rowRef struct {
	fileID uuid.UUID
	pos    int
}

func New() *Store {
	return &Store{
		files: make(map[uuid.UUID]*fileRecord),
		rows:  make(map[uuid.UUID]rowRef),
	}
}

func (s *Store) CreateImport(ctx context.Context, file core.ImportedFile, rows []core.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[file.ID]; exists {
		return fmt.Errorf("file %s already exists", file.ID)
	}

	stored := make([]core.Row, len(rows))
	seen := make(map[uuid.UUID]bool, len(rows))
	for i, r := range rows {
		if _, exists := s.rows[r.ID]; exists || seen[r.ID] {
			return fmt.Errorf("row %s already exists", r.ID)
		}
		seen[r.ID] = true
		stored[i] = copyRow(r)
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Index < stored[j].Index })

	s.files[file.ID] = &fileRecord{file: copyFile(file), rows: stored}
	for i, r := range stored {
		s.rows[r.ID] = rowRef{fileID: file.ID, pos: i}
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*core.ImportedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.owned(fileID, ownerID)
	if err != nil {
		return nil, err
	}
	f := copyFile(rec.file)
	return &f, nil
}

func (s *Store) ListFiles(ctx context.Context, ownerID string) ([]core.ImportedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]core.ImportedFile, 0)
	for _, rec := range s.files {
		if rec.file.OwnerID == ownerID {
			files = append(files, copyFile(rec.file))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].UploadedAt.Equal(files[j].UploadedAt) {
			return files[i].UploadedAt.After(files[j].UploadedAt)
		}
		return files[i].ID.String() < files[j].ID.String()
	})
	return files, nil
}

func (s *Store) ListRows(ctx context.Context, q core.RowQuery) ([]core.Row, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[q.FileID]
	if !ok {
		return nil, 0, core.ErrNotFound
	}

	total := 0
	start, end := q.Offset, q.Offset+q.Limit
	items := make([]core.Row, 0, q.Limit)

	n := len(rec.rows)
	for i := 0; i < n; i++ {
		r := rec.rows[i]
		if q.Desc {
			r = rec.rows[n-1-i]
		}
		if q.Filter != "" && !r.Data.Contains(q.Filter) {
			continue
		}

		if total >= start && total < end {
			items = append(items, copyRow(r))
		}
		total++
	}

	return items, total, nil
}

func (s *Store) StreamRows(ctx context.Context, fileID uuid.UUID, fn func(core.Row) error) error {
	s.mu.RLock()
	rec, ok := s.files[fileID]
	var snapshot []core.Row
	if ok {
		snapshot = make([]core.Row, len(rec.rows))
		for i, r := range rec.rows {
			snapshot[i] = copyRow(r)
		}
	}
	s.mu.RUnlock()

	if !ok {
		return core.ErrNotFound
	}

	for _, r := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, rowID uuid.UUID, ownerID string, data core.RowData) (*core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.rows[rowID]
	if !ok {
		return nil, core.ErrNotFound
	}
	rec, err := s.owned(ref.fileID, ownerID)
	if err != nil {
		return nil, err
	}

	row := &rec.rows[ref.pos]
	row.Data = data.Clone()
	row.UpdatedAt = time.Now().UTC()

	out := copyRow(*row)
	return &out, nil
}

func (s *Store) DeleteFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*core.ImportedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.owned(fileID, ownerID)
	if err != nil {
		return nil, err
	}

	for _, r := range rec.rows {
		delete(s.rows, r.ID)
	}
	delete(s.files, fileID)

	f := copyFile(rec.file)
	return &f, nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// owned must be called with s.mu held.
func (s *Store) owned(fileID uuid.UUID, ownerID string) (*fileRecord, error) {
	rec, ok := s.files[fileID]
	if !ok || rec.file.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	return rec, nil
}

func copyFile(f core.ImportedFile) core.ImportedFile {
	f.ColumnHeaders = append([]string(nil), f.ColumnHeaders...)
	return f
}

func copyRow(r core.Row) core.Row {
	r.Data = r.Data.Clone()
	return r
}
