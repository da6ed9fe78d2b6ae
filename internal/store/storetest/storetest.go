// Package storetest holds the behaviour every core.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) core.Store

// Run exercises a Store implementation.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("ListFiles", func(t *testing.T) { testListFiles(t, newStore(t)) })
	t.Run("Pagination", func(t *testing.T) { testPagination(t, newStore(t)) })
	t.Run("Filter", func(t *testing.T) { testFilter(t, newStore(t)) })
	t.Run("CellValues", func(t *testing.T) { testCellValues(t, newStore(t)) })
	t.Run("UpdateRow", func(t *testing.T) { testUpdateRow(t, newStore(t)) })
	t.Run("DeleteFile", func(t *testing.T) { testDeleteFile(t, newStore(t)) })
	t.Run("StreamRows", func(t *testing.T) { testStreamRows(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

var baseTime = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

// NewFile builds a file and n rows with values "<header>-<index>".
func NewFile(owner string, headers []string, n int, uploadedAt time.Time) (core.ImportedFile, []core.Row) {
	file := core.ImportedFile{
		ID:            uuid.New(),
		OwnerID:       owner,
		FileName:      "csv-1-1.csv",
		OriginalName:  "contacts.csv",
		BatchName:     "Contacts",
		Category:      core.CategoryPeople,
		ColumnHeaders: headers,
		RowCount:      n,
		FilePath:      "/tmp/uploads/csv-1-1.csv",
		UploadedAt:    uploadedAt,
	}

	rows := make([]core.Row, n)
	for i := range rows {
		data := make(core.RowData, len(headers))
		for _, h := range headers {
			data[h] = core.StringCell(fmt.Sprintf("%s-%d", h, i))
		}
		rows[i] = core.Row{
			ID:        uuid.New(),
			FileID:    file.ID,
			Index:     i,
			Data:      data,
			UpdatedAt: uploadedAt,
		}
	}
	return file, rows
}

func testCreateAndGet(t *testing.T, s core.Store) {
	ctx := context.Background()
	file, rows := NewFile("alice", []string{"name", "age"}, 3, baseTime)
	require.NoError(t, s.CreateImport(ctx, file, rows))

	got, err := s.GetFile(ctx, file.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, file.FileName, got.FileName)
	assert.Equal(t, file.OriginalName, got.OriginalName)
	assert.Equal(t, file.BatchName, got.BatchName)
	assert.Equal(t, file.Category, got.Category)
	assert.Equal(t, []string{"name", "age"}, got.ColumnHeaders)
	assert.Equal(t, 3, got.RowCount)
	assert.Equal(t, file.FilePath, got.FilePath)
	assert.True(t, file.UploadedAt.Equal(got.UploadedAt), "UploadedAt = %v, want %v", got.UploadedAt, file.UploadedAt)

	_, err = s.GetFile(ctx, file.ID, "mallory")
	assert.True(t, errors.Is(err, core.ErrNotFound), "foreign owner: %v", err)

	_, err = s.GetFile(ctx, uuid.New(), "alice")
	assert.True(t, errors.Is(err, core.ErrNotFound), "unknown id: %v", err)
}

func testListFiles(t *testing.T, s core.Store) {
	ctx := context.Background()
	older, olderRows := NewFile("alice", []string{"a"}, 1, baseTime)
	newer, newerRows := NewFile("alice", []string{"a"}, 2, baseTime.Add(time.Hour))
	other, otherRows := NewFile("bob", []string{"a"}, 1, baseTime.Add(2*time.Hour))

	require.NoError(t, s.CreateImport(ctx, older, olderRows))
	require.NoError(t, s.CreateImport(ctx, newer, newerRows))
	require.NoError(t, s.CreateImport(ctx, other, otherRows))

	files, err := s.ListFiles(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, newer.ID, files[0].ID)
	assert.Equal(t, older.ID, files[1].ID)

	files, err = s.ListFiles(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func testPagination(t *testing.T, s core.Store) {
	ctx := context.Background()
	file, rows := NewFile("alice", []string{"name"}, 7, baseTime)
	require.NoError(t, s.CreateImport(ctx, file, rows))

	var collected []core.Row
	for offset := 0; offset < 9; offset += 3 {
		page, total, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Offset: offset, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		collected = append(collected, page...)
	}
	require.Len(t, collected, 7)
	for i, r := range collected {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, rows[i].ID, r.ID)
		assert.Equal(t, file.ID, r.FileID)
		assert.True(t, rows[i].Data.Equal(r.Data), "row %d data = %v", i, r.Data)
	}

	past, total, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Offset: 30, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, past)
	assert.Equal(t, 7, total)

	desc, _, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Offset: 0, Limit: 2, Desc: true})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, 6, desc[0].Index)
	assert.Equal(t, 5, desc[1].Index)
}

func testFilter(t *testing.T, s core.Store) {
	ctx := context.Background()
	file, rows := NewFile("alice", []string{"name", "city"}, 4, baseTime)
	rows[0].Data = core.RowData{"name": core.StringCell("Alice"), "city": core.StringCell("Oslo")}
	rows[1].Data = core.RowData{"name": core.StringCell("Bob"), "city": core.StringCell("Alicante")}
	rows[2].Data = core.RowData{"name": core.StringCell("alice"), "city": core.NullCell()}
	rows[3].Data = core.RowData{"name": core.StringCell("Carol"), "city": core.StringCell("Bergen")}
	require.NoError(t, s.CreateImport(ctx, file, rows))

	tests := []struct {
		filter    string
		wantIndex []int
	}{
		{"Alice", []int{0}},
		{"Alic", []int{0, 1}},
		{"alice", []int{2}},
		{"en", []int{3}},
		{"null", nil},
		{"Zed", nil},
		{"", []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, total, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Limit: 50, Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantIndex), total)

			var idx []int
			for _, r := range got {
				idx = append(idx, r.Index)
			}
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func testCellValues(t *testing.T, s core.Store) {
	ctx := context.Background()
	num, err := core.NumberCell("30")
	require.NoError(t, err)
	dec, err := core.NumberCell("-1.25")
	require.NoError(t, err)
	price, err := core.NumberCell("1.50")
	require.NoError(t, err)
	hundred, err := core.NumberCell("1e2")
	require.NoError(t, err)

	file, rows := NewFile("alice", []string{"name", "age", "score", "price", "qty", "note", "empty"}, 1, baseTime)
	rows[0].Data = core.RowData{
		"name":  core.StringCell("Zoë \"Z\" Ångström, 日本"),
		"age":   num,
		"score": dec,
		"price": price,
		"qty":   hundred,
		"note":  core.NullCell(),
		"empty": core.StringCell(""),
	}
	require.NoError(t, s.CreateImport(ctx, file, rows))

	got, _, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, rows[0].Data.Equal(got[0].Data), "data = %v, want %v", got[0].Data, rows[0].Data)

	filters := []struct {
		filter string
		want   int
	}{
		{"30", 1},
		{"1.5", 1},
		{"1.50", 0},
		{"100", 1},
		{"1e2", 0},
	}
	for _, f := range filters {
		filtered, total, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Limit: 10, Filter: f.filter})
		require.NoError(t, err)
		assert.Equal(t, f.want, total, "numbers match by their canonical text: filter %q", f.filter)
		assert.Len(t, filtered, f.want)
	}
}

func testUpdateRow(t *testing.T, s core.Store) {
	ctx := context.Background()
	file, rows := NewFile("alice", []string{"name", "age"}, 2, baseTime)
	require.NoError(t, s.CreateImport(ctx, file, rows))

	data := core.RowData{"name": core.StringCell("Bobby"), "extra": core.StringCell("kept")}
	updated, err := s.UpdateRow(ctx, rows[1].ID, "alice", data)
	require.NoError(t, err)
	assert.Equal(t, rows[1].ID, updated.ID)
	assert.Equal(t, file.ID, updated.FileID)
	assert.Equal(t, 1, updated.Index)
	assert.True(t, data.Equal(updated.Data))

	again, err := s.UpdateRow(ctx, rows[1].ID, "alice", data)
	require.NoError(t, err)
	assert.True(t, updated.Data.Equal(again.Data))

	got, total, err := s.ListRows(ctx, core.RowQuery{FileID: file.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.True(t, rows[0].Data.Equal(got[0].Data), "untouched row changed")
	assert.True(t, data.Equal(got[1].Data), "update not persisted: %v", got[1].Data)

	_, err = s.UpdateRow(ctx, rows[0].ID, "mallory", data)
	assert.True(t, errors.Is(err, core.ErrNotFound), "foreign owner: %v", err)

	_, err = s.UpdateRow(ctx, uuid.New(), "alice", data)
	assert.True(t, errors.Is(err, core.ErrNotFound), "unknown row: %v", err)
}

func testDeleteFile(t *testing.T, s core.Store) {
	ctx := context.Background()
	file, rows := NewFile("alice", []string{"name"}, 3, baseTime)
	keep, keepRows := NewFile("alice", []string{"name"}, 1, baseTime)
	require.NoError(t, s.CreateImport(ctx, file, rows))
	require.NoError(t, s.CreateImport(ctx, keep, keepRows))

	_, err := s.DeleteFile(ctx, file.ID, "mallory")
	assert.True(t, errors.Is(err, core.ErrNotFound), "foreign owner: %v", err)

	deleted, err := s.DeleteFile(ctx, file.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, file.ID, deleted.ID)
	assert.Equal(t, file.FilePath, deleted.FilePath)

	_, err = s.GetFile(ctx, file.ID, "alice")
	assert.True(t, errors.Is(err, core.ErrNotFound), "get after delete: %v", err)

	_, err = s.UpdateRow(ctx, rows[0].ID, "alice", core.RowData{})
	assert.True(t, errors.Is(err, core.ErrNotFound), "update after delete: %v", err)

	_, err = s.DeleteFile(ctx, file.ID, "alice")
	assert.True(t, errors.Is(err, core.ErrNotFound), "second delete: %v", err)

	remaining, total, err := s.ListRows(ctx, core.RowQuery{FileID: keep.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, remaining, 1)
}

func testStreamRows(t *testing.T, s core.Store) {
	ctx := context.Background()
	file, rows := NewFile("alice", []string{"name"}, 5, baseTime)
	require.NoError(t, s.CreateImport(ctx, file, rows))

	var seen []int
	require.NoError(t, s.StreamRows(ctx, file.ID, func(r core.Row) error {
		seen = append(seen, r.Index)
		return nil
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)

	stop := errors.New("stop")
	calls := 0
	err := s.StreamRows(ctx, file.ID, func(core.Row) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.True(t, errors.Is(err, stop), "StreamRows() error = %v, want %v", err, stop)
	assert.Equal(t, 2, calls)
}
