package core_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	_ "github.com/JonMunkholm/csvbatch/internal/core/fields"
	"github.com/JonMunkholm/csvbatch/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = "name,age\nAlice,30\nBob,\n"

func newService(t *testing.T, store core.Store, opts core.Options) *core.Service {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	svc, err := core.NewService(store, opts)
	require.NoError(t, err)
	return svc
}

func importPeople(t *testing.T, svc *core.Service, owner string) *core.ImportResult {
	t.Helper()
	result, err := svc.ImportBatch(context.Background(), core.ImportRequest{
		OwnerID:   owner,
		FileName:  "people.csv",
		Content:   []byte(peopleCSV),
		BatchName: "Test",
		Category:  "People",
	})
	require.NoError(t, err)
	return result
}

func listAll(t *testing.T, svc *core.Service, fileID, owner string) *core.RowPage {
	t.Helper()
	page, err := svc.ListRows(context.Background(), core.ListRowsParams{
		FileID: fileID, OwnerID: owner, Page: 1, Limit: 50,
	})
	require.NoError(t, err)
	return page
}

func TestImportBatch_ListRows(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil, core.Options{})

	result := importPeople(t, svc, "alice")
	file := result.File

	assert.Equal(t, 2, file.RowCount)
	assert.Equal(t, "Test", file.BatchName)
	assert.Equal(t, core.CategoryPeople, file.Category)
	assert.Equal(t, "people.csv", file.OriginalName)
	assert.Equal(t, []string{"name", "age"}, file.ColumnHeaders)
	require.Len(t, result.Preview, 2)
	assert.Equal(t, "Alice", result.Preview[0]["name"].Text())

	page := listAll(t, svc, file.ID.String(), "alice")
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.PageCount)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "Alice", page.Rows[0].Data["name"].Text())
	assert.Equal(t, "30", page.Rows[0].Data["age"].Text())
	assert.Equal(t, "Bob", page.Rows[1].Data["name"].Text())
	assert.Equal(t, "", page.Rows[1].Data["age"].Text())

	filtered, err := svc.ListRows(ctx, core.ListRowsParams{
		FileID: file.ID.String(), OwnerID: "alice", Page: 1, Limit: 50, Filter: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Total)
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "Alice", filtered.Rows[0].Data["name"].Text())

	noMatch, err := svc.ListRows(ctx, core.ListRowsParams{
		FileID: file.ID.String(), OwnerID: "alice", Page: 1, Limit: 50, Filter: "alice",
	})
	require.NoError(t, err)
	assert.Zero(t, noMatch.Total)
	assert.Empty(t, noMatch.Rows)
}

func TestImportBatch_Defaults(t *testing.T) {
	svc := newService(t, nil, core.Options{})

	result, err := svc.ImportBatch(context.Background(), core.ImportRequest{
		OwnerID:  "alice",
		FileName: "accounts.csv",
		Content:  []byte("Company Name,Website\nAcme,acme.test\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "accounts.csv", result.File.BatchName)
	assert.Equal(t, core.DefaultCategory, result.File.Category)
}

func TestImportBatch_Errors(t *testing.T) {
	tests := []struct {
		name  string
		req   core.ImportRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "no owner",
			req:  core.ImportRequest{FileName: "a.csv", Content: []byte(peopleCSV)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, core.ErrUnauthorized)
			},
		},
		{
			name: "malformed before owner check",
			req:  core.ImportRequest{FileName: "a.csv", Content: []byte("a,b\n\"x,1\n")},
			check: func(t *testing.T, err error) {
				var perr *core.ParseError
				require.ErrorAs(t, err, &perr)
				assert.NotEmpty(t, perr.Issues)
			},
		},
		{
			name: "empty content",
			req:  core.ImportRequest{OwnerID: "alice", FileName: "a.csv", Content: nil},
			check: func(t *testing.T, err error) {
				var perr *core.ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name: "unknown category",
			req:  core.ImportRequest{OwnerID: "alice", FileName: "a.csv", Content: []byte(peopleCSV), Category: "Vendors"},
			check: func(t *testing.T, err error) {
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, core.ReasonInvalidCategory, verr.Fields["batchType"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			svc := newService(t, store, core.Options{})

			_, err := svc.ImportBatch(context.Background(), tt.req)
			require.Error(t, err)
			tt.check(t, err)

			files, err := store.ListFiles(context.Background(), "alice")
			require.NoError(t, err)
			assert.Empty(t, files)
		})
	}
}

func TestImportBatch_StoresArtifact(t *testing.T) {
	dir := t.TempDir()
	artifacts, err := core.NewDiskArtifacts(dir)
	require.NoError(t, err)
	svc := newService(t, nil, core.Options{Artifacts: artifacts})

	result := importPeople(t, svc, "alice")

	assert.Regexp(t, `^csv-\d+-\d+\.csv$`, result.File.FileName)
	saved, err := os.ReadFile(filepath.Join(dir, result.File.FileName))
	require.NoError(t, err)
	assert.Equal(t, peopleCSV, string(saved))

	require.NoError(t, svc.DeleteFile(context.Background(), result.File.ID.String(), "alice"))
	assert.NoFileExists(t, filepath.Join(dir, result.File.FileName))
}

// failingStore fails every CreateImport.
type failingStore struct {
	core.Store
}

func (failingStore) CreateImport(context.Context, core.ImportedFile, []core.Row) error {
	return errors.New("connection refused")
}

func TestImportBatch_StoreFailureRemovesArtifact(t *testing.T) {
	dir := t.TempDir()
	artifacts, err := core.NewDiskArtifacts(dir)
	require.NoError(t, err)
	svc := newService(t, failingStore{Store: memory.New()}, core.Options{Artifacts: artifacts})

	_, err = svc.ImportBatch(context.Background(), core.ImportRequest{
		OwnerID: "alice", FileName: "people.csv", Content: []byte(peopleCSV),
	})

	var serr *core.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "DB002", core.MapError(err).Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// busyLimiter never grants a slot.
type busyLimiter struct{ released int }

func (*busyLimiter) Acquire(context.Context) error { return core.ErrTooManyImports }
func (l *busyLimiter) Release()                      { l.released++ }

func TestImportBatch_LimiterBusy(t *testing.T) {
	lim := &busyLimiter{}
	store := memory.New()
	svc := newService(t, store, core.Options{Limiter: lim})

	_, err := svc.ImportBatch(context.Background(), core.ImportRequest{
		OwnerID: "alice", FileName: "people.csv", Content: []byte(peopleCSV),
	})

	assert.ErrorIs(t, err, core.ErrTooManyImports)
	assert.Zero(t, lim.released)
	files, err := store.ListFiles(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListRows_Pagination(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil, core.Options{})

	var buf bytes.Buffer
	buf.WriteString("n\n")
	for i := 0; i < 7; i++ {
		buf.WriteString(string(rune('a'+i)) + "\n")
	}
	result, err := svc.ImportBatch(ctx, core.ImportRequest{
		OwnerID: "alice", FileName: "letters.csv", Content: buf.Bytes(),
	})
	require.NoError(t, err)
	id := result.File.ID.String()

	for _, sort := range []core.SortDirection{core.SortAsc, core.SortDesc} {
		t.Run(string(sort), func(t *testing.T) {
			var got []int
			for page := 1; page <= 3; page++ {
				p, err := svc.ListRows(ctx, core.ListRowsParams{
					FileID: id, OwnerID: "alice", Page: page, Limit: 3, Sort: sort,
				})
				require.NoError(t, err)
				assert.Equal(t, 7, p.Total)
				assert.Equal(t, 3, p.PageCount)
				for _, r := range p.Rows {
					got = append(got, r.Index)
				}
			}

			want := []int{0, 1, 2, 3, 4, 5, 6}
			if sort == core.SortDesc {
				want = []int{6, 5, 4, 3, 2, 1, 0}
			}
			assert.Equal(t, want, got)
		})
	}

	for _, page := range []int{9, math.MaxInt / 3} {
		past, err := svc.ListRows(ctx, core.ListRowsParams{FileID: id, OwnerID: "alice", Page: page, Limit: 3})
		require.NoError(t, err)
		assert.Empty(t, past.Rows, "page %d", page)
		assert.Equal(t, 7, past.Total)
	}
}

func TestListRows_Errors(t *testing.T) {
	svc := newService(t, nil, core.Options{})
	id := importPeople(t, svc, "alice").File.ID.String()

	tests := []struct {
		name   string
		params core.ListRowsParams
		want   error
		field  string
	}{
		{name: "no owner", params: core.ListRowsParams{FileID: id, Page: 1, Limit: 10}, want: core.ErrUnauthorized},
		{name: "other owner", params: core.ListRowsParams{FileID: id, OwnerID: "bob", Page: 1, Limit: 10}, want: core.ErrNotFound},
		{name: "malformed id", params: core.ListRowsParams{FileID: "not-a-uuid", OwnerID: "alice", Page: 1, Limit: 10}, want: core.ErrNotFound},
		{name: "page zero", params: core.ListRowsParams{FileID: id, OwnerID: "alice", Page: 0, Limit: 10}, field: "page"},
		{name: "limit zero", params: core.ListRowsParams{FileID: id, OwnerID: "alice", Page: 1, Limit: 0}, field: "limit"},
		{name: "limit too big", params: core.ListRowsParams{FileID: id, OwnerID: "alice", Page: 1, Limit: core.MaxLimit + 1}, field: "limit"},
		{name: "bad sort", params: core.ListRowsParams{FileID: id, OwnerID: "alice", Page: 1, Limit: 10, Sort: "sideways"}, field: "sort"},
		{name: "offset overflows", params: core.ListRowsParams{FileID: id, OwnerID: "alice", Page: 6148914691236517206, Limit: 3}, field: "page"},
		{name: "page times limit overflows", params: core.ListRowsParams{FileID: id, OwnerID: "alice", Page: math.MaxInt/core.MaxLimit + 1, Limit: core.MaxLimit}, field: "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListRows(context.Background(), tt.params)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestListFiles(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, nil, core.Options{Now: func() time.Time {
		now = now.Add(time.Minute)
		return now
	}})

	first := importPeople(t, svc, "alice").File
	second := importPeople(t, svc, "alice").File
	importPeople(t, svc, "bob")

	files, err := svc.ListFiles(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, second.ID, files[0].ID)
	assert.Equal(t, first.ID, files[1].ID)

	none, err := svc.ListFiles(context.Background(), "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.ListFiles(context.Background(), " ")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUpdateRow(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil, core.Options{})
	file := importPeople(t, svc, "alice").File
	rowID := listAll(t, svc, file.ID.String(), "alice").Rows[1].ID.String()

	age, err := core.NumberCell("41")
	require.NoError(t, err)
	data := core.RowData{"name": core.StringCell("Bob"), "age": age}

	first, err := svc.UpdateRow(ctx, rowID, "alice", data)
	require.NoError(t, err)
	second, err := svc.UpdateRow(ctx, rowID, "alice", data)
	require.NoError(t, err)
	assert.True(t, first.Data.Equal(second.Data))
	assert.Equal(t, 1, second.Index)

	page := listAll(t, svc, file.ID.String(), "alice")
	assert.Equal(t, core.CellNumber, page.Rows[1].Data["age"].Kind())
	assert.Equal(t, "41", page.Rows[1].Data["age"].Text())
	assert.Equal(t, "30", page.Rows[0].Data["age"].Text())

	_, err = svc.UpdateRow(ctx, rowID, "bob", data)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.UpdateRow(ctx, "nope", "alice", data)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.UpdateRow(ctx, rowID, "", data)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.UpdateRow(ctx, rowID, "alice", nil)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteFile(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil, core.Options{})
	id := importPeople(t, svc, "alice").File.ID.String()

	assert.ErrorIs(t, svc.DeleteFile(ctx, id, "bob"), core.ErrNotFound)
	require.NoError(t, svc.DeleteFile(ctx, id, "alice"))

	_, err := svc.ListRows(ctx, core.ListRowsParams{FileID: id, OwnerID: "alice", Page: 1, Limit: 50})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteFile(ctx, id, "alice"), core.ErrNotFound)
}

func TestExportCSV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil, core.Options{})

	content := "name,notes\n\"Smith, Jane\",\"said \"\"hi\"\"\"\nBob,\n"
	result, err := svc.ImportBatch(ctx, core.ImportRequest{
		OwnerID: "alice", FileName: "quotes.csv", Content: []byte(content),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, result.File.ID.String(), "alice", &out))

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "notes"},
		{"Smith, Jane", `said "hi"`},
		{"Bob", ""},
	}, records)

	reparsed, err := core.ParseCSV([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, reparsed.Headers, result.File.ColumnHeaders)

	var nothing bytes.Buffer
	err = svc.ExportCSV(ctx, result.File.ID.String(), "bob", &nothing)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Zero(t, nothing.Len())
}

// countingStore counts ownership lookups.
type countingStore struct {
	core.Store
	getFile int
}

func (s *countingStore) GetFile(ctx context.Context, id uuid.UUID, owner string) (*core.ImportedFile, error) {
	s.getFile++
	return s.Store.GetFile(ctx, id, owner)
}

func TestExportFile_SingleLookup(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.New()}
	svc := newService(t, store, core.Options{})
	id := importPeople(t, svc, "alice").File.ID.String()

	file, err := svc.GetFile(ctx, id, "alice")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, svc.ExportFile(ctx, file, &out))
	assert.Equal(t, 1, store.getFile)
	assert.Equal(t, "name,age\nAlice,30\nBob,\n", out.String())

	assert.ErrorIs(t, svc.ExportFile(ctx, nil, &out), core.ErrNotFound)
}

func TestService_Mapping(t *testing.T) {
	svc := newService(t, nil, core.Options{})

	m, err := svc.SuggestMapping([]string{"First Name", "Surname", "Last Name"}, "People")
	require.NoError(t, err)
	assert.Equal(t, "First Name", m["firstName"])
	assert.Equal(t, "Last Name", m["lastName"])

	m, err = svc.SuggestMapping([]string{"First Name"}, "People")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, core.ReasonMissingRequiredField, verr.Fields["lastName"])
	assert.Equal(t, "First Name", m["firstName"])

	_, err = svc.SuggestMapping([]string{"x"}, "Vendors")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, core.ReasonInvalidCategory, verr.Fields["batchType"])

	err = svc.ValidateMapping("People", core.FieldMapping{"firstName": "Name", "lastName": "Name"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, core.ReasonDuplicateColumnMapping, verr.Fields["firstName"])
	assert.Equal(t, core.ReasonDuplicateColumnMapping, verr.Fields["lastName"])

	assert.NoError(t, svc.ValidateMapping("People", core.FieldMapping{"firstName": "F", "lastName": "L"}))
}

func TestService_CustomSuggester(t *testing.T) {
	called := false
	svc := newService(t, nil, core.Options{
		Suggester: func(headers []string, fields []core.SystemField) core.FieldMapping {
			called = true
			return core.FieldMapping{"firstName": headers[0], "lastName": headers[1]}
		},
	})

	m, err := svc.SuggestMapping([]string{"a", "b"}, "People")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "a", m["firstName"])
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := core.NewService(nil, core.Options{})
	assert.Error(t, err)
}
