package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/auth"
	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/JonMunkholm/csvbatch/internal/core"
	_ "github.com/JonMunkholm/csvbatch/internal/core/fields"
	"github.com/JonMunkholm/csvbatch/internal/limiter"
	"github.com/JonMunkholm/csvbatch/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCSV = "name,age\nAlice,30\nBob,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload: config.UploadConfig{MaxFileSize: 10 << 20},
		Security: config.SecurityConfig{
			EnableCSP:   true,
			CORSOrigins: []string{"http://localhost:3000"},
		},
	}
}

type testEnv struct {
	server *Server
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	svc, err := core.NewService(memory.New(), core.Options{
		Artifacts: must(core.NewDiskArtifacts(t.TempDir())),
	})
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	s := NewServer(svc, cfg, tokens, limiter.NewLocal(2, time.Second))
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return &testEnv{server: s, tokens: tokens}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func (e *testEnv) token(t *testing.T, owner string) string {
	t.Helper()
	tok, err := e.tokens.Generate(owner)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, req *http.Request, owner string) *httptest.ResponseRecorder {
	t.Helper()
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, owner))
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("csvFile", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/csv/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// upload imports scenarioCSV for owner and returns the response.
func (e *testEnv) upload(t *testing.T, owner string) uploadResponse {
	t.Helper()
	rec := e.do(t, uploadRequest(t, "people.csv", scenarioCSV, map[string]string{
		"batchName": "Test",
		"batchType": "People",
	}), owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[uploadResponse](t, rec)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["activeImports"])
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp := env.upload(t, "user-1")

	assert.True(t, resp.Success)
	assert.Equal(t, "Test", resp.CSVFile.BatchName)
	assert.Equal(t, core.CategoryPeople, resp.CSVFile.BatchType)
	assert.Equal(t, "people.csv", resp.CSVFile.OriginalName)
	assert.Equal(t, []string{"name", "age"}, resp.CSVFile.ColumnHeaders)
	assert.Equal(t, 2, resp.CSVFile.RowCount)
	require.Len(t, resp.Preview, 2)
	assert.Equal(t, "Alice", resp.Preview[0]["name"].Text())
	assert.Equal(t, "", resp.Preview[1]["age"].Text())
	assert.Empty(t, resp.Warnings)
}

func TestUpload_DuplicateHeadersWarn(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, uploadRequest(t, "dup.csv", "id,name,name\n1,a,b\n", nil), "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[uploadResponse](t, rec)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "name")
	assert.Equal(t, "b", resp.Preview[0]["name"].Text())
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func(*config.Config)
		filename string
		content  string
		fields   map[string]string
		owner    string
		wantCode int
		wantErr  string
	}{
		{
			name:     "no token",
			filename: "a.csv",
			content:  scenarioCSV,
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH001",
		},
		{
			name:     "no file",
			owner:    "user-1",
			fields:   map[string]string{"batchName": "x"},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE003",
		},
		{
			name:     "not csv",
			filename: "report.xlsx",
			content:  scenarioCSV,
			owner:    "user-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE002",
		},
		{
			name:     "too large",
			cfg:      func(c *config.Config) { c.Upload.MaxFileSize = 8 },
			filename: "a.csv",
			content:  scenarioCSV,
			owner:    "user-1",
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
		{
			name:     "malformed csv",
			filename: "a.csv",
			content:  "a,b\n\"x,1\n",
			owner:    "user-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "CSV001",
		},
		{
			name:     "empty csv",
			filename: "a.csv",
			content:  "",
			owner:    "user-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "CSV001",
		},
		{
			name:     "unknown category",
			filename: "a.csv",
			content:  scenarioCSV,
			fields:   map[string]string{"batchType": "Vendors"},
			owner:    "user-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "MAP001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			env := newTestEnv(t, cfg)

			rec := env.do(t, uploadRequest(t, tt.filename, tt.content, tt.fields), tt.owner)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantErr, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestUpload_ParseIssuesReturned(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, uploadRequest(t, "a.csv", "a,b\n\"x,1\n", nil), "user-1")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.NotEmpty(t, resp.Issues)
	assert.Contains(t, resp.Error, "invalid csv")
}

func TestUpload_InvalidToken(t *testing.T) {
	env := newTestEnv(t, testConfig())

	req := uploadRequest(t, "a.csv", scenarioCSV, nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := env.do(t, req, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH001", decode[ErrorResponse](t, rec).Code)
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t, testConfig())
	first := env.upload(t, "user-1")
	env.upload(t, "user-2")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/files", nil), "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		CSVFiles []core.ImportedFile `json:"csvFiles"`
	}](t, rec)
	require.Len(t, body.CSVFiles, 1)
	assert.Equal(t, first.CSVFile.ID, body.CSVFiles[0].ID.String())
}

func TestListRows(t *testing.T) {
	env := newTestEnv(t, testConfig())
	file := env.upload(t, "user-1")
	base := "/api/csv/" + file.CSVFile.ID + "/data"

	t.Run("defaults", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, base, nil), "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[rowsResponse](t, rec)
		require.Len(t, body.Data, 2)
		assert.Equal(t, pagination{Page: 1, Limit: 50, Total: 2, Pages: 1}, body.Pagination)
		assert.Equal(t, 0, body.Data[0].Index)
		assert.Equal(t, "Alice", body.Data[0].Data["name"].Text())
		assert.Equal(t, file.CSVFile.ID, body.CSVFile.ID.String())
	})

	t.Run("filter", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, base+"?filter=Alice", nil), "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[rowsResponse](t, rec)
		require.Len(t, body.Data, 1)
		assert.Equal(t, 1, body.Pagination.Total)
		assert.Equal(t, "Alice", body.Data[0].Data["name"].Text())
	})

	t.Run("desc paged", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, base+"?sort=desc&limit=1&page=1", nil), "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[rowsResponse](t, rec)
		require.Len(t, body.Data, 1)
		assert.Equal(t, 1, body.Data[0].Index)
		assert.Equal(t, 2, body.Pagination.Pages)
	})

	t.Run("past the end", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, base+"?page=9", nil), "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[rowsResponse](t, rec).Data)
	})

	t.Run("invalid params", func(t *testing.T) {
		for _, q := range []string{"?page=abc", "?page=0", "?limit=0", "?limit=10001", "?sort=sideways",
			"?page=6148914691236517206&limit=3"} {
			rec := env.do(t, httptest.NewRequest(http.MethodGet, base+q, nil), "user-1")

			require.Equal(t, http.StatusBadRequest, rec.Code, q)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "MAP001", resp.Code, q)
			assert.NotEmpty(t, resp.Fields, q)
		}
	})

	t.Run("other owner", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, base, nil), "user-2")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NF001", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/not-a-uuid/data", nil), "user-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateRow(t *testing.T) {
	env := newTestEnv(t, testConfig())
	file := env.upload(t, "user-1")

	list := env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/"+file.CSVFile.ID+"/data", nil), "user-1")
	rowID := decode[rowsResponse](t, list).Data[1].ID.String()

	payload := map[string]any{"rowData": map[string]any{"name": "Bob", "age": 41}}

	for i := 0; i < 2; i++ {
		rec := env.do(t, jsonRequest(t, http.MethodPut, "/api/csv/rows/"+rowID, payload), "user-1")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode[struct {
			Success bool     `json:"success"`
			Row     core.Row `json:"row"`
		}](t, rec)
		assert.True(t, body.Success)
		assert.Equal(t, 1, body.Row.Index)
		assert.Equal(t, "41", body.Row.Data["age"].Text())
		assert.Equal(t, core.CellNumber, body.Row.Data["age"].Kind())
	}

	t.Run("other owner", func(t *testing.T) {
		rec := env.do(t, jsonRequest(t, http.MethodPut, "/api/csv/rows/"+rowID, payload), "user-2")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing rowData", func(t *testing.T) {
		rec := env.do(t, jsonRequest(t, http.MethodPut, "/api/csv/rows/"+rowID, map[string]any{}), "user-1")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[ErrorResponse](t, rec)
		assert.Equal(t, string(core.ReasonMissingRequiredField), resp.Fields["rowData"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/csv/rows/"+rowID, strings.NewReader("{"))
		rec := env.do(t, req, "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("nested value", func(t *testing.T) {
		bad := map[string]any{"rowData": map[string]any{"name": []int{1}}}
		rec := env.do(t, jsonRequest(t, http.MethodPut, "/api/csv/rows/"+rowID, bad), "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, testConfig())
	file := env.upload(t, "user-1")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/"+file.CSVFile.ID+"/export", nil), "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Test_export.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", ""}}, records)

	t.Run("missing file", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/"+file.CSVFile.ID+"/export", nil), "user-2")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t, testConfig())
	file := env.upload(t, "user-1")
	target := "/api/csv/" + file.CSVFile.ID

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, target, nil), "user-2")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, target, nil), "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, target+"/data", nil), "user-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, target, nil), "user-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFields(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/fields/People", nil), "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Fields []core.SystemField `json:"fields"`
	}](t, rec)
	require.NotEmpty(t, body.Fields)
	assert.Equal(t, core.SystemField{Key: "firstName", Label: "First Name", Required: true}, body.Fields[0])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/csv/fields/Vendors", nil), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestMapping(t *testing.T) {
	env := newTestEnv(t, testConfig())

	t.Run("valid", func(t *testing.T) {
		rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/csv/mapping/suggest", map[string]any{
			"headers":   []string{"First Name", "Last Name", "Email Address"},
			"batchType": "People",
		}), "user-1")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[mappingResponse](t, rec)
		assert.True(t, resp.Valid)
		assert.Equal(t, "First Name", resp.Mapping["firstName"])
		assert.Equal(t, "Last Name", resp.Mapping["lastName"])
		assert.Equal(t, "Email Address", resp.Mapping["email"])
	})

	t.Run("missing required", func(t *testing.T) {
		rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/csv/mapping/suggest", map[string]any{
			"headers":   []string{"First Name"},
			"batchType": "People",
		}), "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[mappingResponse](t, rec)
		assert.False(t, resp.Valid)
		assert.Equal(t, map[string]string{"lastName": "Last Name is required"}, resp.Errors)
	})

	t.Run("no headers", func(t *testing.T) {
		rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/csv/mapping/suggest", map[string]any{
			"batchType": "People",
		}), "user-1")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(core.ReasonMissingRequiredField), decode[ErrorResponse](t, rec).Fields["headers"])
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/csv/mapping/suggest", map[string]any{
			"headers":   []string{"a"},
			"batchType": "Vendors",
		}), "user-1")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(core.ReasonInvalidCategory), decode[ErrorResponse](t, rec).Fields["batchType"])
	})
}

func TestValidateMapping(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/csv/mapping/validate", map[string]any{
		"batchType": "People",
		"mapping":   map[string]string{"firstName": "Name", "lastName": "Name"},
	}), "user-1")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[mappingResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Equal(t, map[string]string{
		"firstName": "This column is mapped to multiple fields",
		"lastName":  "This column is mapped to multiple fields",
	}, resp.Errors)

	rec = env.do(t, jsonRequest(t, http.MethodPost, "/api/csv/mapping/validate", map[string]any{
		"mapping": map[string]string{"companyName": "Company"},
	}), "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[mappingResponse](t, rec).Valid)
}

func TestMiddlewareStack(t *testing.T) {
	t.Run("security headers", func(t *testing.T) {
		env := newTestEnv(t, testConfig())
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	})

	t.Run("csp disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Security.EnableCSP = false
		env := newTestEnv(t, cfg)
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")

		assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		env := newTestEnv(t, testConfig())
		req := httptest.NewRequest(http.MethodOptions, "/api/csv/files", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := env.do(t, req, "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rate limit", func(t *testing.T) {
		cfg := testConfig()
		cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
		env := newTestEnv(t, cfg)

		for i := 0; i < 2; i++ {
			rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("request id", func(t *testing.T) {
		env := newTestEnv(t, testConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		rec := env.do(t, req, "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", core.ErrUnauthorized, http.StatusUnauthorized},
		{"not found", core.ErrNotFound, http.StatusNotFound},
		{"busy", core.ErrTooManyImports, http.StatusTooManyRequests},
		{"parse", &core.ParseError{}, http.StatusBadRequest},
		{"validation", &core.ValidationError{}, http.StatusBadRequest},
		{"too large", errFileTooLarge, http.StatusRequestEntityTooLarge},
		{"storage", &core.StorageError{Op: "x", Err: assert.AnError}, http.StatusInternalServerError},
		{"other", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsCSVUpload(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        bool
	}{
		{"a.csv", "", true},
		{"A.CSV", "application/octet-stream", true},
		{"data", "text/csv", true},
		{"data", "text/csv; charset=utf-8", true},
		{"a.txt", "text/plain", false},
		{"a.xlsx", "", false},
	}

	for _, tt := range tests {
		if got := isCSVUpload(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("isCSVUpload(%q, %q) = %v, want %v", tt.filename, tt.contentType, got, tt.want)
		}
	}
}
