// Package postgres implements core.Store on PostgreSQL via pgx.
//
// Files live in csv_files and rows in csv_rows, with each row's values kept
// as a jsonb object keyed by header. See schema.sql.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const fileColumns = "id, user_id, file_name, original_name, file_path, column_headers, row_count, batch_name, batch_type, uploaded_at"

// Store is a core.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool with the configured limits and verifies it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// New wraps pool. The store closes the pool on Close.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) CreateImport(ctx context.Context, file core.ImportedFile, rows []core.Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	_, err = tx.Exec(ctx,
		`INSERT INTO csv_files (`+fileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		file.ID, file.OwnerID, file.FileName, file.OriginalName, file.FilePath,
		headersOrEmpty(file.ColumnHeaders), file.RowCount, file.BatchName, string(file.Category), file.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	copyRows := make([][]any, len(rows))
	for i, r := range rows {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", r.Index, err)
		}
		copyRows[i] = []any{
			pgtype.UUID{Bytes: r.ID, Valid: true},
			pgtype.UUID{Bytes: file.ID, Valid: true},
			int32(r.Index),
			data,
			r.UpdatedAt,
		}
	}

	if len(copyRows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"csv_rows"},
			[]string{"id", "csv_file_id", "row_index", "row_data", "updated_at"},
			pgx.CopyFromRows(copyRows),
		)
		if err != nil {
			return fmt.Errorf("copy rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*core.ImportedFile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM csv_files WHERE id = $1 AND user_id = $2`,
		fileID, ownerID,
	)
	f, err := scanFile(row)
	if err != nil {
		return nil, notFound(err, "get file")
	}
	return f, nil
}

func (s *Store) ListFiles(ctx context.Context, ownerID string) ([]core.ImportedFile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+fileColumns+` FROM csv_files WHERE user_id = $1 ORDER BY uploaded_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := make([]core.ImportedFile, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read files: %w", err)
	}
	return files, nil
}

func (s *Store) ListRows(ctx context.Context, q core.RowQuery) ([]core.Row, int, error) {
	wb := newWhereBuilder()
	wb.Add("csv_file_id", q.FileID)
	wb.AddContains("row_data", q.Filter)
	whereClause, queryArgs := wb.Build()

	var total int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM csv_rows"+whereClause, queryArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count rows: %w", err)
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT id, csv_file_id, row_index, row_data, updated_at FROM csv_rows%s ORDER BY row_index %s LIMIT $%d OFFSET $%d",
		whereClause, dir, argIndex, argIndex+1,
	)
	queryArgs = append(queryArgs, q.Limit, q.Offset)

	rows, err := s.pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	result := make([]core.Row, 0, q.Limit)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read rows: %w", err)
	}
	return result, total, nil
}

func (s *Store) StreamRows(ctx context.Context, fileID uuid.UUID, fn func(core.Row) error) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, csv_file_id, row_index, row_data, updated_at
		 FROM csv_rows WHERE csv_file_id = $1 ORDER BY row_index`,
		fileID,
	)
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return err
		}
		if err := fn(*r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) UpdateRow(ctx context.Context, rowID uuid.UUID, ownerID string, data core.RowData) (*core.Row, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE csv_rows r SET row_data = $3, updated_at = now()
		 FROM csv_files f
		 WHERE r.id = $1 AND r.csv_file_id = f.id AND f.user_id = $2
		 RETURNING r.id, r.csv_file_id, r.row_index, r.row_data, r.updated_at`,
		rowID, ownerID, encoded,
	)
	r, err := scanRow(row)
	if err != nil {
		return nil, notFound(err, "update row")
	}
	return r, nil
}

func (s *Store) DeleteFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*core.ImportedFile, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	f, err := scanFile(tx.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM csv_files WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		fileID, ownerID,
	))
	if err != nil {
		return nil, notFound(err, "lock file")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM csv_rows WHERE csv_file_id = $1`, fileID); err != nil {
		return nil, fmt.Errorf("delete rows: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM csv_files WHERE id = $1`, fileID); err != nil {
		return nil, fmt.Errorf("delete file: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return f, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanFile(row pgx.Row) (*core.ImportedFile, error) {
	var (
		f        core.ImportedFile
		category string
	)
	err := row.Scan(
		&f.ID, &f.OwnerID, &f.FileName, &f.OriginalName, &f.FilePath,
		&f.ColumnHeaders, &f.RowCount, &f.BatchName, &category, &f.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Category = core.Category(category)
	f.UploadedAt = f.UploadedAt.UTC()
	return &f, nil
}

func scanRow(row pgx.Row) (*core.Row, error) {
	var (
		r    core.Row
		data []byte
	)
	if err := row.Scan(&r.ID, &r.FileID, &r.Index, &data, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &r.Data); err != nil {
		return nil, fmt.Errorf("decode row %s: %w", r.ID, err)
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

// notFound maps pgx.ErrNoRows to core.ErrNotFound.
func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func headersOrEmpty(h []string) []string {
	if h == nil {
		return []string{}
	}
	return h
}
