// Package sqlite implements core.Store on a single SQLite file via gorm.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// insertBatchSize keeps each INSERT well under SQLite's bound-variable limit.
const insertBatchSize = 100

// containsClause matches rows where any non-null value contains the argument.
const containsClause = `EXISTS (SELECT 1 FROM json_each(csv_rows.row_data) je
	WHERE je.type != 'null' AND instr(CAST(je.value AS TEXT), ?) > 0)`

type fileModel struct {
	ID            string         `gorm:"primaryKey;type:text"`
	UserID        string         `gorm:"column:user_id;not null;index:idx_csv_files_user"`
	FileName      string         `gorm:"not null"`
	OriginalName  string         `gorm:"not null"`
	FilePath      string         `gorm:"not null;default:''"`
	ColumnHeaders datatypes.JSON `gorm:"not null"`
	RowCount      int            `gorm:"not null"`
	BatchName     string         `gorm:"not null"`
	BatchType     string         `gorm:"not null"`
	UploadedAt    time.Time      `gorm:"not null;index:idx_csv_files_user"`
}

func (fileModel) TableName() string { return "csv_files" }

type rowModel struct {
	ID        string         `gorm:"primaryKey;type:text"`
	CSVFileID string         `gorm:"column:csv_file_id;not null;uniqueIndex:idx_csv_rows_file_index"`
	RowIndex  int            `gorm:"not null;uniqueIndex:idx_csv_rows_file_index"`
	RowData   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (rowModel) TableName() string { return "csv_rows" }

// Store is a core.Store backed by gorm and SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at dsn and migrates it.
// dsn may be a path or a "file:" URI.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// One writer at a time; SQLite would otherwise report "database is locked".
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&fileModel{}, &rowModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateImport(ctx context.Context, file core.ImportedFile, rows []core.Row) error {
	fm, err := toFileModel(file)
	if err != nil {
		return err
	}

	models := make([]rowModel, len(rows))
	for i, r := range rows {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", r.Index, err)
		}
		models[i] = rowModel{
			ID:        r.ID.String(),
			CSVFileID: file.ID.String(),
			RowIndex:  r.Index,
			RowData:   datatypes.JSON(data),
			UpdatedAt: r.UpdatedAt.UTC(),
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&fm).Error; err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&models, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
		return nil
	})
}

func (s *Store) GetFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*core.ImportedFile, error) {
	var fm fileModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", fileID.String(), ownerID).
		First(&fm).Error
	if err != nil {
		return nil, notFound(err, "get file")
	}
	return fm.toCore()
}

func (s *Store) ListFiles(ctx context.Context, ownerID string) ([]core.ImportedFile, error) {
	var models []fileModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("uploaded_at DESC").Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}

	files := make([]core.ImportedFile, 0, len(models))
	for _, m := range models {
		f, err := m.toCore()
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

func (s *Store) ListRows(ctx context.Context, q core.RowQuery) ([]core.Row, int, error) {
	scope := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&rowModel{}).Where("csv_file_id = ?", q.FileID.String())
		if q.Filter != "" {
			db = db.Where(containsClause, q.Filter)
		}
		return db
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count rows: %w", err)
	}

	order := "row_index ASC"
	if q.Desc {
		order = "row_index DESC"
	}

	var models []rowModel
	if err := scope().Order(order).Offset(q.Offset).Limit(q.Limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("query rows: %w", err)
	}

	rows := make([]core.Row, 0, len(models))
	for _, m := range models {
		r, err := m.toCore()
		if err != nil {
			return nil, 0, err
		}
		rows = append(rows, *r)
	}
	return rows, int(total), nil
}

func (s *Store) StreamRows(ctx context.Context, fileID uuid.UUID, fn func(core.Row) error) error {
	db := s.db.WithContext(ctx)
	cursor, err := db.Model(&rowModel{}).
		Where("csv_file_id = ?", fileID.String()).
		Order("row_index ASC").
		Rows()
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}
	defer cursor.Close()

	for cursor.Next() {
		var m rowModel
		if err := db.ScanRows(cursor, &m); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		r, err := m.toCore()
		if err != nil {
			return err
		}
		if err := fn(*r); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *Store) UpdateRow(ctx context.Context, rowID uuid.UUID, ownerID string, data core.RowData) (*core.Row, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}

	var m rowModel
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&fileModel{}).Select("id").Where("user_id = ?", ownerID)
		if err := tx.Where("id = ? AND csv_file_id IN (?)", rowID.String(), owned).First(&m).Error; err != nil {
			return notFound(err, "find row")
		}

		m.RowData = datatypes.JSON(encoded)
		m.UpdatedAt = time.Now().UTC()
		return tx.Model(&m).Updates(map[string]any{
			"row_data":   m.RowData,
			"updated_at": m.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return m.toCore()
}

func (s *Store) DeleteFile(ctx context.Context, fileID uuid.UUID, ownerID string) (*core.ImportedFile, error) {
	var fm fileModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", fileID.String(), ownerID).First(&fm).Error; err != nil {
			return notFound(err, "find file")
		}
		if err := tx.Where("csv_file_id = ?", fm.ID).Delete(&rowModel{}).Error; err != nil {
			return fmt.Errorf("delete rows: %w", err)
		}
		if err := tx.Delete(&fm).Error; err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fm.toCore()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toFileModel(f core.ImportedFile) (fileModel, error) {
	headers := f.ColumnHeaders
	if headers == nil {
		headers = []string{}
	}
	encoded, err := json.Marshal(headers)
	if err != nil {
		return fileModel{}, fmt.Errorf("encode headers: %w", err)
	}
	return fileModel{
		ID:            f.ID.String(),
		UserID:        f.OwnerID,
		FileName:      f.FileName,
		OriginalName:  f.OriginalName,
		FilePath:      f.FilePath,
		ColumnHeaders: datatypes.JSON(encoded),
		RowCount:      f.RowCount,
		BatchName:     f.BatchName,
		BatchType:     string(f.Category),
		UploadedAt:    f.UploadedAt.UTC(),
	}, nil
}

func (m fileModel) toCore() (*core.ImportedFile, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("file id %q: %w", m.ID, err)
	}
	var headers []string
	if err := json.Unmarshal(m.ColumnHeaders, &headers); err != nil {
		return nil, fmt.Errorf("decode headers of %s: %w", m.ID, err)
	}
	return &core.ImportedFile{
		ID:            id,
		OwnerID:       m.UserID,
		FileName:      m.FileName,
		OriginalName:  m.OriginalName,
		BatchName:     m.BatchName,
		Category:      core.Category(m.BatchType),
		ColumnHeaders: headers,
		RowCount:      m.RowCount,
		FilePath:      m.FilePath,
		UploadedAt:    m.UploadedAt.UTC(),
	}, nil
}

func (m rowModel) toCore() (*core.Row, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("row id %q: %w", m.ID, err)
	}
	fileID, err := uuid.Parse(m.CSVFileID)
	if err != nil {
		return nil, fmt.Errorf("row %s file id: %w", m.ID, err)
	}
	var data core.RowData
	if err := json.Unmarshal(m.RowData, &data); err != nil {
		return nil, fmt.Errorf("decode row %s: %w", m.ID, err)
	}
	return &core.Row{
		ID:        id,
		FileID:    fileID,
		Index:     m.RowIndex,
		Data:      data,
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}

// notFound maps gorm.ErrRecordNotFound to core.ErrNotFound.
func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
