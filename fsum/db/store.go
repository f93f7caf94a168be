package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/config"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
	"github.com/ZanzyTHEbar/filesum/fsum/models"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when no row exists for a path
var ErrNotFound = errors.New("file record not found")

// Store persists file records in a single SQL table keyed by file_path.
type Store struct {
	db     *sql.DB
	table  string
	logger zerolog.Logger
}

// Open connects to the configured database. The table name is composed into SQL text,
// so it must be a plain identifier; every data value is a bound parameter.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	if !config.ValidIdentifier(cfg.Table) {
		return nil, common.ConfigError("open store", fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, cfg.Table))
	}

	db, err := ConnectToDB(ctx, cfg)
	if err != nil {
		return nil, common.StoreError("connect", "", err)
	}

	return NewStore(db, cfg.Table, logger)
}

// NewStore wraps an open database handle
func NewStore(db *sql.DB, table string, logger zerolog.Logger) (*Store, error) {
	if !config.ValidIdentifier(table) {
		return nil, common.ConfigError("open store", fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, table))
	}
	return &Store{
		db:     db,
		table:  table,
		logger: logger.With().Str("component", "store").Str("table", table).Logger(),
	}, nil
}

// Table returns the table name
func (s *Store) Table() string {
	return s.table
}

// WithTx runs fn inside a transaction. The transaction is committed when fn returns nil
// and rolled back when fn returns an error or panics; the panic is re-raised after the
// rollback. The underlying connection is returned to the pool on every path.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn().Err(rbErr).Msg("Rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

// EnsureSchema creates the metadata table if it does not exist. Safe to call every run.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		md5_hash TEXT NOT NULL,
		status TEXT DEFAULT '%s',
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(file_path)
	)`, s.table, internal.StatusProcessed)

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query)
		return err
	})
	if err != nil {
		return common.StoreError("ensure schema", s.table, fmt.Errorf("failed to create %s table: %w", s.table, err))
	}

	s.logger.Debug().Msg("Schema ready")
	return nil
}

// Upsert inserts record, or replaces the data columns of the row already holding
// record.FilePath. The replaced row keeps its id and gets a fresh processed_at.
func (s *Store) Upsert(ctx context.Context, record *models.FileRecord) error {
	if record == nil || record.FilePath == "" {
		return common.StoreError("upsert", "", common.ErrPathEmpty)
	}

	status := record.Status
	if status == "" {
		status = internal.StatusProcessed
	}

	query := fmt.Sprintf(`INSERT INTO %s (file_name, file_path, file_size, md5_hash, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			file_name = excluded.file_name,
			file_size = excluded.file_size,
			md5_hash = excluded.md5_hash,
			status = excluded.status,
			processed_at = CURRENT_TIMESTAMP`, s.table)

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			record.FileName, record.FilePath, record.FileSize, record.MD5Hash, status)
		return err
	})
	if err != nil {
		return common.StoreError("upsert", record.FilePath, fmt.Errorf("failed to upsert file metadata: %w", err))
	}

	s.logger.Debug().Str("path", record.FilePath).Str("md5", record.MD5Hash).Msg("Upserted file record")
	return nil
}

func (s *Store) selectColumns() string {
	return fmt.Sprintf("SELECT id, file_name, file_path, file_size, md5_hash, status, processed_at FROM %s", s.table)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.FileRecord, error) {
	var record models.FileRecord
	var status sql.NullString
	var processedAt any

	if err := row.Scan(&record.ID, &record.FileName, &record.FilePath, &record.FileSize,
		&record.MD5Hash, &status, &processedAt); err != nil {
		return nil, err
	}

	record.Status = status.String
	ts, err := parseTimestamp(processedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse processed_at for %s: %w", record.FilePath, err)
	}
	record.ProcessedAt = ts
	return &record, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts the representations SQLite drivers return for CURRENT_TIMESTAMP
func parseTimestamp(v any) (time.Time, error) {
	var text string
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		text = t
	case []byte:
		text = string(t)
	case int64:
		return time.Unix(t, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", text)
}

// Get returns the record stored for filePath, or ErrNotFound.
func (s *Store) Get(ctx context.Context, filePath string) (*models.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, s.selectColumns()+" WHERE file_path = ?", filePath)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, common.StoreError("get", filePath, err)
	}
	return record, nil
}

// List returns all records ordered by path.
func (s *Store) List(ctx context.Context) ([]*models.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.selectColumns()+" ORDER BY file_path")
	if err != nil {
		return nil, common.StoreError("list", "", fmt.Errorf("failed to query file metadata: %w", err))
	}
	defer rows.Close()

	var records []*models.FileRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, common.StoreError("list", "", fmt.Errorf("failed to scan file metadata: %w", err))
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, common.StoreError("list", "", fmt.Errorf("row iteration error: %w", err))
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&count)
	if err != nil {
		return 0, common.StoreError("count", "", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements MetadataStore interface
var _ MetadataStore = (*Store)(nil)
