package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

type CorpusRepository struct {
	db *sql.DB
}

func NewCorpusRepository(db *sql.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CorpusRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS corpus_uploads (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_corpus_uploads_status ON corpus_uploads(status);
CREATE INDEX IF NOT EXISTS idx_corpus_uploads_created_at ON corpus_uploads(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CorpusRepository) Create(ctx context.Context, upload *domain.CorpusUpload) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO corpus_uploads (
	id, filename, mime_type, storage_path, status, row_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		upload.ID, upload.Filename, upload.MimeType, upload.StoragePath,
		string(upload.Status), upload.RowCount, upload.Error, upload.CreatedAt, upload.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert corpus upload: %w", err)
	}
	return nil
}

func (r *CorpusRepository) GetByID(ctx context.Context, id string) (*domain.CorpusUpload, error) {
	// error_message is nullable; coalesce so rows written by hand or by
	// migrations scan cleanly into a plain string.
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, status, row_count, COALESCE(error_message, ''), created_at, updated_at
FROM corpus_uploads
WHERE id = $1
`, id)

	var upload domain.CorpusUpload
	var status string

	err := row.Scan(
		&upload.ID, &upload.Filename, &upload.MimeType, &upload.StoragePath,
		&status, &upload.RowCount, &upload.Error, &upload.CreatedAt, &upload.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrUploadNotFound, "get corpus upload", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan corpus upload: %w", err)
	}

	upload.Status = domain.UploadStatus(status)
	return &upload, nil
}

func (r *CorpusRepository) UpdateStatus(ctx context.Context, id string, status domain.UploadStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE corpus_uploads
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update corpus upload status: %w", err)
	}
	return requireRowAffected(res, "update corpus upload status", id)
}

func (r *CorpusRepository) SaveRowCount(ctx context.Context, id string, rowCount int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE corpus_uploads
SET row_count = $2, updated_at = $3
WHERE id = $1
`, id, rowCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save corpus row count: %w", err)
	}
	return requireRowAffected(res, "save corpus row count", id)
}

func requireRowAffected(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrUploadNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
