package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/dbx"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const selectColumns = `id, user_id, category, original_filename, stored_filename, cloudinary_url,
	cloudinary_public_id, file_size, mime_type, upload_status, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.UploadRecord, error) {
	var rec models.UploadRecord
	if err := s.Scan(&rec.ID, &rec.UserID, &rec.Category, &rec.OriginalFilename, &rec.StoredFilename,
		&rec.RemoteURL, &rec.StorageKey, &rec.FileSize, &rec.MimeType, &rec.UploadStatus,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

// Create inserts a record and returns it with server-assigned columns.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.UploadRecord) (*models.UploadRecord, error) {
	query := `
		INSERT INTO pdf_uploads (user_id, category, original_filename, stored_filename, cloudinary_url,
			cloudinary_public_id, file_size, mime_type, upload_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + selectColumns

	row := r.db.QueryRowContext(ctx, query,
		rec.UserID, string(rec.Category), rec.OriginalFilename, rec.StoredFilename, rec.RemoteURL,
		rec.StorageKey, rec.FileSize, rec.MimeType, string(rec.UploadStatus))

	out, err := scanRecord(row)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// List filters by user and, when set, by status and category, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter models.UploadFilter) ([]*models.UploadRecord, error) {
	where := []string{"user_id = $1"}
	args := []any{filter.UserID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "upload_status = $"+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + selectColumns + ` FROM pdf_uploads WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	result := make([]*models.UploadRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns a single record.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.UploadRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM pdf_uploads WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select upload: %w", err)
	}
	return rec, nil
}

// DeleteByID removes a record by id.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pdf_uploads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// DeleteByIDs removes all listed records and reports how many rows went.
func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM pdf_uploads WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete uploads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
