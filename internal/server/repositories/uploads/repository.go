// Package uploads declares and implements persistence for upload records.
package uploads

import (
	"context"

	"github.com/dmitrijs2005/docrelay/internal/server/models"
)

// Repository stores upload records.
type Repository interface {
	// Create inserts rec and returns the stored row. A duplicate storage key
	// yields common.ErrAlreadyExists.
	Create(ctx context.Context, rec *models.UploadRecord) (*models.UploadRecord, error)

	// List returns the records matching filter, newest first.
	List(ctx context.Context, filter models.UploadFilter) ([]*models.UploadRecord, error)

	// GetByID returns common.ErrorNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.UploadRecord, error)

	// DeleteByID removes one record. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByIDs removes every listed record in one statement.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}
