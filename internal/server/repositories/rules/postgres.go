package rules

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/docrelay/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ClearRules empties the rules table.
func (r *PostgresRepository) ClearRules(ctx context.Context) (int64, error) {
	return r.clear(ctx, "rules")
}

// ClearRAGRules empties the rag_rules table.
func (r *PostgresRepository) ClearRAGRules(ctx context.Context) (int64, error) {
	return r.clear(ctx, "rag_rules")
}

// table is always one of the two constants above.
func (r *PostgresRepository) clear(ctx context.Context, table string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
