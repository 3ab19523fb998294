// Package rules holds the tables derived from processed rules documents.
package rules

import "context"

// Repository clears the derived rule tables. Rows are not scoped to a user
// or a source document, so a clear removes every row.
type Repository interface {
	ClearRules(ctx context.Context) (int64, error)
	ClearRAGRules(ctx context.Context) (int64, error)
}
