package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/docrelay/internal/dbx"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/rules"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/uploads"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Uploads(db dbx.DBTX) uploads.Repository
	Rules(db dbx.DBTX) rules.Repository
}
