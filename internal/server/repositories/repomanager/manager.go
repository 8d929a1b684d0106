package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gallery/internal/dbx"
	"github.com/dmitrijs2005/gallery/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and prepares the
// schema.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
