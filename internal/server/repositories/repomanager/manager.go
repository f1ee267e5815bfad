// Package repomanager vends repository implementations bound to a DBTX and
// owns schema migrations. Services hold a manager plus a *sql.DB and can
// rebind the same repositories to a transaction when atomicity matters.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avetrovs/folioauth/internal/dbx"
	"github.com/avetrovs/folioauth/internal/server/repositories/portfolios"
	"github.com/avetrovs/folioauth/internal/server/repositories/refreshtokens"
	"github.com/avetrovs/folioauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Portfolios(db dbx.DBTX) portfolios.Repository
}
