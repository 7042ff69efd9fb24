// Package repomanager vends repositories bound to a database handle or an
// open transaction, so a service can run several repositories in one unit
// of work.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/marketauth/internal/dbx"
	"github.com/dmitrijs2005/marketauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/marketauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
