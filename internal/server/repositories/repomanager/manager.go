package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/peoplebook/internal/dbx"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/loginevents"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/persons"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Persons(db dbx.DBTX) persons.Repository
	LoginEvents(db dbx.DBTX) loginevents.Repository
}
