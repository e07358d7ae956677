package db

import (
	"database/sql"
)

// MakeTx begins a transaction and returns its queries. discard rolls back
// and is safe to defer after commit, the archive replaces a topic and its
// comments in a single transaction so a reader never sees half a thread.
type MakeTx = func() (tx *Queries, discard, commit func() error, err error)

func NewMakeTx(sqlite *sql.DB) MakeTx {
	return func() (*Queries, func() error, func() error, error) {
		sqltx, err := sqlite.Begin()
		if err != nil {
			return nil, nil, nil, err
		}
		return New(sqltx), sqltx.Rollback, sqltx.Commit, nil
	}
}
