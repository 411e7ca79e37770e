package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUndefinedTable reports a missing table (42P01), i.e. a database the
// schema was never applied to.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}

// IsNoRows reports an empty QueryRow result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
