package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pgUndefinedTable is the PostgreSQL error code raised when a statement
// targets a table that does not exist.
const pgUndefinedTable = "42P01"

// execTolerateMissingTable runs the statement and treats an undefined-table
// error as zero rows affected. Older deployments may lack optional related
// tables and their absence must not abort aggregate operations. The
// statement runs under a savepoint because PostgreSQL poisons the enclosing
// transaction on any error.
func execTolerateMissingTable(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT related_delete"); err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT related_delete"); rbErr != nil {
				return 0, rbErr
			}
			return 0, nil
		}
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT related_delete"); err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUndefinedTable
	}
	return false
}

// IsNotFound reports whether the error is the driver's no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
