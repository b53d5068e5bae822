package postgres

import "github.com/jackc/pgx/v5/pgconn"

const uniqueViolationErrCode = "23505"

// isUniqueViolationError reports whether err is a violation of the
// urls.short_code unique constraint. The constraint is the actual uniqueness
// enforcement mechanism; in-process retry loops only reduce how often it fires.
func isUniqueViolationError(err error) bool {
	pgErr, ok := err.(*pgconn.PgError)
	return ok && pgErr.SQLState() == uniqueViolationErrCode
}
