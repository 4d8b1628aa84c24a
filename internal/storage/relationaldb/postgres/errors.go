package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// classifyConstraint maps driver-specific constraint failures to store
// sentinels. PostgreSQL reports SQLSTATE codes through pgconn; SQLite is
// matched on message text.
func classifyConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return relationaldb.ErrUniqueViolation
		case "23503":
			return relationaldb.ErrForeignKeyViolation
		case "23502", "23514":
			return relationaldb.ErrConstraintViolation
		}
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY constraint"):
		return relationaldb.ErrUniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return relationaldb.ErrForeignKeyViolation
	case strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return relationaldb.ErrConstraintViolation
	}
	return nil
}

// writeError wraps an INSERT/UPDATE/DELETE failure, surfacing constraint
// kinds so callers can map duplicates to conflicts.
func writeError(operation, message string, err error) error {
	if kind := classifyConstraint(err); kind != nil {
		return relationaldb.NewConstraintError(operation, message, errors.Join(kind, err))
	}
	return relationaldb.NewQueryError(operation, message, err)
}
