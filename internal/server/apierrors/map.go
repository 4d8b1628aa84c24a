package apierrors

import (
	"errors"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// MapError translates a store error into an API error. Overrides win: the
// first sentinel in the map that matches the error chain picks the response.
// Anything unmatched falls back to classification by store error kind, so a
// handler only lists the sentinels it wants to rename.
func MapError(err error, overrides map[error]*AppError) *AppError {
	for sentinel, appErr := range overrides {
		if errors.Is(err, sentinel) {
			return appErr
		}
	}

	switch {
	case relationaldb.IsNotFound(err):
		return ErrNotFound
	case relationaldb.IsStateConflict(err):
		return ErrNotPending
	case relationaldb.IsConstraint(err):
		return ErrConflict
	case relationaldb.IsConnectionError(err), relationaldb.IsRetryable(err):
		return ErrUnavailable
	default:
		return ErrInternal
	}
}
