package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
)

// mapError converts driver-level failures into the error kinds the core
// surfaces: missing rows become NotFound, lock/serialization failures become
// retryable ConcurrencyConflict, everything else a PersistenceFailure.
func mapError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01": // lock timeout, serialization, deadlock
			return &apperror.ConcurrencyConflict{Message: "the operation conflicted with a concurrent request, retry it"}
		}
	}
	return &apperror.PersistenceFailure{Err: err}
}
