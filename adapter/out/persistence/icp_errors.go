package persistence

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinels shared by the sqlx adapters. Lookups return nil for a missing
// row; these cover writes, where a missing or colliding row is a real fault.
var (
	// ErrNotFound: an update targeted a row that does not exist, e.g. a job
	// status transition for a deleted job.
	ErrNotFound = errors.New("row not found")

	// ErrDuplicate: an insert collided with an existing id, e.g. a scoring
	// job enqueued twice under the same caller-minted id.
	ErrDuplicate = errors.New("duplicate id")
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
