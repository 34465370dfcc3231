package db

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("db: no rows in result set")

	// ErrUniqueViolation is returned when an insert collides with an existing email or username.
	ErrUniqueViolation = errors.New("db: duplicate key value violates unique constraint")
)

// IsUniqueViolation checks if the error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsNotFound checks if the error reports a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
