package ledgerstore

import (
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
)

var (
	// ErrIOFailure indicates that the underlying database failed to read or
	// commit. A failed commit leaves the previously committed state intact.
	ErrIOFailure = errors.New("ErrIOFailure")

	// ErrCorruption indicates that stored bytes could not be decoded or
	// contradict each other.
	ErrCorruption = errors.New("ErrCorruption")

	// ErrNotFound is returned by lookups of absent keys.
	ErrNotFound = database.ErrNotFound
)

// storageError tags an underlying error with its storage error kind while
// keeping the original error reachable through Unwrap.
type storageError struct {
	kind  error
	cause error
}

func (e storageError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e storageError) Unwrap() error {
	return e.cause
}

func (e storageError) Is(target error) bool {
	return target == e.kind
}

func ioFailure(err error, format string, args ...interface{}) error {
	return errors.WithStack(storageError{kind: ErrIOFailure, cause: errors.Wrapf(err, format, args...)})
}

func corruption(err error, format string, args ...interface{}) error {
	return errors.WithStack(storageError{kind: ErrCorruption, cause: errors.Wrapf(err, format, args...)})
}

// readFailure keeps not-found errors as they are and reports anything else
// as an I/O failure.
func readFailure(err error, format string, args ...interface{}) error {
	if database.IsNotFoundError(err) {
		return errors.Wrapf(err, format, args...)
	}
	return ioFailure(err, format, args...)
}

// IOFailure reports err, raised while opening or driving the database, as
// an ErrIOFailure.
func IOFailure(err error, format string, args ...interface{}) error {
	return ioFailure(err, format, args...)
}
