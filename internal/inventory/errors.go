package inventory

import "errors"

var (
	// ErrSeatUnavailable is returned when a conditional reserve/book loses the
	// race: the seat is no longer in the expected prior state. Callers retry
	// with the next candidate seat.
	ErrSeatUnavailable = errors.New("seat not in expected state")

	// ErrSeatNotFound is returned when the seat does not exist
	ErrSeatNotFound = errors.New("seat not found")
)
