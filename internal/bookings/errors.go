package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no booking matches the lookup
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotCancelable is returned when the booking is not in CONFIRMED state
	ErrNotCancelable = errors.New("booking cannot be cancelled")

	// ErrQueueEntryStale is returned when the queue entry changed state
	// between the sweep's read and the confirmation transaction. The sweep
	// skips the entry; the next cycle sees the fresh state.
	ErrQueueEntryStale = errors.New("queue entry no longer confirmable")
)
