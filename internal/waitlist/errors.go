package waitlist

import "errors"

var (
	// ErrAlreadyQueued is returned when the user already has an open entry for
	// the same train/coach/date.
	ErrAlreadyQueued = errors.New("user already has an open waitlist entry for this journey")

	// ErrNotCancelable is returned when the entry is not PENDING/RAC or is not
	// owned by the caller.
	ErrNotCancelable = errors.New("entry cannot be cancelled")

	// ErrEntryNotFound is returned when the waitlist or RAC entry does not exist
	ErrEntryNotFound = errors.New("queue entry not found")

	// ErrNotOwner is returned when a user acts on an entry they do not own
	ErrNotOwner = errors.New("entry does not belong to user")

	// ErrTrainNotBookable is returned when the train is inactive or already departed
	ErrTrainNotBookable = errors.New("train is not open for waitlisting")

	// ErrSequenceConflict signals a duplicate sequence number within a scope.
	// Structurally impossible given transactional allocation; treated as fatal
	// for the affected entry.
	ErrSequenceConflict = errors.New("sequence number conflict")
)
