package allocation

import (
	"context"
	"fmt"
	"time"

	"railbook/internal/bookings"
	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/trains"
	"railbook/internal/waitlist"

	"github.com/google/uuid"
)

// RacCapacityRatio bounds how much of a coach may sit in RAC holding state
const RacCapacityRatio = 0.2

// InventoryStore is the slice of seat inventory the engines read. All seat
// writes go through the queue/booking stores so state transitions stay
// conditional.
type InventoryStore interface {
	AvailableSeats(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]inventory.Seat, error)
}

// QueueStore is the slice of the waitlist repository the engines use
type QueueStore interface {
	ActiveWaitlistQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]waitlist.WaitlistEntry, error)
	ActiveRacQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]waitlist.RacEntry, error)
	ActiveRacCount(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) (int, error)
	PromoteToRac(ctx context.Context, entryID, seatID uuid.UUID) (*waitlist.RacEntry, *notifications.OutboxRecord, error)
}

// BookingStore issues confirmed bookings for queue entries
type BookingStore interface {
	ConfirmRac(ctx context.Context, rac *waitlist.RacEntry, seatID uuid.UUID) (*bookings.Booking, *notifications.OutboxRecord, error)
	ConfirmWaitlist(ctx context.Context, entry *waitlist.WaitlistEntry, seatID uuid.UUID) (*bookings.Booking, *notifications.OutboxRecord, error)
}

// TrainStore enumerates the units a sweep covers
type TrainStore interface {
	ActiveTrains(ctx context.Context) ([]trains.Train, error)
	TrainsDepartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]trains.Train, error)
	GetTrain(ctx context.Context, id uuid.UUID) (*trains.Train, error)
	GetCoach(ctx context.Context, id uuid.UUID) (*trains.Coach, error)
	CoachesByTrain(ctx context.Context, trainID uuid.UUID) ([]trains.Coach, error)
}

// EventPublisher delivers the outbox rows the stores committed alongside
// their state changes
type EventPublisher interface {
	Dispatch(ctx context.Context, record *notifications.OutboxRecord)
}

// Unit is one coach/date pair, the granularity at which sweeps serialize
type Unit struct {
	TrainID     uuid.UUID
	CoachID     uuid.UUID
	JourneyDate time.Time
	TotalSeats  int
}

// Key identifies the unit for locking and worker routing
func (u Unit) Key() string {
	return fmt.Sprintf("%s:%s", u.CoachID, u.JourneyDate.Format("2006-01-02"))
}

// SweepResult aggregates counters for one engine pass over a set of units
type SweepResult struct {
	UnitsProcessed int           `json:"units_processed"`
	UnitsSkipped   int           `json:"units_skipped"`
	Confirmed      int           `json:"confirmed"`
	Promoted       int           `json:"promoted"`
	Failures       int           `json:"failures"`
	Duration       time.Duration `json:"duration"`
}

// Merge folds another result into this one
func (r *SweepResult) Merge(other SweepResult) {
	r.UnitsProcessed += other.UnitsProcessed
	r.UnitsSkipped += other.UnitsSkipped
	r.Confirmed += other.Confirmed
	r.Promoted += other.Promoted
	r.Failures += other.Failures
}

// RacCapacity computes how many more entries may enter RAC for a coach:
// floor(0.2 x totalSeats) minus the entries already holding RAC state.
func RacCapacity(totalSeats, activeRacCount int) int {
	capacity := int(RacCapacityRatio*float64(totalSeats)) - activeRacCount
	if capacity < 0 {
		return 0
	}
	return capacity
}
