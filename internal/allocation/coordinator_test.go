package allocation

import (
	"context"
	"testing"
	"time"

	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/trains"
	"railbook/internal/waitlist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrainStore serves one train with a fixed coach list
type fakeTrainStore struct {
	train   trains.Train
	coaches []trains.Coach
}

func (f *fakeTrainStore) ActiveTrains(ctx context.Context) ([]trains.Train, error) {
	return []trains.Train{f.train}, nil
}

func (f *fakeTrainStore) TrainsDepartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]trains.Train, error) {
	return []trains.Train{f.train}, nil
}

func (f *fakeTrainStore) GetTrain(ctx context.Context, id uuid.UUID) (*trains.Train, error) {
	return &f.train, nil
}

func (f *fakeTrainStore) GetCoach(ctx context.Context, id uuid.UUID) (*trains.Coach, error) {
	for i := range f.coaches {
		if f.coaches[i].ID == id {
			return &f.coaches[i], nil
		}
	}
	return nil, trains.ErrNotFound
}

func (f *fakeTrainStore) CoachesByTrain(ctx context.Context, trainID uuid.UUID) ([]trains.Coach, error) {
	return f.coaches, nil
}

func newTestCoordinator(store *unitStore, publisher EventPublisher, trainStore TrainStore) *Coordinator {
	confirmation := NewConfirmationEngine(store, store, store, publisher)
	promotion := NewPromotionEngine(store, store, publisher)
	return NewCoordinator(confirmation, promotion, trainStore, nil, nil)
}

func TestSweepRunsConfirmationBeforePromotion(t *testing.T) {
	// One freed seat, one RAC hold, one pending entry. Confirmation books the
	// freed seat and releases the hold; the promotion pass re-reads inventory
	// and moves the pending entry into the released hold, all in one sweep.
	store := newUnitStore(1)
	store.addRac(1, 100)
	w1 := store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	coordinator := newTestCoordinator(store, publisher, &fakeTrainStore{})

	result := coordinator.SweepUnits(context.Background(), []Unit{testUnit(10)})

	assert.Equal(t, 1, result.UnitsProcessed)
	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, 0, result.Failures)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, notifications.EventRacConfirmed, publisher.events[0].Type)
	assert.Equal(t, notifications.EventWaitlistPromoted, publisher.events[1].Type)
	assert.Equal(t, w1.ID, publisher.events[1].WaitlistEntryID)
}

func TestSweepSecondRunChangesNothing(t *testing.T) {
	store := newUnitStore(1)
	store.addRac(1, 100)
	store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	coordinator := newTestCoordinator(store, publisher, &fakeTrainStore{})
	unit := testUnit(10)

	coordinator.SweepUnits(context.Background(), []Unit{unit})
	eventsAfterFirst := len(publisher.events)
	bookingsAfterFirst := len(store.bookings)

	second := coordinator.SweepUnits(context.Background(), []Unit{unit})

	assert.Equal(t, 0, second.Confirmed)
	assert.Equal(t, 0, second.Promoted)
	assert.Len(t, publisher.events, eventsAfterFirst)
	assert.Len(t, store.bookings, bookingsAfterFirst)
}

func TestUnitsForTrainEnumeratesCoachDatePairs(t *testing.T) {
	trainID := uuid.New()
	trainStore := &fakeTrainStore{
		train: trains.Train{ID: trainID},
		coaches: []trains.Coach{
			{ID: uuid.New(), TrainID: trainID, CoachNumber: "S1", TotalSeats: 72},
			{ID: uuid.New(), TrainID: trainID, CoachNumber: "B1", TotalSeats: 64},
		},
	}
	coordinator := newTestCoordinator(newUnitStore(0), &capturePublisher{}, trainStore)

	dates := []time.Time{time.Now(), time.Now().AddDate(0, 0, 1)}
	units, err := coordinator.UnitsForTrain(context.Background(), trainID, dates)

	require.NoError(t, err)
	assert.Len(t, units, 4)
	for _, unit := range units {
		assert.Equal(t, trainID, unit.TrainID)
		assert.Equal(t, unit.JourneyDate, waitlist.NormalizeJourneyDate(unit.JourneyDate))
	}
}

func TestBucketForIsStable(t *testing.T) {
	unit := testUnit(10)
	first := bucketFor(unit.Key(), 4)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, bucketFor(unit.Key(), 4))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 4)
}

func TestPromotionUsesReleasedHoldNotBookedSeat(t *testing.T) {
	store := newUnitStore(1)
	freedSeatID := store.seats[0].ID
	rac := store.addRac(1, 100)
	heldSeatID := *rac.SeatID
	store.addWaitlist(1, 100)

	coordinator := newTestCoordinator(store, &capturePublisher{}, &fakeTrainStore{})
	coordinator.SweepUnits(context.Background(), []Unit{testUnit(10)})

	assert.Equal(t, inventory.SeatStatusBooked, store.seat(freedSeatID).Status)
	assert.Equal(t, inventory.SeatStatusReserved, store.seat(heldSeatID).Status)
}

func TestSweepStampsOneCorrelationIDAcrossEvents(t *testing.T) {
	// A sweep that confirms and promotes emits both events under a single
	// correlation id, minted once per run.
	store := newUnitStore(1)
	store.addRac(1, 100)
	store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	coordinator := newTestCoordinator(store, publisher, &fakeTrainStore{})

	coordinator.SweepUnits(context.Background(), []Unit{testUnit(10)})

	require.Len(t, publisher.events, 2)
	assert.NotEqual(t, uuid.Nil, publisher.events[0].CorrelationID)
	assert.Equal(t, publisher.events[0].CorrelationID, publisher.events[1].CorrelationID)
}

func TestSweepKeepsCallerCorrelationID(t *testing.T) {
	store := newUnitStore(1)
	store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	coordinator := newTestCoordinator(store, publisher, &fakeTrainStore{})

	requestID := uuid.New()
	ctx := notifications.WithCorrelationID(context.Background(), requestID)
	coordinator.SweepUnits(ctx, []Unit{testUnit(10)})

	require.NotEmpty(t, publisher.events)
	assert.Equal(t, requestID, publisher.events[0].CorrelationID)
}

func TestPromoteUnitsRunsPromotionOnly(t *testing.T) {
	store := newUnitStore(10)
	store.addRac(1, 100) // a RAC head that a confirmation pass would serve
	store.addWaitlist(1, 100)
	store.addWaitlist(2, 100)

	publisher := &capturePublisher{}
	coordinator := newTestCoordinator(store, publisher, &fakeTrainStore{})

	result := coordinator.PromoteUnits(context.Background(), []Unit{testUnit(10)})

	assert.Equal(t, 0, result.Confirmed)
	assert.Equal(t, 1, result.Promoted) // capacity floor(0.2*10) minus the existing hold
	assert.Empty(t, store.bookings)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, notifications.EventWaitlistPromoted, publisher.events[0].Type)
}
