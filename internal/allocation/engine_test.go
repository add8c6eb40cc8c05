package allocation

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"railbook/internal/bookings"
	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/waitlist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitStore is an in-memory stand-in for the inventory, queue, and booking
// stores, scoped to a single coach/date unit. State transitions follow the
// same conditional rules the repositories enforce with CAS updates.
type unitStore struct {
	seats      []inventory.Seat
	wlEntries  []waitlist.WaitlistEntry
	racEntries []waitlist.RacEntry
	bookings   []bookings.Booking
	nextRac    int
}

func newUnitStore(availableSeats int) *unitStore {
	s := &unitStore{nextRac: 1}
	for i := 0; i < availableSeats; i++ {
		s.seats = append(s.seats, inventory.Seat{
			ID:         uuid.New(),
			SeatNumber: strconv.Itoa(i + 1),
			SeatType:   inventory.SeatTypeWindow,
			BerthType:  inventory.BerthTypeLower,
			Status:     inventory.SeatStatusAvailable,
		})
	}
	return s
}

func (s *unitStore) addWaitlist(number, score int) *waitlist.WaitlistEntry {
	entry := waitlist.WaitlistEntry{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		WaitlistNumber: number,
		PriorityScore:  score,
		Status:         waitlist.WaitlistStatusPending,
		QuotaType:      waitlist.QuotaGeneral,
	}
	s.wlEntries = append(s.wlEntries, entry)
	return &s.wlEntries[len(s.wlEntries)-1]
}

// addRac creates a RAC entry holding a freshly reserved seat, the state
// PromoteToRac leaves behind.
func (s *unitStore) addRac(number, score int) *waitlist.RacEntry {
	held := inventory.Seat{ID: uuid.New(), Status: inventory.SeatStatusReserved}
	s.seats = append(s.seats, held)

	wl := waitlist.WaitlistEntry{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Status:    waitlist.WaitlistStatusRac,
		QuotaType: waitlist.QuotaGeneral,
	}
	s.wlEntries = append(s.wlEntries, wl)

	entry := waitlist.RacEntry{
		ID:              uuid.New(),
		UserID:          wl.UserID,
		SeatID:          &held.ID,
		WaitlistEntryID: wl.ID,
		RacNumber:       number,
		PriorityScore:   score,
		Status:          waitlist.RacStatusRac,
		QuotaType:       waitlist.QuotaGeneral,
	}
	s.racEntries = append(s.racEntries, entry)
	return &s.racEntries[len(s.racEntries)-1]
}

func (s *unitStore) seat(id uuid.UUID) *inventory.Seat {
	for i := range s.seats {
		if s.seats[i].ID == id {
			return &s.seats[i]
		}
	}
	return nil
}

func (s *unitStore) AvailableSeats(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]inventory.Seat, error) {
	var out []inventory.Seat
	for i := range s.seats {
		if s.seats[i].Status == inventory.SeatStatusAvailable {
			out = append(out, s.seats[i])
		}
	}
	return out, nil
}

func (s *unitStore) ActiveWaitlistQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]waitlist.WaitlistEntry, error) {
	var out []waitlist.WaitlistEntry
	for i := range s.wlEntries {
		if s.wlEntries[i].Status == waitlist.WaitlistStatusPending {
			out = append(out, s.wlEntries[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].PriorityScore != out[b].PriorityScore {
			return out[a].PriorityScore > out[b].PriorityScore
		}
		return out[a].WaitlistNumber < out[b].WaitlistNumber
	})
	return out, nil
}

func (s *unitStore) ActiveRacQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]waitlist.RacEntry, error) {
	var out []waitlist.RacEntry
	for i := range s.racEntries {
		if s.racEntries[i].Status == waitlist.RacStatusRac {
			out = append(out, s.racEntries[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].PriorityScore != out[b].PriorityScore {
			return out[a].PriorityScore > out[b].PriorityScore
		}
		return out[a].RacNumber < out[b].RacNumber
	})
	return out, nil
}

func (s *unitStore) ActiveRacCount(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) (int, error) {
	queue, _ := s.ActiveRacQueue(ctx, coachID, journeyDate)
	return len(queue), nil
}

func (s *unitStore) PromoteToRac(ctx context.Context, entryID, seatID uuid.UUID) (*waitlist.RacEntry, *notifications.OutboxRecord, error) {
	seat := s.seat(seatID)
	if seat == nil || seat.Status != inventory.SeatStatusAvailable {
		return nil, nil, inventory.ErrSeatUnavailable
	}
	var entry *waitlist.WaitlistEntry
	for i := range s.wlEntries {
		if s.wlEntries[i].ID == entryID {
			entry = &s.wlEntries[i]
		}
	}
	if entry == nil || entry.Status != waitlist.WaitlistStatusPending {
		return nil, nil, waitlist.ErrEntryNotFound
	}

	seat.Status = inventory.SeatStatusReserved
	entry.Status = waitlist.WaitlistStatusRac

	rac := waitlist.RacEntry{
		ID:              uuid.New(),
		UserID:          entry.UserID,
		SeatID:          &seat.ID,
		WaitlistEntryID: entry.ID,
		RacNumber:       s.nextRac,
		PriorityScore:   entry.PriorityScore,
		Status:          waitlist.RacStatusRac,
		QuotaType:       entry.QuotaType,
	}
	s.nextRac++
	s.racEntries = append(s.racEntries, rac)
	live := &s.racEntries[len(s.racEntries)-1]
	record := outboxFor(ctx, &notifications.AllocationEvent{
		Type:            notifications.EventWaitlistPromoted,
		UserID:          entry.UserID,
		SeatID:          live.SeatID,
		WaitlistEntryID: entry.ID,
		RacEntryID:      &live.ID,
		QuotaType:       string(entry.QuotaType),
	})
	return live, record, nil
}

func (s *unitStore) ConfirmRac(ctx context.Context, rac *waitlist.RacEntry, seatID uuid.UUID) (*bookings.Booking, *notifications.OutboxRecord, error) {
	seat := s.seat(seatID)
	// Booking only transitions AVAILABLE seats; a RESERVED seat belongs to a
	// hold placed after the caller's snapshot.
	if seat == nil || seat.Status != inventory.SeatStatusAvailable {
		return nil, nil, bookings.ErrQueueEntryStale
	}
	var live *waitlist.RacEntry
	for i := range s.racEntries {
		if s.racEntries[i].ID == rac.ID {
			live = &s.racEntries[i]
		}
	}
	if live == nil || live.Status != waitlist.RacStatusRac {
		return nil, nil, bookings.ErrQueueEntryStale
	}

	seat.Status = inventory.SeatStatusBooked
	if live.SeatID != nil && *live.SeatID != seatID {
		// The confirmed passenger moves to the freed seat; their old hold opens
		// up for the promotion pass.
		s.seat(*live.SeatID).Status = inventory.SeatStatusAvailable
	}
	live.SeatID = &seatID
	live.Status = waitlist.RacStatusConfirmed
	for i := range s.wlEntries {
		if s.wlEntries[i].ID == live.WaitlistEntryID {
			s.wlEntries[i].Status = waitlist.WaitlistStatusConfirmed
		}
	}

	booking := bookings.Booking{
		ID:              uuid.New(),
		PNR:             "PNR000001",
		UserID:          live.UserID,
		SeatID:          seatID,
		Status:          bookings.StatusConfirmed,
		Source:          bookings.SourceRac,
		QuotaType:       live.QuotaType,
		WaitlistEntryID: &live.WaitlistEntryID,
		RacEntryID:      &live.ID,
		ConfirmedAt:     time.Now(),
	}
	s.bookings = append(s.bookings, booking)
	stored := &s.bookings[len(s.bookings)-1]
	record := outboxFor(ctx, &notifications.AllocationEvent{
		Type:            notifications.EventRacConfirmed,
		UserID:          stored.UserID,
		SeatID:          &stored.SeatID,
		WaitlistEntryID: live.WaitlistEntryID,
		RacEntryID:      stored.RacEntryID,
		BookingID:       &stored.ID,
		PNR:             stored.PNR,
		QuotaType:       string(stored.QuotaType),
	})
	return stored, record, nil
}

func (s *unitStore) ConfirmWaitlist(ctx context.Context, entry *waitlist.WaitlistEntry, seatID uuid.UUID) (*bookings.Booking, *notifications.OutboxRecord, error) {
	seat := s.seat(seatID)
	if seat == nil || seat.Status != inventory.SeatStatusAvailable {
		return nil, nil, bookings.ErrQueueEntryStale
	}
	var live *waitlist.WaitlistEntry
	for i := range s.wlEntries {
		if s.wlEntries[i].ID == entry.ID {
			live = &s.wlEntries[i]
		}
	}
	if live == nil || live.Status != waitlist.WaitlistStatusPending {
		return nil, nil, bookings.ErrQueueEntryStale
	}

	seat.Status = inventory.SeatStatusBooked
	live.Status = waitlist.WaitlistStatusConfirmed

	booking := bookings.Booking{
		ID:              uuid.New(),
		PNR:             "PNR000002",
		UserID:          live.UserID,
		SeatID:          seatID,
		Status:          bookings.StatusConfirmed,
		Source:          bookings.SourceWaitlist,
		QuotaType:       live.QuotaType,
		WaitlistEntryID: &live.ID,
		ConfirmedAt:     time.Now(),
	}
	s.bookings = append(s.bookings, booking)
	stored := &s.bookings[len(s.bookings)-1]
	record := outboxFor(ctx, &notifications.AllocationEvent{
		Type:            notifications.EventWaitlistConfirmed,
		UserID:          stored.UserID,
		SeatID:          &stored.SeatID,
		WaitlistEntryID: live.ID,
		BookingID:       &stored.ID,
		PNR:             stored.PNR,
		QuotaType:       string(stored.QuotaType),
	})
	return stored, record, nil
}

// outboxFor builds the committed outbox row the real stores return, stamping
// the context's correlation id the way the transactions do.
func outboxFor(ctx context.Context, event *notifications.AllocationEvent) *notifications.OutboxRecord {
	event.CorrelationID = notifications.CorrelationIDFrom(ctx)
	record, err := notifications.NewOutboxRecord(event)
	if err != nil {
		panic(err)
	}
	return record
}

// capturePublisher decodes dispatched outbox rows back into events, in order
type capturePublisher struct {
	records []notifications.OutboxRecord
	events  []notifications.AllocationEvent
}

func (p *capturePublisher) Dispatch(ctx context.Context, record *notifications.OutboxRecord) {
	p.records = append(p.records, *record)
	event, err := notifications.AllocationEventFromJSON(record.Payload)
	if err != nil {
		panic(err)
	}
	p.events = append(p.events, *event)
}

func testUnit(totalSeats int) Unit {
	return Unit{
		TrainID:     uuid.New(),
		CoachID:     uuid.New(),
		JourneyDate: waitlist.NormalizeJourneyDate(time.Now().AddDate(0, 0, 3)),
		TotalSeats:  totalSeats,
	}
}

func TestConfirmationServesRacHeadOnly(t *testing.T) {
	// One freed seat, two RAC holds, one pending waitlist entry: only the RAC
	// head is confirmed this pass. The seat its hold released waits for the
	// next sweep.
	store := newUnitStore(1)
	r1 := store.addRac(1, 100)
	r2 := store.addRac(2, 100)
	w1 := store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	engine := NewConfirmationEngine(store, store, store, publisher)

	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 0, result.Failures)

	require.Len(t, store.bookings, 1)
	assert.Equal(t, bookings.SourceRac, store.bookings[0].Source)
	assert.Equal(t, r1.UserID, store.bookings[0].UserID)

	assert.Equal(t, waitlist.RacStatusConfirmed, store.racEntries[0].Status)
	assert.Equal(t, waitlist.RacStatusRac, store.racEntries[1].Status)
	_ = r2
	assert.Equal(t, waitlist.WaitlistStatusPending, store.wlEntries[len(store.wlEntries)-1].Status)
	_ = w1

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notifications.EventRacConfirmed, publisher.events[0].Type)
}

func TestConfirmationBooksFreedSeatAndReleasesHold(t *testing.T) {
	store := newUnitStore(1)
	freedSeatID := store.seats[0].ID
	rac := store.addRac(1, 100)
	heldSeatID := *rac.SeatID

	engine := NewConfirmationEngine(store, store, store, &capturePublisher{})
	engine.Run(context.Background(), testUnit(10))

	// The booking lands on the freed seat, not the held one; the hold opens up.
	assert.Equal(t, inventory.SeatStatusBooked, store.seat(freedSeatID).Status)
	assert.Equal(t, inventory.SeatStatusAvailable, store.seat(heldSeatID).Status)
	require.Len(t, store.bookings, 1)
	assert.Equal(t, freedSeatID, store.bookings[0].SeatID)
}

func TestConfirmationFallsBackToWaitlist(t *testing.T) {
	// No RAC entries: the waitlist head is confirmed directly, skipping RAC.
	store := newUnitStore(1)
	w1 := store.addWaitlist(1, 100)
	store.addWaitlist(2, 100)

	publisher := &capturePublisher{}
	engine := NewConfirmationEngine(store, store, store, publisher)

	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 1, result.Confirmed)
	require.Len(t, store.bookings, 1)
	assert.Equal(t, bookings.SourceWaitlist, store.bookings[0].Source)
	assert.Equal(t, w1.UserID, store.bookings[0].UserID)
	assert.Equal(t, waitlist.WaitlistStatusConfirmed, store.wlEntries[0].Status)
	assert.Equal(t, waitlist.WaitlistStatusPending, store.wlEntries[1].Status)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notifications.EventWaitlistConfirmed, publisher.events[0].Type)
}

func TestConfirmationOrdersRacBeforeWaitlist(t *testing.T) {
	store := newUnitStore(2)
	store.addRac(1, 100)
	store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	engine := NewConfirmationEngine(store, store, store, publisher)

	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 2, result.Confirmed)
	require.Len(t, publisher.events, 2)
	assert.Equal(t, notifications.EventRacConfirmed, publisher.events[0].Type)
	assert.Equal(t, notifications.EventWaitlistConfirmed, publisher.events[1].Type)
}

func TestConfirmationOrdersByPriorityThenNumber(t *testing.T) {
	store := newUnitStore(2)
	plain := store.addWaitlist(1, 100)
	senior := store.addWaitlist(2, 150)

	engine := NewConfirmationEngine(store, store, store, &capturePublisher{})
	engine.Run(context.Background(), testUnit(10))

	require.Len(t, store.bookings, 2)
	assert.Equal(t, senior.UserID, store.bookings[0].UserID)
	assert.Equal(t, plain.UserID, store.bookings[1].UserID)
}

func TestConfirmationSkipsStaleEntryKeepsSeat(t *testing.T) {
	// The RAC head was cancelled between the queue read and the confirm; the
	// seat must go to the next candidate, with no failure recorded.
	store := newUnitStore(1)
	stale := store.addRac(1, 100)
	w1 := store.addWaitlist(1, 100)

	for i := range store.racEntries {
		if store.racEntries[i].ID == stale.ID {
			store.racEntries[i].Status = waitlist.RacStatusCancelled
		}
	}
	// Rebuild the queue snapshot the engine would have read before the cancel.
	staleCopy := *stale
	engine := NewConfirmationEngine(store, &staleQueue{unitStore: store, stale: staleCopy}, store, &capturePublisher{})

	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 0, result.Failures)
	require.Len(t, store.bookings, 1)
	assert.Equal(t, w1.UserID, store.bookings[0].UserID)
}

// staleQueue returns a RAC queue snapshot containing an entry that has since
// left RAC state, simulating a read-then-cancel race.
type staleQueue struct {
	*unitStore
	stale waitlist.RacEntry
}

func (q *staleQueue) ActiveRacQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]waitlist.RacEntry, error) {
	return []waitlist.RacEntry{q.stale}, nil
}

// snapshotSeats serves a fixed seat snapshot, simulating a pass that read
// its seats before a concurrent writer changed them.
type snapshotSeats struct {
	*unitStore
	snapshot []inventory.Seat
}

func (s *snapshotSeats) AvailableSeats(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]inventory.Seat, error) {
	return s.snapshot, nil
}

func TestConfirmationLosesSeatReservedAfterSnapshot(t *testing.T) {
	// The pass read one AVAILABLE seat, then a concurrent promotion reserved
	// it as a RAC hold. Booking it anyway would steal the hold and leave the
	// new RAC entry pointing at a seat it no longer owns, so the confirm must
	// lose the race and the hold must survive intact.
	store := newUnitStore(1)
	contested := store.seats[0]
	racHead := store.addRac(1, 100)

	snap := &snapshotSeats{unitStore: store, snapshot: []inventory.Seat{contested}}
	store.seat(contested.ID).Status = inventory.SeatStatusReserved

	publisher := &capturePublisher{}
	engine := NewConfirmationEngine(snap, store, store, publisher)

	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 0, result.Confirmed)
	assert.Equal(t, 0, result.Failures)
	assert.Empty(t, store.bookings)
	assert.Empty(t, publisher.events)

	// The mid-sweep hold keeps its seat and the RAC head keeps its own.
	assert.Equal(t, inventory.SeatStatusReserved, store.seat(contested.ID).Status)
	assert.Equal(t, waitlist.RacStatusRac, store.racEntries[0].Status)
	assert.Equal(t, inventory.SeatStatusReserved, store.seat(*racHead.SeatID).Status)
}

func TestConfirmationRerunIsIdempotent(t *testing.T) {
	store := newUnitStore(1)
	store.addRac(1, 100)

	publisher := &capturePublisher{}
	engine := NewConfirmationEngine(store, store, store, publisher)
	unit := testUnit(10)

	first := engine.Run(context.Background(), unit)
	assert.Equal(t, 1, first.Confirmed)

	// Drain the seat the confirm released so only the re-run semantics are
	// under test.
	for i := range store.seats {
		if store.seats[i].Status == inventory.SeatStatusAvailable {
			store.seats[i].Status = inventory.SeatStatusBlocked
		}
	}

	second := engine.Run(context.Background(), unit)
	assert.Equal(t, 0, second.Confirmed)
	assert.Equal(t, 0, second.Failures)
	assert.Len(t, store.bookings, 1)
	assert.Len(t, publisher.events, 1)
}

func TestPromotionBoundedByCapacity(t *testing.T) {
	// 10 seats -> floor(0.2 x 10) = 2 RAC slots. Five pending entries, three
	// free seats: exactly two promotions.
	store := newUnitStore(3)
	for i := 1; i <= 5; i++ {
		store.addWaitlist(i, 100)
	}

	publisher := &capturePublisher{}
	engine := NewPromotionEngine(store, store, publisher)

	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 2, result.Promoted)
	assert.Equal(t, 0, result.Failures)

	promoted := 0
	for i := range store.wlEntries {
		if store.wlEntries[i].Status == waitlist.WaitlistStatusRac {
			promoted++
		}
	}
	assert.Equal(t, 2, promoted)
	// Heads go first: entries 1 and 2.
	assert.Equal(t, waitlist.WaitlistStatusRac, store.wlEntries[0].Status)
	assert.Equal(t, waitlist.WaitlistStatusRac, store.wlEntries[1].Status)

	reserved := 0
	for i := range store.seats {
		if store.seats[i].Status == inventory.SeatStatusReserved {
			reserved++
		}
	}
	assert.Equal(t, 2, reserved)

	require.Len(t, publisher.events, 2)
	for _, event := range publisher.events {
		assert.Equal(t, notifications.EventWaitlistPromoted, event.Type)
		assert.NotNil(t, event.SeatID)
		assert.NotNil(t, event.RacEntryID)
	}
}

func TestPromotionStopsAtZeroCapacity(t *testing.T) {
	store := newUnitStore(3)
	store.addRac(1, 100)
	store.addRac(2, 100)
	store.addWaitlist(1, 100)

	publisher := &capturePublisher{}
	engine := NewPromotionEngine(store, store, publisher)

	// floor(0.2 x 10) = 2, both slots already held.
	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 0, result.Promoted)
	assert.Empty(t, publisher.events)
	assert.Equal(t, waitlist.WaitlistStatusPending, store.wlEntries[len(store.wlEntries)-1].Status)
}

func TestPromotionHonorsBerthPreference(t *testing.T) {
	store := newUnitStore(2)
	store.seats[1].BerthType = inventory.BerthTypeSideLower
	sideLowerID := store.seats[1].ID

	pref := string(inventory.BerthTypeSideLower)
	entry := store.addWaitlist(1, 100)
	entry.PreferredBerthType = &pref

	engine := NewPromotionEngine(store, store, &capturePublisher{})
	result := engine.Run(context.Background(), testUnit(10))

	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, inventory.SeatStatusReserved, store.seat(sideLowerID).Status)
}

func TestPromotionFallsBackWhenNoPreferenceMatch(t *testing.T) {
	store := newUnitStore(1)
	pref := string(inventory.BerthTypeUpper)
	entry := store.addWaitlist(1, 100)
	entry.PreferredBerthType = &pref

	engine := NewPromotionEngine(store, store, &capturePublisher{})
	result := engine.Run(context.Background(), testUnit(10))

	// No upper berth exists; the entry still gets the one free seat.
	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, waitlist.WaitlistStatusRac, store.wlEntries[0].Status)
}

func TestRacCapacity(t *testing.T) {
	tests := []struct {
		name       string
		totalSeats int
		activeRac  int
		want       int
	}{
		{"empty coach", 10, 0, 2},
		{"floor not round", 72, 0, 14},
		{"partially used", 10, 1, 1},
		{"full", 10, 2, 0},
		{"over capacity clamps", 10, 5, 0},
		{"tiny coach", 4, 0, 0},
		{"zero seats", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RacCapacity(tt.totalSeats, tt.activeRac))
		})
	}
}
