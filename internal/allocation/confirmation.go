package allocation

import (
	"context"
	"errors"
	"log"
	"time"

	"railbook/internal/bookings"
)

// ConfirmationEngine assigns freed seats to the highest-priority open claims
// and issues bookings. RAC entries are served strictly before waitlist
// entries for every freed seat; within each queue the store's ordering rule
// applies.
type ConfirmationEngine struct {
	inventory InventoryStore
	queue     QueueStore
	bookings  BookingStore
	publisher EventPublisher
}

// NewConfirmationEngine creates a confirmation engine
func NewConfirmationEngine(inv InventoryStore, queue QueueStore, books BookingStore, publisher EventPublisher) *ConfirmationEngine {
	return &ConfirmationEngine{
		inventory: inv,
		queue:     queue,
		bookings:  books,
		publisher: publisher,
	}
}

// Run reconciles one coach/date unit. It walks the snapshot of seats that
// were AVAILABLE when the pass started; seats freed mid-pass (for example a
// confirmed RAC entry's released hold) wait for the next sweep. Per-entry
// failures are logged and counted, never fatal to the pass.
func (e *ConfirmationEngine) Run(ctx context.Context, unit Unit) SweepResult {
	start := time.Now()
	result := SweepResult{UnitsProcessed: 1}

	seats, err := e.inventory.AvailableSeats(ctx, unit.CoachID, unit.JourneyDate)
	if err != nil {
		log.Printf("Confirmation pass failed to read seats for unit %s: %v", unit.Key(), err)
		result.Failures++
		result.Duration = time.Since(start)
		return result
	}
	if len(seats) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	racQueue, err := e.queue.ActiveRacQueue(ctx, unit.CoachID, unit.JourneyDate)
	if err != nil {
		log.Printf("Confirmation pass failed to read RAC queue for unit %s: %v", unit.Key(), err)
		result.Failures++
		result.Duration = time.Since(start)
		return result
	}
	wlQueue, err := e.queue.ActiveWaitlistQueue(ctx, unit.CoachID, unit.JourneyDate)
	if err != nil {
		log.Printf("Confirmation pass failed to read waitlist for unit %s: %v", unit.Key(), err)
		result.Failures++
		result.Duration = time.Since(start)
		return result
	}

	seatIdx, racIdx, wlIdx := 0, 0, 0
	for seatIdx < len(seats) {
		seat := &seats[seatIdx]

		if racIdx < len(racQueue) {
			rac := &racQueue[racIdx]
			racIdx++
			_, record, err := e.bookings.ConfirmRac(ctx, rac, seat.ID)
			if err != nil {
				if errors.Is(err, bookings.ErrQueueEntryStale) {
					// Entry or seat moved under us; keep the seat in play for
					// the next queue candidate.
					continue
				}
				log.Printf("Failed to confirm RAC entry %s on seat %s: %v", rac.ID, seat.ID, err)
				result.Failures++
				seatIdx++
				continue
			}
			result.Confirmed++
			e.publisher.Dispatch(ctx, record)
			seatIdx++
			continue
		}

		if wlIdx < len(wlQueue) {
			entry := &wlQueue[wlIdx]
			wlIdx++
			_, record, err := e.bookings.ConfirmWaitlist(ctx, entry, seat.ID)
			if err != nil {
				if errors.Is(err, bookings.ErrQueueEntryStale) {
					continue
				}
				log.Printf("Failed to confirm waitlist entry %s on seat %s: %v", entry.ID, seat.ID, err)
				result.Failures++
				seatIdx++
				continue
			}
			result.Confirmed++
			e.publisher.Dispatch(ctx, record)
			seatIdx++
			continue
		}

		// Both queues exhausted; remaining seats stay AVAILABLE.
		break
	}

	result.Duration = time.Since(start)
	return result
}
