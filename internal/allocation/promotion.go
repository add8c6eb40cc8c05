package allocation

import (
	"context"
	"errors"
	"log"
	"time"

	"railbook/internal/inventory"
	"railbook/internal/waitlist"
)

// PromotionEngine moves PENDING waitlist entries into RAC holds while spare
// capacity exists, bounded by the RAC capacity policy. It runs after the
// confirmation pass for a unit so the two never contend over the same seat
// snapshot.
type PromotionEngine struct {
	inventory InventoryStore
	queue     QueueStore
	publisher EventPublisher
}

// NewPromotionEngine creates a promotion engine
func NewPromotionEngine(inv InventoryStore, queue QueueStore, publisher EventPublisher) *PromotionEngine {
	return &PromotionEngine{
		inventory: inv,
		queue:     queue,
		publisher: publisher,
	}
}

// Run promotes up to the unit's remaining RAC capacity. A failure reserving
// one seat or one entry is isolated; the pass proceeds with the next pair.
func (e *PromotionEngine) Run(ctx context.Context, unit Unit) SweepResult {
	start := time.Now()
	result := SweepResult{UnitsProcessed: 1}

	activeRac, err := e.queue.ActiveRacCount(ctx, unit.CoachID, unit.JourneyDate)
	if err != nil {
		log.Printf("Promotion pass failed to count RAC for unit %s: %v", unit.Key(), err)
		result.Failures++
		result.Duration = time.Since(start)
		return result
	}

	capacity := RacCapacity(unit.TotalSeats, activeRac)
	if capacity <= 0 {
		result.Duration = time.Since(start)
		return result
	}

	seats, err := e.inventory.AvailableSeats(ctx, unit.CoachID, unit.JourneyDate)
	if err != nil {
		log.Printf("Promotion pass failed to read seats for unit %s: %v", unit.Key(), err)
		result.Failures++
		result.Duration = time.Since(start)
		return result
	}
	if len(seats) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	queue, err := e.queue.ActiveWaitlistQueue(ctx, unit.CoachID, unit.JourneyDate)
	if err != nil {
		log.Printf("Promotion pass failed to read waitlist for unit %s: %v", unit.Key(), err)
		result.Failures++
		result.Duration = time.Since(start)
		return result
	}
	if len(queue) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	taken := make(map[int]bool, len(seats))
	for i := 0; i < len(queue) && result.Promoted < capacity; i++ {
		entry := &queue[i]

		seatIdx, ok := pickSeat(seats, taken, entry)
		if !ok {
			break // no seats left at all
		}

		_, record, err := e.queue.PromoteToRac(ctx, entry.ID, seats[seatIdx].ID)
		if err != nil {
			if errors.Is(err, inventory.ErrSeatUnavailable) {
				// Lost the seat to a concurrent claim; keep the entry, burn
				// the seat, try the next seat for this same entry.
				taken[seatIdx] = true
				i--
				continue
			}
			if errors.Is(err, waitlist.ErrEntryNotFound) {
				// Entry moved (cancelled or confirmed) since the queue read;
				// skip it, the seat stays in play.
				continue
			}
			log.Printf("Failed to promote waitlist entry %s: %v", entry.ID, err)
			result.Failures++
			continue
		}

		taken[seatIdx] = true
		result.Promoted++
		e.publisher.Dispatch(ctx, record)
	}

	result.Duration = time.Since(start)
	return result
}

// pickSeat finds the first unclaimed seat matching the entry's seat/berth
// preference, falling back to the first unclaimed seat when nothing matches.
func pickSeat(seats []inventory.Seat, taken map[int]bool, entry *waitlist.WaitlistEntry) (int, bool) {
	fallback := -1
	for i := range seats {
		if taken[i] {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		if matchesPreference(&seats[i], entry) {
			return i, true
		}
	}
	if fallback >= 0 {
		return fallback, true
	}
	return 0, false
}

func matchesPreference(seat *inventory.Seat, entry *waitlist.WaitlistEntry) bool {
	if entry.PreferredSeatType != nil && string(seat.SeatType) != *entry.PreferredSeatType {
		return false
	}
	if entry.PreferredBerthType != nil && string(seat.BerthType) != *entry.PreferredBerthType {
		return false
	}
	return true
}
