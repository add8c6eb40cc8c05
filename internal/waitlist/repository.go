package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railbook/internal/inventory"
	"railbook/internal/notifications"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// queueOrder is the single ordering rule for both queues: priority score
// descending, sequence number ascending as the FIFO tie-break. Every consumer
// of a queue must go through ActiveWaitlistQueue/ActiveRacQueue so the rule
// cannot drift between the promotion and confirmation paths.
const (
	waitlistQueueOrder = "priority_score DESC, waitlist_number ASC"
	racQueueOrder      = "priority_score DESC, rac_number ASC"
)

// Repository interface defines the contract for queue store operations.
// Mutations are atomic per entry; promotion binds the seat reservation and
// the queue-state transition in one transaction so a cancelled sweep can
// never leave a reserved-but-unlinked seat.
type Repository interface {
	// Entry lifecycle
	CreateEntry(ctx context.Context, entry *WaitlistEntry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*WaitlistEntry, error)
	GetRacEntry(ctx context.Context, id uuid.UUID) (*RacEntry, error)
	RacByWaitlistEntry(ctx context.Context, waitlistEntryID uuid.UUID) (*RacEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]WaitlistEntry, error)
	HasOpenEntry(ctx context.Context, userID, trainID, coachID uuid.UUID, journeyDate time.Time) (bool, error)

	// Ordered queues
	ActiveWaitlistQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]WaitlistEntry, error)
	ActiveRacQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]RacEntry, error)
	ActiveRacCount(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) (int, error)
	QueuePosition(ctx context.Context, entry *WaitlistEntry) (position int, queueLength int, err error)

	// Transitions
	PromoteToRac(ctx context.Context, entryID, seatID uuid.UUID) (*RacEntry, *notifications.OutboxRecord, error)
	CancelWaitlistEntry(ctx context.Context, entry *WaitlistEntry, reason string) error
	CancelRacEntry(ctx context.Context, rac *RacEntry, reason string) error

	// Expiry sweeps
	ExpirePendingEntries(ctx context.Context, now time.Time, limit int) (int, error)
	AutoCancelDepartedRac(ctx context.Context, now time.Time, limit int) (int, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new queue store repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateEntry inserts a waitlist entry, allocating its waitlist number from
// the scope sequence in the same transaction.
func (r *repository) CreateEntry(ctx context.Context, entry *WaitlistEntry) error {
	entry.ID = uuid.New()
	entry.JourneyDate = NormalizeJourneyDate(entry.JourneyDate)
	entry.Status = WaitlistStatusPending
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	scope := Scope{TrainID: entry.TrainID, JourneyDate: entry.JourneyDate, QuotaType: entry.QuotaType}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequenceTx(tx, SequenceKindWaitlist, scope)
		if err != nil {
			return err
		}
		entry.WaitlistNumber = number

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create waitlist entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// GetEntry gets a waitlist entry by ID
func (r *repository) GetEntry(ctx context.Context, id uuid.UUID) (*WaitlistEntry, error) {
	var entry WaitlistEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return &entry, nil
}

// GetRacEntry gets a RAC entry by ID
func (r *repository) GetRacEntry(ctx context.Context, id uuid.UUID) (*RacEntry, error) {
	var entry RacEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get RAC entry: %w", err)
	}
	return &entry, nil
}

// RacByWaitlistEntry finds the RAC record created from a waitlist entry
func (r *repository) RacByWaitlistEntry(ctx context.Context, waitlistEntryID uuid.UUID) (*RacEntry, error) {
	var entry RacEntry
	err := r.db.WithContext(ctx).Where("waitlist_entry_id = ?", waitlistEntryID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get RAC entry for waitlist entry: %w", err)
	}
	return &entry, nil
}

// ListByUser lists all waitlist entries for a user, newest first
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]WaitlistEntry, error) {
	var entries []WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user entries: %w", err)
	}
	return entries, nil
}

// HasOpenEntry reports whether the user already holds an open (PENDING or
// RAC-linked) entry for the same train/coach/date.
func (r *repository) HasOpenEntry(ctx context.Context, userID, trainID, coachID uuid.UUID, journeyDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Where("user_id = ? AND train_id = ? AND coach_id = ? AND journey_date = ? AND status IN ?",
			userID, trainID, coachID, NormalizeJourneyDate(journeyDate),
			[]WaitlistStatus{WaitlistStatusPending, WaitlistStatusRac}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check open entries: %w", err)
	}
	return count > 0, nil
}

// ActiveWaitlistQueue returns PENDING, unexpired entries for the coach/date
// in serving order.
func (r *repository) ActiveWaitlistQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]WaitlistEntry, error) {
	var entries []WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND journey_date = ? AND status = ? AND expiry_time > ?",
			coachID, NormalizeJourneyDate(journeyDate), WaitlistStatusPending, time.Now()).
		Order(waitlistQueueOrder).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load waitlist queue: %w", err)
	}
	return entries, nil
}

// ActiveRacQueue returns open RAC entries for the coach/date in serving order
func (r *repository) ActiveRacQueue(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]RacEntry, error) {
	var entries []RacEntry
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND journey_date = ? AND status = ?",
			coachID, NormalizeJourneyDate(journeyDate), RacStatusRac).
		Order(racQueueOrder).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load RAC queue: %w", err)
	}
	return entries, nil
}

// ActiveRacCount counts open RAC entries for the coach/date
func (r *repository) ActiveRacCount(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RacEntry{}).
		Where("coach_id = ? AND journey_date = ? AND status = ?",
			coachID, NormalizeJourneyDate(journeyDate), RacStatusRac).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count RAC entries: %w", err)
	}
	return int(count), nil
}

// QueuePosition computes the entry's 1-based serving position and the total
// open queue length in its coach/date queue. It reads the same filtered,
// ordered queue the sweeps serve from, so an expired entry ahead of the
// caller never inflates the reported position. Position 0 means the entry is
// no longer in the open queue.
func (r *repository) QueuePosition(ctx context.Context, entry *WaitlistEntry) (int, int, error) {
	queue, err := r.ActiveWaitlistQueue(ctx, entry.CoachID, entry.JourneyDate)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute queue position: %w", err)
	}
	return positionIn(queue, entry.ID), len(queue), nil
}

// positionIn returns the 1-based index of the entry in the serving-ordered
// queue, or 0 when it is absent.
func positionIn(queue []WaitlistEntry, entryID uuid.UUID) int {
	for i := range queue {
		if queue[i].ID == entryID {
			return i + 1
		}
	}
	return 0
}

// PromoteToRac converts a PENDING waitlist entry into a RAC hold on the given
// seat. Reservation, RAC-number allocation, RAC insert, the waitlist status
// transition and the promotion outbox row are one transaction: either the
// entry holds the RESERVED seat with its event queued, or nothing changed.
// The committed outbox record is returned for immediate delivery.
func (r *repository) PromoteToRac(ctx context.Context, entryID, seatID uuid.UUID) (*RacEntry, *notifications.OutboxRecord, error) {
	var rac *RacEntry
	var record *notifications.OutboxRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry WaitlistEntry
		if err := tx.Where("id = ?", entryID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("failed to load waitlist entry: %w", err)
		}

		if err := inventory.ReserveTx(tx, seatID); err != nil {
			return err
		}

		scope := Scope{TrainID: entry.TrainID, JourneyDate: entry.JourneyDate, QuotaType: entry.QuotaType}
		racNumber, err := nextSequenceTx(tx, SequenceKindRac, scope)
		if err != nil {
			return err
		}

		now := time.Now()
		sid := seatID
		rac = &RacEntry{
			ID:              uuid.New(),
			UserID:          entry.UserID,
			TrainID:         entry.TrainID,
			CoachID:         entry.CoachID,
			SeatID:          &sid,
			WaitlistEntryID: entry.ID,
			JourneyDate:     entry.JourneyDate,
			RacNumber:       racNumber,
			Status:          RacStatusRac,
			QuotaType:       entry.QuotaType,
			PassengerCount:  entry.PassengerCount,
			PriorityScore:   entry.PriorityScore,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(rac).Error; err != nil {
			return fmt.Errorf("failed to create RAC entry: %w", err)
		}

		// Conditional on PENDING so a concurrent cancel/confirm wins cleanly.
		res := tx.Model(&WaitlistEntry{}).
			Where("id = ? AND status = ?", entry.ID, WaitlistStatusPending).
			Updates(map[string]interface{}{"status": WaitlistStatusRac, "updated_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to mark waitlist entry RAC: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrEntryNotFound
		}

		correlationID := notifications.CorrelationIDFrom(ctx)
		if correlationID == uuid.Nil {
			correlationID = uuid.New()
		}
		event := &notifications.AllocationEvent{
			CorrelationID:   correlationID,
			Type:            notifications.EventWaitlistPromoted,
			UserID:          entry.UserID,
			TrainID:         entry.TrainID,
			CoachID:         entry.CoachID,
			SeatID:          rac.SeatID,
			WaitlistEntryID: entry.ID,
			RacEntryID:      &rac.ID,
			JourneyDate:     entry.JourneyDate.Format("2006-01-02"),
			QuotaType:       string(entry.QuotaType),
		}
		rec, err := notifications.NewOutboxRecord(event)
		if err != nil {
			return fmt.Errorf("failed to build outbox record: %w", err)
		}
		if err := notifications.CreateOutboxTx(tx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rac, record, nil
}

// CancelWaitlistEntry cancels a PENDING entry on behalf of its owner
func (r *repository) CancelWaitlistEntry(ctx context.Context, entry *WaitlistEntry, reason string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Where("id = ? AND status = ?", entry.ID, WaitlistStatusPending).
		Updates(map[string]interface{}{
			"status":              WaitlistStatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": reason,
			"updated_at":          now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to cancel waitlist entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotCancelable
	}
	return nil
}

// CancelRacEntry cancels an open RAC entry, releases its RESERVED seat and
// closes the linked waitlist entry, all in one transaction, so the freed seat
// is visible to the next sweep with no half-cancelled state in between.
func (r *repository) CancelRacEntry(ctx context.Context, rac *RacEntry, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&RacEntry{}).
			Where("id = ? AND status = ?", rac.ID, RacStatusRac).
			Updates(map[string]interface{}{
				"status":       RacStatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to cancel RAC entry: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotCancelable
		}

		if rac.SeatID != nil {
			if err := inventory.ReleaseTx(tx, *rac.SeatID); err != nil {
				return err
			}
		}

		err := tx.Model(&WaitlistEntry{}).
			Where("id = ? AND status = ?", rac.WaitlistEntryID, WaitlistStatusRac).
			Updates(map[string]interface{}{
				"status":              WaitlistStatusCancelled,
				"cancelled_at":        now,
				"cancellation_reason": reason,
				"updated_at":          now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to close waitlist entry: %w", err)
		}
		return nil
	})
}

// ExpirePendingEntries marks PENDING entries past their expiry time EXPIRED.
// Batched by limit; returns the number expired.
func (r *repository) ExpirePendingEntries(ctx context.Context, now time.Time, limit int) (int, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Where("status = ? AND expiry_time < ?", WaitlistStatusPending, now).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find expired entries: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Where("id IN ? AND status = ?", ids, WaitlistStatusPending).
		Updates(map[string]interface{}{
			"status":     WaitlistStatusExpired,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire entries: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// AutoCancelDepartedRac auto-cancels open RAC entries whose journey date has
// passed, releasing any held seats. Each entry is its own transaction so one
// bad row cannot wedge the batch.
func (r *repository) AutoCancelDepartedRac(ctx context.Context, now time.Time, limit int) (int, error) {
	var stale []RacEntry
	err := r.db.WithContext(ctx).
		Where("status = ? AND journey_date < ?", RacStatusRac, NormalizeJourneyDate(now)).
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find departed RAC entries: %w", err)
	}

	cancelled := 0
	for i := range stale {
		rac := &stale[i]
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&RacEntry{}).
				Where("id = ? AND status = ?", rac.ID, RacStatusRac).
				Updates(map[string]interface{}{
					"status":       RacStatusAutoCancelled,
					"cancelled_at": now,
					"updated_at":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			if rac.SeatID != nil {
				if err := inventory.ReleaseTx(tx, *rac.SeatID); err != nil {
					// Seat may already be booked onward; the hold is gone either way.
					if !errors.Is(err, inventory.ErrSeatUnavailable) {
						return err
					}
				}
			}
			return nil
		})
		if err == nil {
			cancelled++
		}
	}
	return cancelled, nil
}
