package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/waitlist"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// pnrAttempts bounds retries on a PNR collision before giving up
const pnrAttempts = 5

// Repository interface defines the contract for booking data operations.
// ConfirmRac and ConfirmWaitlist are the two write paths the confirmation
// sweep uses; each runs seat transition, queue transition, booking insert and
// outbox insert as a single transaction, and returns the committed outbox
// record so the caller can attempt immediate delivery.
type Repository interface {
	ConfirmRac(ctx context.Context, rac *waitlist.RacEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error)
	ConfirmWaitlist(ctx context.Context, entry *waitlist.WaitlistEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error)
	GetByPNR(ctx context.Context, pnr string) (*Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	CancelBooking(ctx context.Context, booking *Booking, reason string) error
	CountByTrainDate(ctx context.Context, trainID uuid.UUID, journeyDate time.Time) (int64, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new booking repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ConfirmRac books a freed seat for the head RAC entry. The freed seat moves
// to BOOKED, the seat the entry was holding goes back to AVAILABLE, the RAC
// entry and its waitlist entry move to CONFIRMED, and the booking row is
// inserted, all atomically. A stale RAC entry (already cancelled or confirmed
// elsewhere) aborts with ErrQueueEntryStale.
func (r *repository) ConfirmRac(ctx context.Context, rac *waitlist.RacEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error) {
	var booking *Booking
	var record *notifications.OutboxRecord
	err := r.withPNRRetry(func(pnr string) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := inventory.BookTx(tx, seatID); err != nil {
				if errors.Is(err, inventory.ErrSeatUnavailable) {
					return fmt.Errorf("seat %s: %w", seatID, ErrQueueEntryStale)
				}
				return err
			}

			now := time.Now()

			res := tx.Model(&waitlist.RacEntry{}).
				Where("id = ? AND status = ?", rac.ID, waitlist.RacStatusRac).
				Updates(map[string]interface{}{
					"status":       waitlist.RacStatusConfirmed,
					"seat_id":      seatID,
					"confirmed_at": now,
					"updated_at":   now,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to confirm RAC entry: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrQueueEntryStale
			}

			err := tx.Model(&waitlist.WaitlistEntry{}).
				Where("id = ? AND status = ?", rac.WaitlistEntryID, waitlist.WaitlistStatusRac).
				Updates(map[string]interface{}{
					"status":       waitlist.WaitlistStatusConfirmed,
					"confirmed_at": now,
					"updated_at":   now,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to confirm waitlist entry: %w", err)
			}

			// The hold the passenger had is no longer needed; free it for the
			// promotion pass.
			if rac.SeatID != nil && *rac.SeatID != seatID {
				if err := inventory.ReleaseTx(tx, *rac.SeatID); err != nil {
					return err
				}
			}

			wlID := rac.WaitlistEntryID
			racID := rac.ID
			booking = &Booking{
				ID:              uuid.New(),
				PNR:             pnr,
				UserID:          rac.UserID,
				TrainID:         rac.TrainID,
				CoachID:         rac.CoachID,
				SeatID:          seatID,
				JourneyDate:     rac.JourneyDate,
				Status:          StatusConfirmed,
				Source:          SourceRac,
				QuotaType:       rac.QuotaType,
				PassengerCount:  rac.PassengerCount,
				WaitlistEntryID: &wlID,
				RacEntryID:      &racID,
				ConfirmedAt:     now,
			}
			if err := tx.Create(booking).Error; err != nil {
				return fmt.Errorf("failed to create booking: %w", err)
			}

			rec, err := confirmationOutboxTx(ctx, tx, notifications.EventRacConfirmed, booking)
			if err != nil {
				return err
			}
			record = rec
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return booking, record, nil
}

// ConfirmWaitlist books a free seat directly for a PENDING waitlist entry,
// bypassing RAC. The seat moves AVAILABLE -> BOOKED and the entry to
// CONFIRMED atomically.
func (r *repository) ConfirmWaitlist(ctx context.Context, entry *waitlist.WaitlistEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error) {
	var booking *Booking
	var record *notifications.OutboxRecord
	err := r.withPNRRetry(func(pnr string) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := inventory.BookTx(tx, seatID); err != nil {
				if errors.Is(err, inventory.ErrSeatUnavailable) {
					return fmt.Errorf("seat %s: %w", seatID, ErrQueueEntryStale)
				}
				return err
			}

			now := time.Now()

			res := tx.Model(&waitlist.WaitlistEntry{}).
				Where("id = ? AND status = ?", entry.ID, waitlist.WaitlistStatusPending).
				Updates(map[string]interface{}{
					"status":       waitlist.WaitlistStatusConfirmed,
					"confirmed_at": now,
					"updated_at":   now,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to confirm waitlist entry: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrQueueEntryStale
			}

			wlID := entry.ID
			booking = &Booking{
				ID:              uuid.New(),
				PNR:             pnr,
				UserID:          entry.UserID,
				TrainID:         entry.TrainID,
				CoachID:         entry.CoachID,
				SeatID:          seatID,
				JourneyDate:     entry.JourneyDate,
				Status:          StatusConfirmed,
				Source:          SourceWaitlist,
				QuotaType:       entry.QuotaType,
				PassengerCount:  entry.PassengerCount,
				WaitlistEntryID: &wlID,
				ConfirmedAt:     now,
			}
			if err := tx.Create(booking).Error; err != nil {
				return fmt.Errorf("failed to create booking: %w", err)
			}

			rec, err := confirmationOutboxTx(ctx, tx, notifications.EventWaitlistConfirmed, booking)
			if err != nil {
				return err
			}
			record = rec
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return booking, record, nil
}

// confirmationOutboxTx inserts the PENDING outbox row for a confirmation
// inside the same transaction, so the event cannot be lost between commit
// and delivery. Retried attempts rebuild the row because the PNR changes.
func confirmationOutboxTx(ctx context.Context, tx *gorm.DB, eventType notifications.EventType, booking *Booking) (*notifications.OutboxRecord, error) {
	correlationID := notifications.CorrelationIDFrom(ctx)
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	seatID := booking.SeatID
	event := &notifications.AllocationEvent{
		CorrelationID: correlationID,
		Type:          eventType,
		UserID:        booking.UserID,
		TrainID:       booking.TrainID,
		CoachID:       booking.CoachID,
		SeatID:        &seatID,
		RacEntryID:    booking.RacEntryID,
		BookingID:     &booking.ID,
		PNR:           booking.PNR,
		JourneyDate:   booking.JourneyDate.Format("2006-01-02"),
		QuotaType:     string(booking.QuotaType),
	}
	if booking.WaitlistEntryID != nil {
		event.WaitlistEntryID = *booking.WaitlistEntryID
	}
	record, err := notifications.NewOutboxRecord(event)
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox record: %w", err)
	}
	if err := notifications.CreateOutboxTx(tx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetByPNR gets a booking by its PNR
func (r *repository) GetByPNR(ctx context.Context, pnr string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("pnr = ?", pnr).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking by PNR: %w", err)
	}
	return &booking, nil
}

// GetByID gets a booking by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// ListByUser lists a user's bookings, newest first
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CancelBooking cancels a confirmed booking and frees its seat in one
// transaction. The freed seat goes back to AVAILABLE for the next sweep.
func (r *repository) CancelBooking(ctx context.Context, booking *Booking, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", booking.ID, StatusConfirmed).
			Updates(map[string]interface{}{
				"status":              StatusCancelled,
				"cancelled_at":        now,
				"cancellation_reason": reason,
				"updated_at":          now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to cancel booking: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotCancelable
		}

		return inventory.FreeBookedTx(tx, booking.SeatID)
	})
}

// CountByTrainDate counts confirmed bookings for a train/date
func (r *repository) CountByTrainDate(ctx context.Context, trainID uuid.UUID, journeyDate time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("train_id = ? AND journey_date = ? AND status = ?",
			trainID, waitlist.NormalizeJourneyDate(journeyDate), StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// withPNRRetry runs fn with fresh PNRs until it succeeds or the error is not
// a PNR uniqueness collision.
func (r *repository) withPNRRetry(fn func(pnr string) error) error {
	var lastErr error
	for attempt := 0; attempt < pnrAttempts; attempt++ {
		pnr, err := GeneratePNR()
		if err != nil {
			return err
		}
		err = fn(pnr)
		if err == nil {
			return nil
		}
		if !isDuplicatePNR(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("failed to allocate unique PNR after %d attempts: %w", pnrAttempts, lastErr)
}

func isDuplicatePNR(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "pnr")
}
