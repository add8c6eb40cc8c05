package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface defines the contract for seat inventory operations.
// Reserve and Book are the single choke point for claiming a seat: both are
// conditional state transitions that fail with ErrSeatUnavailable when the
// seat is not in the expected prior state, so two consumers can never claim
// the same seat even from a stale available-seats snapshot.
type Repository interface {
	AvailableSeats(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]Seat, error)
	Reserve(ctx context.Context, seatID uuid.UUID) error
	Book(ctx context.Context, seatID uuid.UUID) error
	Release(ctx context.Context, seatID uuid.UUID) error

	CreateSeats(ctx context.Context, seats []Seat) error
	GetSeat(ctx context.Context, id uuid.UUID) (*Seat, error)
	SeatsByCoach(ctx context.Context, coachID uuid.UUID) ([]Seat, error)
	CountByStatus(ctx context.Context, coachID uuid.UUID, status SeatStatus) (int64, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new inventory repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// AvailableSeats returns seats currently AVAILABLE for the coach, excluding
// anything RESERVED or BOOKED. The journey date scopes the caller's sweep;
// seat state itself is authoritative per coach.
func (r *repository) AvailableSeats(ctx context.Context, coachID uuid.UUID, journeyDate time.Time) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND status = ?", coachID, SeatStatusAvailable).
		Order("seat_number ASC").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query available seats: %w", err)
	}
	return seats, nil
}

// Reserve transitions a seat AVAILABLE -> RESERVED
func (r *repository) Reserve(ctx context.Context, seatID uuid.UUID) error {
	return TransitionTx(r.db.WithContext(ctx), seatID, SeatStatusAvailable, SeatStatusReserved)
}

// Book transitions a seat AVAILABLE -> BOOKED
func (r *repository) Book(ctx context.Context, seatID uuid.UUID) error {
	return BookTx(r.db.WithContext(ctx), seatID)
}

// Release transitions a seat RESERVED -> AVAILABLE (RAC hold given up)
func (r *repository) Release(ctx context.Context, seatID uuid.UUID) error {
	return TransitionTx(r.db.WithContext(ctx), seatID, SeatStatusReserved, SeatStatusAvailable)
}

// TransitionTx performs a compare-and-set status transition inside the given
// transaction (or session). The WHERE clause on the prior status makes the
// update conditional; zero affected rows means the race was lost.
func TransitionTx(tx *gorm.DB, seatID uuid.UUID, from, to SeatStatus) error {
	res := tx.Model(&Seat{}).
		Where("id = ? AND status = ?", seatID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to transition seat %s: %w", seatID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("seat %s %s->%s: %w", seatID, from, to, ErrSeatUnavailable)
	}
	return nil
}

// ReserveTx is TransitionTx specialised to the waitlist-promotion hold
func ReserveTx(tx *gorm.DB, seatID uuid.UUID) error {
	return TransitionTx(tx, seatID, SeatStatusAvailable, SeatStatusReserved)
}

// BookTx books a seat from AVAILABLE inside the given transaction. Every
// confirmation path books a freed seat, so a RESERVED seat here means a
// concurrent promotion claimed it between the snapshot read and this write;
// the conditional update loses that race instead of stealing the hold.
func BookTx(tx *gorm.DB, seatID uuid.UUID) error {
	return TransitionTx(tx, seatID, SeatStatusAvailable, SeatStatusBooked)
}

// ReleaseTx frees a RESERVED seat inside the given transaction
func ReleaseTx(tx *gorm.DB, seatID uuid.UUID) error {
	return TransitionTx(tx, seatID, SeatStatusReserved, SeatStatusAvailable)
}

// FreeBookedTx returns a BOOKED seat to AVAILABLE, used when a confirmed
// booking is cancelled.
func FreeBookedTx(tx *gorm.DB, seatID uuid.UUID) error {
	return TransitionTx(tx, seatID, SeatStatusBooked, SeatStatusAvailable)
}

// CreateSeats bulk-inserts seats for a coach
func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	now := time.Now()
	for i := range seats {
		seats[i].ID = uuid.New()
		seats[i].CreatedAt = now
		seats[i].UpdatedAt = now
		if seats[i].Status == "" {
			seats[i].Status = SeatStatusAvailable
		}
	}

	if err := r.db.WithContext(ctx).Create(&seats).Error; err != nil {
		return fmt.Errorf("failed to create seats: %w", err)
	}
	return nil
}

// GetSeat gets a seat by ID
func (r *repository) GetSeat(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&seat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}
	return &seat, nil
}

// SeatsByCoach lists all seats of a coach
func (r *repository) SeatsByCoach(ctx context.Context, coachID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order("seat_number ASC").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	return seats, nil
}

// CountByStatus counts seats of a coach in a given status
func (r *repository) CountByStatus(ctx context.Context, coachID uuid.UUID, status SeatStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("coach_id = ? AND status = ?", coachID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count seats: %w", err)
	}
	return count, nil
}
