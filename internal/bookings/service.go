package bookings

import (
	"context"
	"fmt"

	"railbook/internal/notifications"
	"railbook/internal/waitlist"

	"github.com/google/uuid"
)

// Service interface defines the contract for booking business operations
type Service interface {
	// Confirmation paths, driven by the allocation sweeps
	ConfirmRac(ctx context.Context, rac *waitlist.RacEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error)
	ConfirmWaitlist(ctx context.Context, entry *waitlist.WaitlistEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error)

	// Passenger-facing operations
	GetByPNR(ctx context.Context, pnr string) (*Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*Booking, error)
}

// service implements the Service interface
type service struct {
	repo Repository
}

// NewService creates a new booking service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ConfirmRac(ctx context.Context, rac *waitlist.RacEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error) {
	return s.repo.ConfirmRac(ctx, rac, seatID)
}

func (s *service) ConfirmWaitlist(ctx context.Context, entry *waitlist.WaitlistEntry, seatID uuid.UUID) (*Booking, *notifications.OutboxRecord, error) {
	return s.repo.ConfirmWaitlist(ctx, entry, seatID)
}

func (s *service) GetByPNR(ctx context.Context, pnr string) (*Booking, error) {
	return s.repo.GetByPNR(ctx, pnr)
}

func (s *service) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CancelBooking cancels the caller's own confirmed booking, freeing its seat
// for the next reallocation sweep.
func (s *service) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}
	if reason == "" {
		reason = "cancelled by user"
	}
	if err := s.repo.CancelBooking(ctx, booking, reason); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, bookingID)
}
