package bookings

import (
	"time"

	"railbook/internal/waitlist"

	"github.com/google/uuid"
)

// Status represents the booking lifecycle state
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Source records which queue the booking was confirmed from
type Source string

const (
	SourceRac      Source = "RAC"
	SourceWaitlist Source = "WAITLIST"
)

// Booking is a confirmed reservation. It exists only once a seat reached
// BOOKED; there is no tentative booking state, the queues carry tentative
// holds instead.
type Booking struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PNR                string             `json:"pnr" gorm:"type:varchar(12);not null;uniqueIndex"`
	UserID             uuid.UUID          `json:"user_id" gorm:"type:uuid;not null;index"`
	TrainID            uuid.UUID          `json:"train_id" gorm:"type:uuid;not null;index"`
	CoachID            uuid.UUID          `json:"coach_id" gorm:"type:uuid;not null;index"`
	SeatID             uuid.UUID          `json:"seat_id" gorm:"type:uuid;not null;index"`
	JourneyDate        time.Time          `json:"journey_date" gorm:"type:date;not null;index"`
	Status             Status             `json:"status" gorm:"type:varchar(20);not null;index"`
	Source             Source             `json:"source" gorm:"type:varchar(20);not null"`
	QuotaType          waitlist.QuotaType `json:"quota_type" gorm:"type:varchar(20);not null"`
	PassengerCount     int                `json:"passenger_count" gorm:"not null;default:1"`
	WaitlistEntryID    *uuid.UUID         `json:"waitlist_entry_id,omitempty" gorm:"type:uuid;index"`
	RacEntryID         *uuid.UUID         `json:"rac_entry_id,omitempty" gorm:"type:uuid;index"`
	ConfirmedAt        time.Time          `json:"confirmed_at" gorm:"not null"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}
