package inventory

import (
	"time"

	"github.com/google/uuid"
)

// SeatStatus represents the persisted state of a seat
type SeatStatus string

const (
	SeatStatusAvailable   SeatStatus = "AVAILABLE"
	SeatStatusReserved    SeatStatus = "RESERVED" // soft hold by a RAC entry, not yet a ticket
	SeatStatusBooked      SeatStatus = "BOOKED"
	SeatStatusMaintenance SeatStatus = "MAINTENANCE"
	SeatStatusBlocked     SeatStatus = "BLOCKED"
)

// SeatType represents the physical position of a seat
type SeatType string

const (
	SeatTypeWindow    SeatType = "WINDOW"
	SeatTypeAisle     SeatType = "AISLE"
	SeatTypeMiddle    SeatType = "MIDDLE"
	SeatTypeSideUpper SeatType = "SIDE_UPPER"
	SeatTypeSideLower SeatType = "SIDE_LOWER"
)

// BerthType represents the berth level of a seat
type BerthType string

const (
	BerthTypeLower     BerthType = "LOWER"
	BerthTypeMiddle    BerthType = "MIDDLE"
	BerthTypeUpper     BerthType = "UPPER"
	BerthTypeSideLower BerthType = "SIDE_LOWER"
	BerthTypeSideUpper BerthType = "SIDE_UPPER"
)

// Seat belongs to exactly one coach. Status is the single source of truth for
// who may claim the seat: AVAILABLE seats have no claimant, RESERVED seats are
// held by exactly one RAC entry, BOOKED seats by exactly one active booking.
type Seat struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CoachID              uuid.UUID  `json:"coach_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_coach_seat"`
	SeatNumber           string     `json:"seat_number" gorm:"not null;uniqueIndex:idx_coach_seat"`
	BerthNumber          string     `json:"berth_number"`
	SeatType             SeatType   `json:"seat_type" gorm:"type:varchar(20);not null"`
	BerthType            BerthType  `json:"berth_type" gorm:"type:varchar(20)"`
	Status               SeatStatus `json:"status" gorm:"type:varchar(20);not null;default:'AVAILABLE';index"`
	IsLadiesQuota        bool       `json:"is_ladies_quota" gorm:"default:false"`
	IsSeniorCitizenQuota bool       `json:"is_senior_citizen_quota" gorm:"default:false"`
	IsHandicappedQuota   bool       `json:"is_handicapped_quota" gorm:"default:false"`
	CreatedAt            time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

// IsAvailable returns true if the seat has no claimant
func (s *Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}

// IsValid checks if the seat status is valid
func (ss SeatStatus) IsValid() bool {
	switch ss {
	case SeatStatusAvailable, SeatStatusReserved, SeatStatusBooked, SeatStatusMaintenance, SeatStatusBlocked:
		return true
	}
	return false
}
