package waitlist

import (
	"time"

	"github.com/google/uuid"
)

// QuotaType is a named allocation class. It scopes sequence numbering and
// feeds priority scoring.
type QuotaType string

const (
	QuotaGeneral       QuotaType = "GENERAL"
	QuotaTatkal        QuotaType = "TATKAL"
	QuotaLadies        QuotaType = "LADIES"
	QuotaSeniorCitizen QuotaType = "SENIOR_CITIZEN"
	QuotaHandicapped   QuotaType = "HANDICAPPED"
	QuotaDefence       QuotaType = "DEFENCE"
	QuotaForeignTourist QuotaType = "FOREIGN_TOURIST"
	QuotaPremiumTatkal QuotaType = "PREMIUM_TATKAL"
)

// WaitlistStatus represents the status of a waitlist entry
type WaitlistStatus string

const (
	WaitlistStatusPending       WaitlistStatus = "PENDING"
	WaitlistStatusRac           WaitlistStatus = "RAC"
	WaitlistStatusConfirmed     WaitlistStatus = "CONFIRMED"
	WaitlistStatusCancelled     WaitlistStatus = "CANCELLED"
	WaitlistStatusExpired       WaitlistStatus = "EXPIRED"
	WaitlistStatusAutoCancelled WaitlistStatus = "AUTO_CANCELLED"
)

// RacStatus represents the status of a RAC entry
type RacStatus string

const (
	RacStatusRac           RacStatus = "RAC"
	RacStatusConfirmed     RacStatus = "CONFIRMED"
	RacStatusCancelled     RacStatus = "CANCELLED"
	RacStatusExpired       RacStatus = "EXPIRED"
	RacStatusAutoCancelled RacStatus = "AUTO_CANCELLED"
)

// WaitlistEntry represents a passenger waiting for a seat. The waitlist
// number is assigned at creation as the next integer in the
// (train, journey date, quota) scope and is never reused.
type WaitlistEntry struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID             uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	TrainID            uuid.UUID      `json:"train_id" gorm:"type:uuid;not null;index:idx_wl_scope"`
	CoachID            uuid.UUID      `json:"coach_id" gorm:"type:uuid;not null;index"`
	JourneyDate        time.Time      `json:"journey_date" gorm:"type:date;not null;index:idx_wl_scope"`
	WaitlistNumber     int            `json:"waitlist_number" gorm:"not null"`
	Status             WaitlistStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	QuotaType          QuotaType      `json:"quota_type" gorm:"type:varchar(20);not null;index:idx_wl_scope"`
	PassengerCount     int            `json:"passenger_count" gorm:"not null;default:1"`
	PreferredSeatType  *string        `json:"preferred_seat_type,omitempty"`
	PreferredBerthType *string        `json:"preferred_berth_type,omitempty"`
	IsLadiesQuota      bool           `json:"is_ladies_quota" gorm:"default:false"`
	IsSeniorCitizen    bool           `json:"is_senior_citizen" gorm:"default:false"`
	IsHandicapped      bool           `json:"is_handicapped" gorm:"default:false"`
	PriorityScore      int            `json:"priority_score" gorm:"not null;default:0;index"`
	ExpiryTime         time.Time      `json:"expiry_time" gorm:"not null;index"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	ConfirmedAt        *time.Time     `json:"confirmed_at,omitempty"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// RacEntry represents a Reservation-Against-Cancellation hold. The referenced
// seat is RESERVED (a soft hold), not BOOKED; booking happens only on
// confirmation.
type RacEntry struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID          uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	TrainID         uuid.UUID  `json:"train_id" gorm:"type:uuid;not null;index:idx_rac_scope"`
	CoachID         uuid.UUID  `json:"coach_id" gorm:"type:uuid;not null;index"`
	SeatID          *uuid.UUID `json:"seat_id,omitempty" gorm:"type:uuid;index"`
	WaitlistEntryID uuid.UUID  `json:"waitlist_entry_id" gorm:"type:uuid;not null;index"`
	JourneyDate     time.Time  `json:"journey_date" gorm:"type:date;not null;index:idx_rac_scope"`
	RacNumber       int        `json:"rac_number" gorm:"not null"`
	Status          RacStatus  `json:"status" gorm:"type:varchar(20);not null;index"`
	QuotaType       QuotaType  `json:"quota_type" gorm:"type:varchar(20);not null;index:idx_rac_scope"`
	PassengerCount  int        `json:"passenger_count" gorm:"not null;default:1"`
	PriorityScore   int        `json:"priority_score" gorm:"not null;default:0;index"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for WaitlistEntry
func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// TableName sets the table name for RacEntry
func (RacEntry) TableName() string {
	return "rac_entries"
}

// IsValid checks if the quota type is valid
func (q QuotaType) IsValid() bool {
	switch q {
	case QuotaGeneral, QuotaTatkal, QuotaLadies, QuotaSeniorCitizen,
		QuotaHandicapped, QuotaDefence, QuotaForeignTourist, QuotaPremiumTatkal:
		return true
	}
	return false
}

// IsTerminal returns true for states an entry can never leave. RAC is not
// terminal: the entry stays open until its RAC hold confirms or is cancelled.
func (ws WaitlistStatus) IsTerminal() bool {
	switch ws {
	case WaitlistStatusConfirmed, WaitlistStatusCancelled, WaitlistStatusExpired,
		WaitlistStatusAutoCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// All transitions are one-way; nothing re-enters PENDING. RAC entries follow
// their hold: confirmed when the hold books, closed when the hold closes.
func (ws WaitlistStatus) CanTransitionTo(target WaitlistStatus) bool {
	validTransitions := map[WaitlistStatus][]WaitlistStatus{
		WaitlistStatusPending: {WaitlistStatusRac, WaitlistStatusConfirmed,
			WaitlistStatusCancelled, WaitlistStatusExpired, WaitlistStatusAutoCancelled},
		WaitlistStatusRac: {WaitlistStatusConfirmed, WaitlistStatusCancelled,
			WaitlistStatusExpired, WaitlistStatusAutoCancelled},
	}

	for _, allowed := range validTransitions[ws] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states a RAC entry can never leave
func (rs RacStatus) IsTerminal() bool {
	return rs != RacStatusRac
}

// CanTransitionTo checks if the RAC status can transition to the target
func (rs RacStatus) CanTransitionTo(target RacStatus) bool {
	if rs != RacStatusRac {
		return false
	}
	switch target {
	case RacStatusConfirmed, RacStatusCancelled, RacStatusExpired, RacStatusAutoCancelled:
		return true
	}
	return false
}

// IsOpen returns true while the entry can still be served or cancelled
func (we *WaitlistEntry) IsOpen() bool {
	return we.Status == WaitlistStatusPending
}

// IsExpired returns true once the entry has passed its expiry time
func (we *WaitlistEntry) IsExpired(now time.Time) bool {
	return now.After(we.ExpiryTime)
}

// NormalizeJourneyDate truncates a timestamp to the journey date in UTC. All
// scope keys use this form so sequence scopes and queue lookups agree.
func NormalizeJourneyDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpiryLeadWindow is how long before departure a pending waitlist entry
// stops being served.
const ExpiryLeadWindow = 4 * time.Hour
