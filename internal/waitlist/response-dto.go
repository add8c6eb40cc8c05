package waitlist

import (
	"time"

	"github.com/google/uuid"
)

type QueueEntryResponse struct {
	ID             uuid.UUID      `json:"id"`
	TrainID        uuid.UUID      `json:"train_id"`
	CoachID        uuid.UUID      `json:"coach_id"`
	JourneyDate    string         `json:"journey_date"`
	WaitlistNumber int            `json:"waitlist_number"`
	Status         WaitlistStatus `json:"status"`
	QuotaType      QuotaType      `json:"quota_type"`
	PassengerCount int            `json:"passenger_count"`
	PriorityScore  int            `json:"priority_score"`
	ExpiryTime     time.Time      `json:"expiry_time"`
	CreatedAt      time.Time      `json:"created_at"`
}

type QueuePositionResponse struct {
	EntryID            uuid.UUID          `json:"entry_id"`
	WaitlistNumber     int                `json:"waitlist_number"`
	Position           int                `json:"position"`
	QueueLength        int                `json:"queue_length"`
	Status             WaitlistStatus     `json:"status"`
	ConfirmationChance ConfirmationChance `json:"confirmation_chance"`
}

type RacEntryResponse struct {
	ID          uuid.UUID  `json:"id"`
	TrainID     uuid.UUID  `json:"train_id"`
	CoachID     uuid.UUID  `json:"coach_id"`
	SeatID      *uuid.UUID `json:"seat_id,omitempty"`
	JourneyDate string     `json:"journey_date"`
	RacNumber   int        `json:"rac_number"`
	Status      RacStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toQueueEntryResponse(e *WaitlistEntry) *QueueEntryResponse {
	return &QueueEntryResponse{
		ID:             e.ID,
		TrainID:        e.TrainID,
		CoachID:        e.CoachID,
		JourneyDate:    e.JourneyDate.Format("2006-01-02"),
		WaitlistNumber: e.WaitlistNumber,
		Status:         e.Status,
		QuotaType:      e.QuotaType,
		PassengerCount: e.PassengerCount,
		PriorityScore:  e.PriorityScore,
		ExpiryTime:     e.ExpiryTime,
		CreatedAt:      e.CreatedAt,
	}
}

func toRacEntryResponse(e *RacEntry) *RacEntryResponse {
	return &RacEntryResponse{
		ID:          e.ID,
		TrainID:     e.TrainID,
		CoachID:     e.CoachID,
		SeatID:      e.SeatID,
		JourneyDate: e.JourneyDate.Format("2006-01-02"),
		RacNumber:   e.RacNumber,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
	}
}
