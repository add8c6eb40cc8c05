package waitlist

import "github.com/google/uuid"

type JoinQueueRequest struct {
	TrainID            uuid.UUID `json:"train_id" binding:"required"`
	CoachID            uuid.UUID `json:"coach_id" binding:"required"`
	JourneyDate        string    `json:"journey_date" binding:"required"` // YYYY-MM-DD
	QuotaType          QuotaType `json:"quota_type" binding:"required"`
	PassengerCount     int       `json:"passenger_count" binding:"required,min=1,max=6"`
	PreferredSeatType  *string   `json:"preferred_seat_type,omitempty"`
	PreferredBerthType *string   `json:"preferred_berth_type,omitempty"`
	IsLadiesQuota      bool      `json:"is_ladies_quota"`
	IsSeniorCitizen    bool      `json:"is_senior_citizen"`
	IsHandicapped      bool      `json:"is_handicapped"`
}

type CancelEntryRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}
