package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a queue entry
type EventType string

const (
	EventWaitlistPromoted  EventType = "WAITLIST_PROMOTED"
	EventRacConfirmed      EventType = "RAC_CONFIRMED"
	EventWaitlistConfirmed EventType = "WAITLIST_CONFIRMED"
)

// Kafka topics, one per event type
const (
	TopicWaitlistPromoted  = "railbook.waitlist.promoted"
	TopicRacConfirmed      = "railbook.rac.confirmed"
	TopicWaitlistConfirmed = "railbook.waitlist.confirmed"
)

// AllocationEvent is the payload published when a sweep moves a queue entry.
// Events are emitted after the state change commits; consumers must tolerate
// duplicates.
type AllocationEvent struct {
	ID              uuid.UUID  `json:"id"`
	CorrelationID   uuid.UUID  `json:"correlation_id"`
	Type            EventType  `json:"type"`
	UserID          uuid.UUID  `json:"user_id"`
	TrainID         uuid.UUID  `json:"train_id"`
	CoachID         uuid.UUID  `json:"coach_id"`
	SeatID          *uuid.UUID `json:"seat_id,omitempty"`
	WaitlistEntryID uuid.UUID  `json:"waitlist_entry_id"`
	RacEntryID      *uuid.UUID `json:"rac_entry_id,omitempty"`
	BookingID       *uuid.UUID `json:"booking_id,omitempty"`
	PNR             string     `json:"pnr,omitempty"`
	JourneyDate     string     `json:"journey_date"`
	QuotaType       string     `json:"quota_type"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

type correlationKey struct{}

// WithCorrelationID tags the context with the correlation id stamped on every
// event emitted under it. Sweeps set one id per run; API-triggered sweeps
// carry the caller's request id so an operator can trace a trigger through to
// its events.
func WithCorrelationID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom returns the context's correlation id, or uuid.Nil when
// none was set.
func CorrelationIDFrom(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(correlationKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// Topic maps the event type to its Kafka topic
func (e *AllocationEvent) Topic() string {
	switch e.Type {
	case EventWaitlistPromoted:
		return TopicWaitlistPromoted
	case EventRacConfirmed:
		return TopicRacConfirmed
	case EventWaitlistConfirmed:
		return TopicWaitlistConfirmed
	default:
		return TopicWaitlistPromoted
	}
}

// PartitionKey routes all events for one coach/date to the same partition so
// consumers see them in order.
func (e *AllocationEvent) PartitionKey() string {
	return fmt.Sprintf("%s:%s", e.CoachID, e.JourneyDate)
}

// ToJSON serializes the event payload
func (e *AllocationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AllocationEventFromJSON deserializes an event payload
func AllocationEventFromJSON(data []byte) (*AllocationEvent, error) {
	var event AllocationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allocation event: %w", err)
	}
	return &event, nil
}
