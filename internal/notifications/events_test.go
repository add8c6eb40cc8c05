package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTopicRouting(t *testing.T) {
	tests := []struct {
		eventType EventType
		topic     string
	}{
		{EventWaitlistPromoted, TopicWaitlistPromoted},
		{EventRacConfirmed, TopicRacConfirmed},
		{EventWaitlistConfirmed, TopicWaitlistConfirmed},
		{EventType("UNKNOWN"), TopicWaitlistPromoted},
	}

	for _, tt := range tests {
		event := &AllocationEvent{Type: tt.eventType}
		assert.Equal(t, tt.topic, event.Topic())
	}
}

func TestPartitionKeyGroupsByCoachAndDate(t *testing.T) {
	coachID := uuid.New()
	a := &AllocationEvent{Type: EventRacConfirmed, CoachID: coachID, JourneyDate: "2026-09-05"}
	b := &AllocationEvent{Type: EventWaitlistPromoted, CoachID: coachID, JourneyDate: "2026-09-05"}

	assert.Equal(t, a.PartitionKey(), b.PartitionKey())
	assert.Equal(t, fmt.Sprintf("%s:2026-09-05", coachID), a.PartitionKey())

	other := &AllocationEvent{Type: EventRacConfirmed, CoachID: coachID, JourneyDate: "2026-09-06"}
	assert.NotEqual(t, a.PartitionKey(), other.PartitionKey())
}

func TestEventJSONRoundTrip(t *testing.T) {
	seatID := uuid.New()
	bookingID := uuid.New()
	event := &AllocationEvent{
		ID:              uuid.New(),
		CorrelationID:   uuid.New(),
		Type:            EventRacConfirmed,
		UserID:          uuid.New(),
		TrainID:         uuid.New(),
		CoachID:         uuid.New(),
		SeatID:          &seatID,
		WaitlistEntryID: uuid.New(),
		BookingID:       &bookingID,
		PNR:             "PNR042917",
		JourneyDate:     "2026-09-05",
		QuotaType:       "GENERAL",
		OccurredAt:      time.Now().UTC().Truncate(time.Second),
	}

	data, err := event.ToJSON()
	require.NoError(t, err)

	decoded, err := AllocationEventFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.PNR, decoded.PNR)
	require.NotNil(t, decoded.SeatID)
	assert.Equal(t, seatID, *decoded.SeatID)
	assert.Nil(t, decoded.RacEntryID)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestEventFromJSONRejectsGarbage(t *testing.T) {
	_, err := AllocationEventFromJSON([]byte("not json"))
	require.Error(t, err)
}

func TestCorrelationIDContextRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithCorrelationID(context.Background(), id)

	assert.Equal(t, id, CorrelationIDFrom(ctx))
	assert.Equal(t, uuid.Nil, CorrelationIDFrom(context.Background()))
}

func TestNewOutboxRecordCapturesEventIdentity(t *testing.T) {
	seatID := uuid.New()
	event := &AllocationEvent{
		Type:          EventWaitlistPromoted,
		CorrelationID: uuid.New(),
		UserID:        uuid.New(),
		CoachID:       uuid.New(),
		SeatID:        &seatID,
		JourneyDate:   "2026-09-05",
	}

	record, err := NewOutboxRecord(event)
	require.NoError(t, err)

	// Missing identity fields are filled before the payload is frozen.
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.OccurredAt.IsZero())

	assert.Equal(t, event.ID, record.EventID)
	assert.Equal(t, EventWaitlistPromoted, record.EventType)
	assert.Equal(t, TopicWaitlistPromoted, record.Topic)
	assert.Equal(t, event.PartitionKey(), record.PartitionKey)
	assert.Equal(t, OutboxStatusPending, record.Status)

	decoded, err := AllocationEventFromJSON(record.Payload)
	require.NoError(t, err)
	assert.Equal(t, event.CorrelationID, decoded.CorrelationID)
}
