package notifications

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus tracks delivery state of a recorded event
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

// OutboxRecord buffers an allocation event until Kafka accepts it. The row
// commits inside the same transaction as the state change it describes, so a
// crash or broker outage loses nothing; the relay re-sends PENDING rows until
// they go through or exhaust attempts.
type OutboxRecord struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID      uuid.UUID    `json:"event_id" gorm:"type:uuid;not null;uniqueIndex"`
	EventType    EventType    `json:"event_type" gorm:"type:varchar(30);not null"`
	Topic        string       `json:"topic" gorm:"type:varchar(80);not null"`
	PartitionKey string       `json:"partition_key" gorm:"type:varchar(80);not null"`
	Payload      []byte       `json:"payload" gorm:"type:jsonb;not null"`
	Status       OutboxStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Attempts     int          `json:"attempts" gorm:"not null;default:0"`
	LastError    *string      `json:"last_error,omitempty"`
	SentAt       *time.Time   `json:"sent_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for OutboxRecord
func (OutboxRecord) TableName() string {
	return "event_outbox"
}

// NewOutboxRecord builds the PENDING outbox row for an event, assigning the
// event its ID and timestamp if unset. Callers insert the row inside the
// transaction that commits the state change the event describes.
func NewOutboxRecord(event *AllocationEvent) (*OutboxRecord, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := event.ToJSON()
	if err != nil {
		return nil, err
	}
	return &OutboxRecord{
		ID:           uuid.New(),
		EventID:      event.ID,
		EventType:    event.Type,
		Topic:        event.Topic(),
		PartitionKey: event.PartitionKey(),
		Payload:      payload,
		Status:       OutboxStatusPending,
	}, nil
}

// NotificationLog records a consumed allocation event, the audit trail of
// what passengers were told.
type NotificationLog struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex"`
	EventType  EventType `json:"event_type" gorm:"type:varchar(30);not null"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TrainID    uuid.UUID `json:"train_id" gorm:"type:uuid;not null"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	ConsumedAt time.Time `json:"consumed_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for NotificationLog
func (NotificationLog) TableName() string {
	return "notification_logs"
}
