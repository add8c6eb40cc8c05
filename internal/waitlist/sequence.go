package waitlist

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceKind distinguishes the two independent counters per scope
type SequenceKind string

const (
	SequenceKindWaitlist SequenceKind = "WAITLIST"
	SequenceKindRac      SequenceKind = "RAC"
)

// QueueSequence is the persisted next-value counter for one
// (train, journey date, quota, kind) scope. Values only ever grow and are
// never reused, even after cancellations.
type QueueSequence struct {
	TrainID     uuid.UUID    `gorm:"type:uuid;primaryKey"`
	JourneyDate time.Time    `gorm:"type:date;primaryKey"`
	QuotaType   QuotaType    `gorm:"type:varchar(20);primaryKey"`
	Kind        SequenceKind `gorm:"type:varchar(10);primaryKey"`
	NextValue   int64        `gorm:"not null;default:0"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime"`
}

// TableName sets the table name for QueueSequence
func (QueueSequence) TableName() string {
	return "queue_sequences"
}

// Scope identifies one sequence-numbering domain
type Scope struct {
	TrainID     uuid.UUID
	JourneyDate time.Time
	QuotaType   QuotaType
}

// nextSequenceTx allocates the next number for a scope inside the caller's
// transaction. The single upsert-returning statement makes allocation atomic
// with the row insert that consumes it, so numbers stay strictly increasing
// and unique under concurrent requests.
func nextSequenceTx(tx *gorm.DB, kind SequenceKind, scope Scope) (int, error) {
	var next int64
	err := tx.Raw(`
		INSERT INTO queue_sequences (train_id, journey_date, quota_type, kind, next_value, updated_at)
		VALUES (?, ?, ?, ?, 1, NOW())
		ON CONFLICT (train_id, journey_date, quota_type, kind)
		DO UPDATE SET next_value = queue_sequences.next_value + 1, updated_at = NOW()
		RETURNING next_value`,
		scope.TrainID, NormalizeJourneyDate(scope.JourneyDate), scope.QuotaType, kind,
	).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s sequence: %w", kind, err)
	}
	if next <= 0 {
		return 0, ErrSequenceConflict
	}
	return int(next), nil
}
