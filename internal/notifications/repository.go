package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface defines the contract for outbox and delivery-log data.
// Outbox rows are inserted by the confirming transactions via CreateOutboxTx;
// this interface covers delivery bookkeeping after commit.
type Repository interface {
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, sendErr error, maxAttempts int) error
	PendingRecords(ctx context.Context, olderThan time.Time, limit int) ([]OutboxRecord, error)

	RecordDelivery(ctx context.Context, logEntry *NotificationLog) error
	ListUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]NotificationLog, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new notifications repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateOutboxTx inserts a pending outbox row inside the caller's transaction
// so the event commits or rolls back together with the state change it
// describes.
func CreateOutboxTx(tx *gorm.DB, record *OutboxRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Status = OutboxStatusPending
	if err := tx.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create outbox record: %w", err)
	}
	return nil
}

// MarkSent marks an outbox row as delivered
func (r *repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&OutboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     OutboxStatusSent,
			"sent_at":    now,
			"updated_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox record sent: %w", err)
	}
	return nil
}

// MarkAttemptFailed records a failed delivery attempt. The row stays PENDING
// until attempts reach maxAttempts, then flips to FAILED and the relay stops
// retrying it.
func (r *repository) MarkAttemptFailed(ctx context.Context, id uuid.UUID, sendErr error, maxAttempts int) error {
	msg := sendErr.Error()
	err := r.db.WithContext(ctx).
		Model(&OutboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
			"status": gorm.Expr(
				"CASE WHEN attempts + 1 >= ? THEN ? ELSE status END",
				maxAttempts, string(OutboxStatusFailed)),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record outbox attempt: %w", err)
	}
	return nil
}

// PendingRecords fetches undelivered rows created before olderThan, oldest
// first, so the relay replays in rough publish order.
func (r *repository) PendingRecords(ctx context.Context, olderThan time.Time, limit int) ([]OutboxRecord, error) {
	var records []OutboxRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", OutboxStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox records: %w", err)
	}
	return records, nil
}

// RecordDelivery writes a consumed event to the delivery log. Duplicate
// event IDs are ignored so redelivered Kafka messages stay idempotent.
func (r *repository) RecordDelivery(ctx context.Context, logEntry *NotificationLog) error {
	if logEntry.ID == uuid.Nil {
		logEntry.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(logEntry).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// ListUserNotifications lists a user's delivery log, newest first
func (r *repository) ListUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]NotificationLog, error) {
	var logs []NotificationLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("consumed_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return logs, nil
}
