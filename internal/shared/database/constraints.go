package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// One open queue entry per user per train/date/quota; closed entries don't count
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_open_entry_per_user
		ON waitlist_entries (user_id, train_id, journey_date, quota_type)
		WHERE status IN ('PENDING', 'RAC');
	`).Error
	if err != nil {
		return err
	}

	// A held seat can back at most one active RAC entry
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_seat_per_active_rac
		ON rac_entries (seat_id)
		WHERE status = 'RAC' AND seat_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	// Speed up the outbox relay scan over unsent events
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_outbox_pending
		ON event_outbox (created_at)
		WHERE status = 'PENDING';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
