package database

import (
	"railbook/internal/bookings"
	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/trains"
	"railbook/internal/users"
	"railbook/internal/waitlist"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&trains.Train{},
		&trains.Coach{},
		&inventory.Seat{},
		&waitlist.WaitlistEntry{},
		&waitlist.RacEntry{},
		&waitlist.QueueSequence{},
		&bookings.Booking{},
		&notifications.OutboxRecord{},
		&notifications.NotificationLog{},
	)
}
