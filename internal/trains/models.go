package trains

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TrainStatus represents the operational status of a train
type TrainStatus string

const (
	TrainStatusActive      TrainStatus = "ACTIVE"
	TrainStatusInactive    TrainStatus = "INACTIVE"
	TrainStatusMaintenance TrainStatus = "MAINTENANCE"
)

// CoachType represents the class of a coach
type CoachType string

const (
	CoachTypeSleeper  CoachType = "SLEEPER"
	CoachTypeAC3      CoachType = "AC_3_TIER"
	CoachTypeAC2      CoachType = "AC_2_TIER"
	CoachTypeAC1      CoachType = "AC_1_TIER"
	CoachTypeChairCar CoachType = "CHAIR_CAR"
	CoachTypeGeneral  CoachType = "GENERAL"
)

// Train represents a scheduled train service
type Train struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TrainNumber   string      `json:"train_number" gorm:"uniqueIndex;not null"`
	Name          string      `json:"name" gorm:"not null"`
	SourceStation string      `json:"source_station" gorm:"not null"`
	DestStation   string      `json:"dest_station" gorm:"not null"`
	DepartureTime string      `json:"departure_time" gorm:"type:varchar(5);not null"` // "15:04", local to source station
	Status        TrainStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	IsRunning     bool        `json:"is_running" gorm:"default:true"`
	CreatedAt     time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// Coach represents a single coach of a train
type Coach struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TrainID     uuid.UUID `json:"train_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_train_coach"`
	CoachNumber string    `json:"coach_number" gorm:"not null;uniqueIndex:idx_train_coach"`
	CoachType   CoachType `json:"coach_type" gorm:"type:varchar(20);not null"`
	TotalSeats  int       `json:"total_seats" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Train
func (Train) TableName() string {
	return "trains"
}

// TableName sets the table name for Coach
func (Coach) TableName() string {
	return "coaches"
}

// IsActive returns true if the train is running and in active status
func (t *Train) IsActive() bool {
	return t.IsRunning && t.Status == TrainStatusActive
}

// DepartureAt resolves the train's departure time onto a journey date.
func (t *Train) DepartureAt(journeyDate time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", t.DepartureTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid departure time %q: %w", t.DepartureTime, err)
	}
	return time.Date(journeyDate.Year(), journeyDate.Month(), journeyDate.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, journeyDate.Location()), nil
}

// IsValid checks if the coach type is valid
func (ct CoachType) IsValid() bool {
	switch ct {
	case CoachTypeSleeper, CoachTypeAC3, CoachTypeAC2, CoachTypeAC1, CoachTypeChairCar, CoachTypeGeneral:
		return true
	}
	return false
}
