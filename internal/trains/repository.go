package trains

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a train or coach does not exist
var ErrNotFound = errors.New("train or coach not found")

// Repository interface defines the contract for train data operations
type Repository interface {
	CreateTrain(ctx context.Context, train *Train) error
	UpdateTrain(ctx context.Context, train *Train) error
	GetTrain(ctx context.Context, id uuid.UUID) (*Train, error)
	GetTrainByNumber(ctx context.Context, number string) (*Train, error)
	ListTrains(ctx context.Context) ([]Train, error)
	ActiveTrains(ctx context.Context) ([]Train, error)

	CreateCoach(ctx context.Context, coach *Coach) error
	GetCoach(ctx context.Context, id uuid.UUID) (*Coach, error)
	CoachesByTrain(ctx context.Context, trainID uuid.UUID) ([]Coach, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new train repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateTrain inserts a new train
func (r *repository) CreateTrain(ctx context.Context, train *Train) error {
	train.ID = uuid.New()
	train.CreatedAt = time.Now()
	train.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(train).Error; err != nil {
		return fmt.Errorf("failed to create train: %w", err)
	}
	return nil
}

// UpdateTrain updates an existing train
func (r *repository) UpdateTrain(ctx context.Context, train *Train) error {
	train.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).
		Model(train).
		Where("id = ?", train.ID).
		Updates(train).Error
	if err != nil {
		return fmt.Errorf("failed to update train: %w", err)
	}
	return nil
}

// GetTrain gets a train by ID
func (r *repository) GetTrain(ctx context.Context, id uuid.UUID) (*Train, error) {
	var train Train
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&train).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get train: %w", err)
	}
	return &train, nil
}

// GetTrainByNumber gets a train by its public train number
func (r *repository) GetTrainByNumber(ctx context.Context, number string) (*Train, error) {
	var train Train
	err := r.db.WithContext(ctx).Where("train_number = ?", number).First(&train).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get train by number: %w", err)
	}
	return &train, nil
}

// ListTrains lists all trains
func (r *repository) ListTrains(ctx context.Context) ([]Train, error) {
	var trains []Train
	err := r.db.WithContext(ctx).Order("train_number ASC").Find(&trains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trains: %w", err)
	}
	return trains, nil
}

// ActiveTrains lists trains that are running and in active status
func (r *repository) ActiveTrains(ctx context.Context) ([]Train, error) {
	var trains []Train
	err := r.db.WithContext(ctx).
		Where("is_running = ? AND status = ?", true, TrainStatusActive).
		Order("train_number ASC").
		Find(&trains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active trains: %w", err)
	}
	return trains, nil
}

// CreateCoach inserts a new coach
func (r *repository) CreateCoach(ctx context.Context, coach *Coach) error {
	coach.ID = uuid.New()
	coach.CreatedAt = time.Now()
	coach.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(coach).Error; err != nil {
		return fmt.Errorf("failed to create coach: %w", err)
	}
	return nil
}

// GetCoach gets a coach by ID
func (r *repository) GetCoach(ctx context.Context, id uuid.UUID) (*Coach, error) {
	var coach Coach
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&coach).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coach: %w", err)
	}
	return &coach, nil
}

// CoachesByTrain lists the coaches of a train
func (r *repository) CoachesByTrain(ctx context.Context, trainID uuid.UUID) ([]Coach, error) {
	var coaches []Coach
	err := r.db.WithContext(ctx).
		Where("train_id = ?", trainID).
		Order("coach_number ASC").
		Find(&coaches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list coaches: %w", err)
	}
	return coaches, nil
}
