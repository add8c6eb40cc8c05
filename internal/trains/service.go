package trains

import (
	"context"
	"fmt"
	"time"

	"railbook/internal/shared/constants"
	"railbook/pkg/cache"

	"github.com/google/uuid"
)

// Service interface defines the contract for train business operations
type Service interface {
	CreateTrain(ctx context.Context, req *CreateTrainRequest) (*Train, error)
	GetTrain(ctx context.Context, id uuid.UUID) (*Train, error)
	ListTrains(ctx context.Context) ([]Train, error)
	ActiveTrains(ctx context.Context) ([]Train, error)
	TrainsDepartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]Train, error)

	AddCoach(ctx context.Context, trainID uuid.UUID, req *CreateCoachRequest) (*Coach, error)
	GetCoach(ctx context.Context, id uuid.UUID) (*Coach, error)
	CoachesByTrain(ctx context.Context, trainID uuid.UUID) ([]Coach, error)
}

// CreateTrainRequest represents a request to register a train
type CreateTrainRequest struct {
	TrainNumber   string `json:"train_number" binding:"required"`
	Name          string `json:"name" binding:"required"`
	SourceStation string `json:"source_station" binding:"required"`
	DestStation   string `json:"dest_station" binding:"required"`
	DepartureTime string `json:"departure_time" binding:"required,len=5"`
}

// CreateCoachRequest represents a request to add a coach to a train
type CreateCoachRequest struct {
	CoachNumber string `json:"coach_number" binding:"required"`
	CoachType   string `json:"coach_type" binding:"required"`
	TotalSeats  int    `json:"total_seats" binding:"required,min=1,max=120"`
}

// service implements the Service interface
type service struct {
	repo  Repository
	cache cache.Service
}

const (
	coachCacheTTL = constants.TTL_COACH_DETAIL
)

// NewService creates a new train service
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
	}
}

// CreateTrain registers a new train
func (s *service) CreateTrain(ctx context.Context, req *CreateTrainRequest) (*Train, error) {
	if _, err := time.Parse("15:04", req.DepartureTime); err != nil {
		return nil, fmt.Errorf("departure_time must be HH:MM: %w", err)
	}

	train := &Train{
		TrainNumber:   req.TrainNumber,
		Name:          req.Name,
		SourceStation: req.SourceStation,
		DestStation:   req.DestStation,
		DepartureTime: req.DepartureTime,
		Status:        TrainStatusActive,
		IsRunning:     true,
	}

	if err := s.repo.CreateTrain(ctx, train); err != nil {
		return nil, err
	}
	return train, nil
}

// GetTrain gets a train by ID
func (s *service) GetTrain(ctx context.Context, id uuid.UUID) (*Train, error) {
	return s.repo.GetTrain(ctx, id)
}

// ListTrains lists all trains
func (s *service) ListTrains(ctx context.Context) ([]Train, error) {
	return s.repo.ListTrains(ctx)
}

// ActiveTrains lists trains eligible for allocation sweeps
func (s *service) ActiveTrains(ctx context.Context) ([]Train, error) {
	return s.repo.ActiveTrains(ctx)
}

// TrainsDepartingWithin returns active trains whose next departure falls
// inside (now, now+window]. Used by the chart-preparation pass.
func (s *service) TrainsDepartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]Train, error) {
	active, err := s.repo.ActiveTrains(ctx)
	if err != nil {
		return nil, err
	}

	var departing []Train
	for _, train := range active {
		departure, err := train.DepartureAt(now)
		if err != nil {
			continue
		}
		if departure.After(now) && !departure.After(now.Add(window)) {
			departing = append(departing, train)
		}
	}
	return departing, nil
}

// AddCoach adds a coach to a train
func (s *service) AddCoach(ctx context.Context, trainID uuid.UUID, req *CreateCoachRequest) (*Coach, error) {
	coachType := CoachType(req.CoachType)
	if !coachType.IsValid() {
		return nil, fmt.Errorf("invalid coach type: %s", req.CoachType)
	}

	if _, err := s.repo.GetTrain(ctx, trainID); err != nil {
		return nil, err
	}

	coach := &Coach{
		TrainID:     trainID,
		CoachNumber: req.CoachNumber,
		CoachType:   coachType,
		TotalSeats:  req.TotalSeats,
	}

	if err := s.repo.CreateCoach(ctx, coach); err != nil {
		return nil, err
	}

	// Coach layouts change rarely; drop the cached copy rather than rewrite it.
	if s.cache != nil {
		_ = s.cache.Delete(ctx, coachListCacheKey(trainID))
	}
	return coach, nil
}

// GetCoach gets a coach by ID, via the cache-aside helper
func (s *service) GetCoach(ctx context.Context, id uuid.UUID) (*Coach, error) {
	if s.cache == nil {
		return s.repo.GetCoach(ctx, id)
	}

	var coach Coach
	err := s.cache.GetOrSet(ctx, coachCacheKey(id), coachCacheTTL, func() (interface{}, error) {
		return s.repo.GetCoach(ctx, id)
	}, &coach)
	if err != nil {
		return nil, err
	}
	return &coach, nil
}

// CoachesByTrain lists the coaches of a train
func (s *service) CoachesByTrain(ctx context.Context, trainID uuid.UUID) ([]Coach, error) {
	if s.cache == nil {
		return s.repo.CoachesByTrain(ctx, trainID)
	}

	var coaches []Coach
	err := s.cache.GetOrSet(ctx, coachListCacheKey(trainID), coachCacheTTL, func() (interface{}, error) {
		return s.repo.CoachesByTrain(ctx, trainID)
	}, &coaches)
	if err != nil {
		return nil, err
	}
	return coaches, nil
}

func coachCacheKey(id uuid.UUID) string {
	return constants.BuildCoachDetailKey(id.String())
}

func coachListCacheKey(trainID uuid.UUID) string {
	return constants.BuildCoachesByTrainKey(trainID.String())
}
