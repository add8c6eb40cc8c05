package waitlist

import (
	"context"
	"fmt"
	"time"

	"railbook/internal/trains"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate re-checks join requests against their binding tags, so sweeps and
// internal callers that build requests in code get the same guarantees as the
// HTTP binding path.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// TrainService is the slice of the trains service the queue needs. Kept
// narrow so tests can fake it.
type TrainService interface {
	GetTrain(ctx context.Context, id uuid.UUID) (*trains.Train, error)
	GetCoach(ctx context.Context, id uuid.UUID) (*trains.Coach, error)
}

// Service interface defines the contract for queue business operations
type Service interface {
	// Core queue operations
	JoinQueue(ctx context.Context, userID uuid.UUID, req *JoinQueueRequest) (*QueueEntryResponse, error)
	CancelEntry(ctx context.Context, userID, entryID uuid.UUID, reason string) error
	GetQueuePosition(ctx context.Context, userID, entryID uuid.UUID) (*QueuePositionResponse, error)
	ListUserEntries(ctx context.Context, userID uuid.UUID) ([]QueueEntryResponse, error)
	GetRacStatus(ctx context.Context, userID, entryID uuid.UUID) (*RacEntryResponse, error)

	// Background job operations
	ProcessExpiredEntries(ctx context.Context) (int, error)
	ProcessDepartedRac(ctx context.Context) (int, error)
}

// service implements the Service interface
type service struct {
	repo         Repository
	trainService TrainService
	config       *ServiceConfig
}

// ServiceConfig contains configuration for the queue service
type ServiceConfig struct {
	ExpiryLeadWindow time.Duration
	ExpiryBatchSize  int
}

// DefaultServiceConfig returns default service configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		ExpiryLeadWindow: ExpiryLeadWindow,
		ExpiryBatchSize:  500,
	}
}

// NewService creates a new queue service
func NewService(repo Repository, trainService TrainService, config *ServiceConfig) Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	return &service{
		repo:         repo,
		trainService: trainService,
		config:       config,
	}
}

// JoinQueue places a user on the waitlist for a coach/date. The entry's
// expiry is fixed at creation relative to the train's departure; the priority
// score is computed once and never recomputed.
func (s *service) JoinQueue(ctx context.Context, userID uuid.UUID, req *JoinQueueRequest) (*QueueEntryResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid join request: %w", err)
	}
	if !req.QuotaType.IsValid() {
		return nil, fmt.Errorf("invalid quota type %q", req.QuotaType)
	}

	journeyDate, err := time.Parse("2006-01-02", req.JourneyDate)
	if err != nil {
		return nil, fmt.Errorf("invalid journey date %q: %w", req.JourneyDate, err)
	}
	journeyDate = NormalizeJourneyDate(journeyDate)

	train, err := s.trainService.GetTrain(ctx, req.TrainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get train: %w", err)
	}
	if !train.IsActive() {
		return nil, ErrTrainNotBookable
	}

	coach, err := s.trainService.GetCoach(ctx, req.CoachID)
	if err != nil {
		return nil, fmt.Errorf("failed to get coach: %w", err)
	}
	if coach.TrainID != train.ID {
		return nil, fmt.Errorf("coach %s does not belong to train %s", coach.ID, train.ID)
	}

	departure, err := train.DepartureAt(journeyDate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve departure: %w", err)
	}
	expiry := departure.Add(-s.config.ExpiryLeadWindow)
	if time.Now().After(expiry) {
		return nil, ErrTrainNotBookable
	}

	exists, err := s.repo.HasOpenEntry(ctx, userID, req.TrainID, req.CoachID, journeyDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entries: %w", err)
	}
	if exists {
		return nil, ErrAlreadyQueued
	}

	entry := &WaitlistEntry{
		UserID:             userID,
		TrainID:            req.TrainID,
		CoachID:            req.CoachID,
		JourneyDate:        journeyDate,
		QuotaType:          req.QuotaType,
		PassengerCount:     req.PassengerCount,
		PreferredSeatType:  req.PreferredSeatType,
		PreferredBerthType: req.PreferredBerthType,
		IsLadiesQuota:      req.IsLadiesQuota,
		IsSeniorCitizen:    req.IsSeniorCitizen,
		IsHandicapped:      req.IsHandicapped,
		PriorityScore:      ComputePriorityScore(req.QuotaType, req.IsLadiesQuota, req.IsSeniorCitizen, req.IsHandicapped),
		ExpiryTime:         expiry,
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return toQueueEntryResponse(entry), nil
}

// CancelEntry cancels the caller's own entry. PENDING entries just close;
// RAC entries also release the held seat.
func (s *service) CancelEntry(ctx context.Context, userID, entryID uuid.UUID, reason string) error {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.UserID != userID {
		return ErrNotOwner
	}
	if reason == "" {
		reason = "cancelled by user"
	}

	switch entry.Status {
	case WaitlistStatusPending:
		return s.repo.CancelWaitlistEntry(ctx, entry, reason)
	case WaitlistStatusRac:
		rac, err := s.repo.RacByWaitlistEntry(ctx, entryID)
		if err != nil {
			return err
		}
		return s.repo.CancelRacEntry(ctx, rac, reason)
	default:
		return ErrNotCancelable
	}
}

// GetQueuePosition reports the entry's live position, queue length and a
// confirmation-chance estimate based on the coach's capacity.
func (s *service) GetQueuePosition(ctx context.Context, userID, entryID uuid.UUID) (*QueuePositionResponse, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrNotOwner
	}

	position, queueLength, err := s.repo.QueuePosition(ctx, entry)
	if err != nil {
		return nil, err
	}

	coach, err := s.trainService.GetCoach(ctx, entry.CoachID)
	if err != nil {
		return nil, fmt.Errorf("failed to get coach: %w", err)
	}

	resp := &QueuePositionResponse{
		EntryID:        entry.ID,
		WaitlistNumber: entry.WaitlistNumber,
		Position:       position,
		QueueLength:    queueLength,
		Status:         entry.Status,
	}
	// Position 0 means the entry left the open queue (promoted, expired or
	// cancelled); a chance estimate would be meaningless.
	if position > 0 {
		resp.ConfirmationChance = EstimateConfirmationChance(position, coach.TotalSeats)
	}
	return resp, nil
}

// ListUserEntries lists the caller's waitlist history
func (s *service) ListUserEntries(ctx context.Context, userID uuid.UUID) ([]QueueEntryResponse, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]QueueEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *toQueueEntryResponse(&entries[i]))
	}
	return out, nil
}

// GetRacStatus returns the RAC hold created from the caller's waitlist entry
func (s *service) GetRacStatus(ctx context.Context, userID, entryID uuid.UUID) (*RacEntryResponse, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrNotOwner
	}
	rac, err := s.repo.RacByWaitlistEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return toRacEntryResponse(rac), nil
}

// ProcessExpiredEntries expires PENDING entries past their expiry time
func (s *service) ProcessExpiredEntries(ctx context.Context) (int, error) {
	return s.repo.ExpirePendingEntries(ctx, time.Now(), s.config.ExpiryBatchSize)
}

// ProcessDepartedRac auto-cancels RAC holds for departed journeys
func (s *service) ProcessDepartedRac(ctx context.Context) (int, error) {
	return s.repo.AutoCancelDepartedRac(ctx, time.Now(), s.config.ExpiryBatchSize)
}
