package allocation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler drives the sweep cadence: a fixed interval across all active
// trains for the upcoming journey dates, a denser chart-preparation pass for
// trains close to departure, and manual triggers for operations.
type Scheduler struct {
	coordinator *Coordinator
	trains      TrainStore
	config      *SchedulerConfig
	done        chan struct{}

	mu        sync.Mutex
	lastRun   time.Time
	lastSweep SweepResult
	running   bool
}

// SchedulerConfig contains configuration for the sweep scheduler
type SchedulerConfig struct {
	SweepInterval     time.Duration
	ChartPrepInterval time.Duration
	ChartPrepWindow   time.Duration
	HorizonDays       int
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		SweepInterval:     30 * time.Minute,
		ChartPrepInterval: 4 * time.Hour,
		ChartPrepWindow:   6 * time.Hour,
		HorizonDays:       7,
	}
}

// SchedulerStatus is a point-in-time snapshot for the admin endpoint
type SchedulerStatus struct {
	Running   bool        `json:"running"`
	LastRun   *time.Time  `json:"last_run,omitempty"`
	LastSweep SweepResult `json:"last_sweep"`
}

// NewScheduler creates a sweep scheduler
func NewScheduler(coordinator *Coordinator, trainStore TrainStore, config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	return &Scheduler{
		coordinator: coordinator,
		trains:      trainStore,
		config:      config,
		done:        make(chan struct{}),
	}
}

// Start launches the periodic sweep loops
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("Starting allocation scheduler: sweep every %v, chart prep every %v",
		s.config.SweepInterval, s.config.ChartPrepInterval)
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	go s.runLoop(ctx, s.config.SweepInterval, s.fullSweep)
	go s.runLoop(ctx, s.config.ChartPrepInterval, s.chartPrepSweep)
}

// Stop stops the periodic loops
func (s *Scheduler) Stop() {
	close(s.done)
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	log.Println("Allocation scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, interval time.Duration, pass func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pass(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fullSweep covers every active train for the next HorizonDays journey dates
func (s *Scheduler) fullSweep(ctx context.Context) {
	trainList, err := s.trains.ActiveTrains(ctx)
	if err != nil {
		log.Printf("Scheduled sweep failed to list trains: %v", err)
		return
	}

	dates := s.horizonDates(time.Now())
	var units []Unit
	for i := range trainList {
		trainUnits, err := s.coordinator.UnitsForTrain(ctx, trainList[i].ID, dates)
		if err != nil {
			log.Printf("Scheduled sweep failed to enumerate units for train %s: %v", trainList[i].ID, err)
			continue
		}
		units = append(units, trainUnits...)
	}

	result := s.coordinator.SweepUnits(ctx, units)
	s.record(result)
	log.Printf("Scheduled sweep done: %d units, %d confirmed, %d promoted, %d skipped, %d failures in %v",
		result.UnitsProcessed, result.Confirmed, result.Promoted, result.UnitsSkipped, result.Failures, result.Duration)
}

// chartPrepSweep covers only trains departing within the chart-prep window,
// for today's journey date.
func (s *Scheduler) chartPrepSweep(ctx context.Context) {
	now := time.Now()
	departing, err := s.trains.TrainsDepartingWithin(ctx, now, s.config.ChartPrepWindow)
	if err != nil {
		log.Printf("Chart prep sweep failed to list departing trains: %v", err)
		return
	}
	if len(departing) == 0 {
		return
	}

	dates := []time.Time{now}
	var units []Unit
	for i := range departing {
		trainUnits, err := s.coordinator.UnitsForTrain(ctx, departing[i].ID, dates)
		if err != nil {
			log.Printf("Chart prep sweep failed to enumerate units for train %s: %v", departing[i].ID, err)
			continue
		}
		units = append(units, trainUnits...)
	}

	result := s.coordinator.SweepUnits(ctx, units)
	s.record(result)
	log.Printf("Chart prep sweep done: %d trains, %d confirmed, %d promoted in %v",
		len(departing), result.Confirmed, result.Promoted, result.Duration)
}

// TriggerTrainSweep runs an immediate sweep for one train across the horizon
func (s *Scheduler) TriggerTrainSweep(ctx context.Context, trainID uuid.UUID) (SweepResult, error) {
	if _, err := s.trains.GetTrain(ctx, trainID); err != nil {
		return SweepResult{}, err
	}
	units, err := s.coordinator.UnitsForTrain(ctx, trainID, s.horizonDates(time.Now()))
	if err != nil {
		return SweepResult{}, err
	}
	result := s.coordinator.SweepUnits(ctx, units)
	s.record(result)
	return result, nil
}

// TriggerTrainPromotion runs only the promotion pass for one train/date,
// moving eligible waitlist entries into RAC without booking anything.
func (s *Scheduler) TriggerTrainPromotion(ctx context.Context, trainID uuid.UUID, date time.Time) (SweepResult, error) {
	if _, err := s.trains.GetTrain(ctx, trainID); err != nil {
		return SweepResult{}, err
	}
	units, err := s.coordinator.UnitsForTrain(ctx, trainID, []time.Time{date})
	if err != nil {
		return SweepResult{}, err
	}
	result := s.coordinator.PromoteUnits(ctx, units)
	s.record(result)
	return result, nil
}

// TriggerUnitSweep runs an immediate sweep for one coach/date pair
func (s *Scheduler) TriggerUnitSweep(ctx context.Context, coachID uuid.UUID, date time.Time) (SweepResult, error) {
	unit, err := s.coordinator.UnitForCoach(ctx, coachID, date)
	if err != nil {
		return SweepResult{}, err
	}
	result := s.coordinator.SweepUnits(ctx, []Unit{unit})
	s.record(result)
	return result, nil
}

// Status returns the scheduler's last-run snapshot
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := SchedulerStatus{Running: s.running, LastSweep: s.lastSweep}
	if !s.lastRun.IsZero() {
		lastRun := s.lastRun
		status.LastRun = &lastRun
	}
	return status
}

func (s *Scheduler) record(result SweepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = time.Now()
	s.lastSweep = result
}

func (s *Scheduler) horizonDates(now time.Time) []time.Time {
	dates := make([]time.Time, 0, s.config.HorizonDays)
	for d := 0; d < s.config.HorizonDays; d++ {
		dates = append(dates, now.AddDate(0, 0, d))
	}
	return dates
}
