package allocation

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"railbook/internal/notifications"
	"railbook/internal/shared/constants"
	"railbook/internal/waitlist"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Coordinator fans sweep work out over a worker pool. Units are routed to
// workers by hashing the coach/date key, so all passes for one unit land on
// the same worker and run serially; a Redis lock guards against another
// process sweeping the same unit. Within a unit the confirmation pass always
// runs before the promotion pass.
type Coordinator struct {
	confirmation *ConfirmationEngine
	promotion    *PromotionEngine
	trains       TrainStore
	redisClient  *redis.Client
	config       *CoordinatorConfig
}

// CoordinatorConfig contains configuration for the sweep coordinator
type CoordinatorConfig struct {
	Workers     int
	UnitLockTTL time.Duration
	LockPrefix  string
}

// DefaultCoordinatorConfig returns default coordinator configuration
func DefaultCoordinatorConfig() *CoordinatorConfig {
	return &CoordinatorConfig{
		Workers:     4,
		UnitLockTTL: 2 * time.Minute,
		LockPrefix:  constants.LOCK_PREFIX_SWEEP_UNIT,
	}
}

// NewCoordinator creates a sweep coordinator. A nil Redis client disables
// distributed unit locking; single-process deployments still serialize
// through worker routing.
func NewCoordinator(confirmation *ConfirmationEngine, promotion *PromotionEngine, trainStore TrainStore, redisClient *redis.Client, config *CoordinatorConfig) *Coordinator {
	if config == nil {
		config = DefaultCoordinatorConfig()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Coordinator{
		confirmation: confirmation,
		promotion:    promotion,
		trains:       trainStore,
		redisClient:  redisClient,
		config:       config,
	}
}

// SweepUnits runs both engine passes over the given units. Every event
// emitted by the run carries one correlation id, taken from the context or
// minted here, so a whole sweep can be traced as one action.
func (c *Coordinator) SweepUnits(ctx context.Context, units []Unit) SweepResult {
	start := time.Now()
	ctx = ensureCorrelationID(ctx)
	if len(units) == 0 {
		return SweepResult{Duration: time.Since(start)}
	}

	buckets := make([][]Unit, c.config.Workers)
	for _, unit := range units {
		idx := bucketFor(unit.Key(), c.config.Workers)
		buckets[idx] = append(buckets[idx], unit)
	}

	results := make([]SweepResult, c.config.Workers)
	var wg sync.WaitGroup
	for w := 0; w < c.config.Workers; w++ {
		if len(buckets[w]) == 0 {
			continue
		}
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for _, unit := range buckets[worker] {
				results[worker].Merge(c.sweepUnit(ctx, unit))
			}
		}(w)
	}
	wg.Wait()

	total := SweepResult{}
	for w := range results {
		total.Merge(results[w])
	}
	total.Duration = time.Since(start)
	return total
}

// sweepUnit runs confirmation then promotion for one unit under its lock
func (c *Coordinator) sweepUnit(ctx context.Context, unit Unit) SweepResult {
	token, acquired := c.acquireUnitLock(ctx, unit)
	if !acquired {
		return SweepResult{UnitsSkipped: 1}
	}
	defer c.releaseUnitLock(ctx, unit, token)

	result := c.confirmation.Run(ctx, unit)
	promoResult := c.promotion.Run(ctx, unit)

	// Both passes count the unit; report it once.
	promoResult.UnitsProcessed = 0
	result.Merge(promoResult)
	return result
}

// PromoteUnits runs only the promotion pass over the given units, each under
// its unit lock. Used by the manual promotion trigger; the scheduled sweeps
// always pair promotion with a confirmation pass.
func (c *Coordinator) PromoteUnits(ctx context.Context, units []Unit) SweepResult {
	start := time.Now()
	ctx = ensureCorrelationID(ctx)
	total := SweepResult{}
	for _, unit := range units {
		token, acquired := c.acquireUnitLock(ctx, unit)
		if !acquired {
			total.UnitsSkipped++
			continue
		}
		result := c.promotion.Run(ctx, unit)
		c.releaseUnitLock(ctx, unit, token)
		total.Merge(result)
	}
	total.Duration = time.Since(start)
	return total
}

// UnitsForTrain enumerates the coach/date units of one train
func (c *Coordinator) UnitsForTrain(ctx context.Context, trainID uuid.UUID, dates []time.Time) ([]Unit, error) {
	coaches, err := c.trains.CoachesByTrain(ctx, trainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaches for train %s: %w", trainID, err)
	}

	units := make([]Unit, 0, len(coaches)*len(dates))
	for i := range coaches {
		for _, date := range dates {
			units = append(units, Unit{
				TrainID:     trainID,
				CoachID:     coaches[i].ID,
				JourneyDate: waitlist.NormalizeJourneyDate(date),
				TotalSeats:  coaches[i].TotalSeats,
			})
		}
	}
	return units, nil
}

// UnitForCoach builds the single unit for a coach/date pair
func (c *Coordinator) UnitForCoach(ctx context.Context, coachID uuid.UUID, date time.Time) (Unit, error) {
	coach, err := c.trains.GetCoach(ctx, coachID)
	if err != nil {
		return Unit{}, fmt.Errorf("failed to get coach %s: %w", coachID, err)
	}
	return Unit{
		TrainID:     coach.TrainID,
		CoachID:     coach.ID,
		JourneyDate: waitlist.NormalizeJourneyDate(date),
		TotalSeats:  coach.TotalSeats,
	}, nil
}

func (c *Coordinator) acquireUnitLock(ctx context.Context, unit Unit) (string, bool) {
	if c.redisClient == nil {
		return "", true
	}
	token := uuid.NewString()
	ok, err := c.redisClient.SetNX(ctx, c.config.LockPrefix+unit.Key(), token, c.config.UnitLockTTL).Result()
	if err != nil {
		// Lock service down: proceed, the CAS seat transitions still prevent
		// double allocation.
		log.Printf("Unit lock unavailable for %s, proceeding without lock: %v", unit.Key(), err)
		return "", true
	}
	return token, ok
}

func (c *Coordinator) releaseUnitLock(ctx context.Context, unit Unit, token string) {
	if c.redisClient == nil || token == "" {
		return
	}
	key := c.config.LockPrefix + unit.Key()
	// Only release a lock we still own.
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	if err := c.redisClient.Eval(ctx, script, []string{key}, token).Err(); err != nil && err != redis.Nil {
		log.Printf("Failed to release unit lock %s: %v", key, err)
	}
}

func ensureCorrelationID(ctx context.Context) context.Context {
	if notifications.CorrelationIDFrom(ctx) != uuid.Nil {
		return ctx
	}
	return notifications.WithCorrelationID(ctx, uuid.New())
}

func bucketFor(key string, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(workers))
}
