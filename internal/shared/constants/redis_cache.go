package constants

import (
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis cache keys and TTL values for the RailBook application
// Pattern: railbook:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	// Static data: train timetables and coach layouts change rarely
	TTL_TRAIN_DETAIL = 6 * time.Hour
	TTL_TRAIN_LIST   = 1 * time.Hour
	TTL_COACH_DETAIL = 10 * time.Minute
	TTL_COACH_LIST   = 10 * time.Minute

	// Dynamic data: queue positions move on every sweep
	TTL_QUEUE_POSITION    = 1 * time.Minute
	TTL_SEAT_AVAILABILITY = 30 * time.Second
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "railbook"
)

// ================== TRAINS MODULE ==================

const (
	CACHE_KEY_TRAIN_DETAIL    = CACHE_PREFIX + ":trains:detail:uuid:"  // + train-id
	CACHE_KEY_TRAIN_LIST      = CACHE_PREFIX + ":trains:list"          //
	CACHE_KEY_COACH_DETAIL    = CACHE_PREFIX + ":coach:"               // + coach-id
	CACHE_KEY_COACHES_BY_TRAIN = CACHE_PREFIX + ":coaches:train:"      // + train-id
)

// ================== INVENTORY MODULE ==================

const (
	CACHE_KEY_SEATS_AVAILABLE = CACHE_PREFIX + ":seats:available:coach:" // + coach-id:date:YYYY-MM-DD
)

// ================== WAITLIST MODULE ==================

const (
	CACHE_KEY_QUEUE_POSITION = CACHE_PREFIX + ":waitlist:position:entry:" // + entry-id
)

// ================== ALLOCATION LOCKS ==================

// Sweep unit locks are not cache entries; they guard one coach/date unit
// against concurrent sweeps across instances.
const (
	LOCK_PREFIX_SWEEP_UNIT = CACHE_PREFIX + ":sweep:unit:" // + coach-id:YYYY-MM-DD
)

// ================== HELPER FUNCTIONS ==================

func BuildCoachDetailKey(coachID string) string {
	return CACHE_KEY_COACH_DETAIL + coachID
}

func BuildCoachesByTrainKey(trainID string) string {
	return CACHE_KEY_COACHES_BY_TRAIN + trainID
}

func BuildSeatsAvailableKey(coachID, journeyDate string) string {
	return CACHE_KEY_SEATS_AVAILABLE + coachID + ":date:" + journeyDate
}

func BuildQueuePositionKey(entryID string) string {
	return CACHE_KEY_QUEUE_POSITION + entryID
}
