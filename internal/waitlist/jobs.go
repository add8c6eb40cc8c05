package waitlist

import (
	"context"
	"log"
	"time"
)

// JobProcessor handles background expiry jobs for the queue
type JobProcessor struct {
	service Service
	config  *JobConfig
	done    chan struct{}
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	ExpiryCheckInterval time.Duration
	RacSweepInterval    time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		ExpiryCheckInterval: 1 * time.Minute,
		RacSweepInterval:    15 * time.Minute,
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}
	return &JobProcessor{
		service: service,
		config:  config,
		done:    make(chan struct{}),
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	log.Println("Starting queue background jobs...")

	go jp.startExpiryProcessor(ctx)
	go jp.startRacSweeper(ctx)

	log.Println("Queue background jobs started")
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	log.Println("Stopping queue background jobs...")
	close(jp.done)
	log.Println("Queue background jobs stopped")
}

// startExpiryProcessor expires PENDING entries whose expiry time has passed
func (jp *JobProcessor) startExpiryProcessor(ctx context.Context) {
	ticker := time.NewTicker(jp.config.ExpiryCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired, err := jp.service.ProcessExpiredEntries(ctx)
			if err != nil {
				log.Printf("Error expiring waitlist entries: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("Expired %d waitlist entries", expired)
			}
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// startRacSweeper auto-cancels RAC holds for departed journeys
func (jp *JobProcessor) startRacSweeper(ctx context.Context) {
	ticker := time.NewTicker(jp.config.RacSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cancelled, err := jp.service.ProcessDepartedRac(ctx)
			if err != nil {
				log.Printf("Error auto-cancelling departed RAC entries: %v", err)
				continue
			}
			if cancelled > 0 {
				log.Printf("Auto-cancelled %d departed RAC entries", cancelled)
			}
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
