package notifications

import (
	"context"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const relayMaxAttempts = 10

// OutboxRelay re-sends outbox rows that the inline dispatch could not
// deliver, including rows committed by a process that died before its
// dispatch ran. It only touches rows older than the grace window so it never
// races a dispatch still in flight.
type OutboxRelay struct {
	repo     Repository
	producer EventProducer
	config   *RelayConfig
	done     chan struct{}
}

// RelayConfig contains configuration for the outbox relay
type RelayConfig struct {
	Interval    time.Duration
	GraceWindow time.Duration
	BatchSize   int
	MaxAttempts int
}

// DefaultRelayConfig returns default relay configuration
func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		Interval:    30 * time.Second,
		GraceWindow: 10 * time.Second,
		BatchSize:   100,
		MaxAttempts: relayMaxAttempts,
	}
}

// NewOutboxRelay creates a new outbox relay
func NewOutboxRelay(repo Repository, producer EventProducer, config *RelayConfig) *OutboxRelay {
	if config == nil {
		config = DefaultRelayConfig()
	}
	return &OutboxRelay{
		repo:     repo,
		producer: producer,
		config:   config,
		done:     make(chan struct{}),
	}
}

// Start runs the relay loop until Stop or context cancellation
func (r *OutboxRelay) Start(ctx context.Context) {
	log.Printf("Starting outbox relay with %v interval", r.config.Interval)
	go r.run(ctx)
}

// Stop stops the relay loop
func (r *OutboxRelay) Stop() {
	close(r.done)
	log.Println("Outbox relay stopped")
}

func (r *OutboxRelay) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// flush re-sends one batch of stale pending rows
func (r *OutboxRelay) flush(ctx context.Context) {
	cutoff := time.Now().Add(-r.config.GraceWindow)
	records, err := r.repo.PendingRecords(ctx, cutoff, r.config.BatchSize)
	if err != nil {
		log.Printf("Outbox relay failed to fetch pending records: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	sent := 0
	for i := range records {
		record := &records[i]
		headers := []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(record.EventID.String())},
			{Key: []byte("event_type"), Value: []byte(record.EventType)},
			{Key: []byte("producer"), Value: []byte("railbook-outbox-relay")},
		}
		if err := r.producer.Send(record.Topic, record.PartitionKey, record.Payload, headers); err != nil {
			if markErr := r.repo.MarkAttemptFailed(ctx, record.ID, err, r.config.MaxAttempts); markErr != nil {
				log.Printf("Outbox relay failed to record attempt for %s: %v", record.EventID, markErr)
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, record.ID); err != nil {
			log.Printf("Outbox relay failed to mark %s sent: %v", record.EventID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("Outbox relay delivered %d/%d pending events", sent, len(records))
	}
}
