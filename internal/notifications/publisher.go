package notifications

import (
	"context"
	"fmt"
	"log"

	"github.com/IBM/sarama"
)

// Publisher is the interface the allocation sweeps dispatch through. The
// outbox row is already committed alongside the seat-state change by the
// time Dispatch runs, so dispatch never fails the caller: a broker outage
// leaves the row PENDING for the relay to deliver later.
type Publisher interface {
	Dispatch(ctx context.Context, record *OutboxRecord)
}

// OutboxPublisher attempts delivery of committed outbox rows, marking each
// row SENT on success and recording the failed attempt otherwise.
type OutboxPublisher struct {
	repo     Repository
	producer EventProducer
}

// NewOutboxPublisher creates an outbox-backed publisher
func NewOutboxPublisher(repo Repository, producer EventProducer) *OutboxPublisher {
	return &OutboxPublisher{repo: repo, producer: producer}
}

// Dispatch attempts immediate delivery of one committed outbox row
func (p *OutboxPublisher) Dispatch(ctx context.Context, record *OutboxRecord) {
	if err := p.send(record); err != nil {
		log.Printf("Failed to publish event %s, left in outbox: %v", record.EventID, err)
		if markErr := p.repo.MarkAttemptFailed(ctx, record.ID, err, relayMaxAttempts); markErr != nil {
			log.Printf("Failed to record outbox attempt for event %s: %v", record.EventID, markErr)
		}
		return
	}

	if err := p.repo.MarkSent(ctx, record.ID); err != nil {
		// Worst case the relay re-sends; consumers dedupe on event ID.
		log.Printf("Failed to mark outbox row sent for event %s: %v", record.EventID, err)
	}
}

func (p *OutboxPublisher) send(record *OutboxRecord) error {
	if p.producer == nil {
		return fmt.Errorf("no event producer configured")
	}
	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(record.EventID.String())},
		{Key: []byte("event_type"), Value: []byte(record.EventType)},
		{Key: []byte("producer"), Value: []byte("railbook-allocation")},
	}
	return p.producer.Send(record.Topic, record.PartitionKey, record.Payload, headers)
}
