package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// EventConsumer consumes allocation events and records them in the delivery
// log. In a full deployment this is where email/SMS fan-out would hang off;
// here the log is the delivery.
type EventConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}

// ConsumerConfig contains configuration for the Kafka event consumer
type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	Topics           []string
	SessionTimeoutMs int
	HeartbeatMs      int
	OffsetOldest     bool
}

// DefaultConsumerConfig returns default consumer configuration
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          []string{"localhost:9092"},
		GroupID:          "railbook-notification-workers",
		Topics:           []string{TopicWaitlistPromoted, TopicRacConfirmed, TopicWaitlistConfirmed},
		SessionTimeoutMs: 30000,
		HeartbeatMs:      3000,
		OffsetOldest:     true,
	}
}

// KafkaEventConsumer is a sarama consumer group over the allocation topics
type KafkaEventConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	repo          Repository
	cancel        context.CancelFunc
}

// NewKafkaEventConsumer creates a new Kafka event consumer
func NewKafkaEventConsumer(config *ConsumerConfig, repo Repository) (EventConsumer, error) {
	if config == nil {
		config = DefaultConsumerConfig()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second
	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaEventConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		repo:          repo,
	}, nil
}

// Start begins consuming in the background
func (c *KafkaEventConsumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	log.Printf("Starting event consumer for topics: %v", c.config.Topics)

	go func() {
		for err := range c.consumerGroup.Errors() {
			log.Printf("Event consumer error: %v", err)
		}
	}()

	go func() {
		handler := &deliveryLogHandler{repo: c.repo}
		for {
			if err := c.consumerGroup.Consume(ctx, c.config.Topics, handler); err != nil {
				log.Printf("Event consumer session ended: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	return nil
}

// Stop shuts the consumer group down
func (c *KafkaEventConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	log.Println("Event consumer stopped")
	return nil
}

// deliveryLogHandler writes each consumed event to the delivery log
type deliveryLogHandler struct {
	repo Repository
}

func (h *deliveryLogHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *deliveryLogHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *deliveryLogHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		event, err := AllocationEventFromJSON(message.Value)
		if err != nil {
			log.Printf("Skipping malformed event at %s/%d/%d: %v",
				message.Topic, message.Partition, message.Offset, err)
			session.MarkMessage(message, "")
			continue
		}

		logEntry := &NotificationLog{
			EventID:    event.ID,
			EventType:  event.Type,
			UserID:     event.UserID,
			TrainID:    event.TrainID,
			Message:    deliveryMessage(event),
			ConsumedAt: time.Now(),
		}
		if err := h.repo.RecordDelivery(session.Context(), logEntry); err != nil {
			// Leave the offset unmarked so the message is redelivered.
			log.Printf("Failed to record delivery for event %s: %v", event.ID, err)
			return err
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func deliveryMessage(event *AllocationEvent) string {
	switch event.Type {
	case EventWaitlistPromoted:
		return fmt.Sprintf("Your waitlist entry was promoted to RAC for journey on %s", event.JourneyDate)
	case EventRacConfirmed:
		return fmt.Sprintf("Your RAC seat was confirmed, PNR %s, journey on %s", event.PNR, event.JourneyDate)
	case EventWaitlistConfirmed:
		return fmt.Sprintf("Your waitlisted seat was confirmed, PNR %s, journey on %s", event.PNR, event.JourneyDate)
	default:
		return fmt.Sprintf("Reservation update for journey on %s", event.JourneyDate)
	}
}
