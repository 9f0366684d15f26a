package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Topic receives all security audit events.
const Topic = "warden.audit.security"

// Publisher delivers audit events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Broker is the subset of the Kafka producer the publisher needs.
type Broker interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaPublisher serializes events as JSON keyed by user id.
type KafkaPublisher struct {
	broker Broker
}

func NewKafkaPublisher(broker Broker) *KafkaPublisher {
	return &KafkaPublisher{broker: broker}
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return p.broker.Publish(ctx, Topic, []byte(event.UserID), payload)
}

// Log emits an event through the publisher when one is configured and always
// mirrors it to the structured log. Emission failures are logged, never
// propagated.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, event Event) {
	if logger != nil {
		logger.Info("audit",
			"action", string(event.Action),
			"user_id", event.UserID,
			"email", event.Email,
			"reason", event.Reason,
		)
	}
	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.Warn("audit event emission failed", "action", string(event.Action), "error", err)
	}
}
