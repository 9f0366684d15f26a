// Package kafka wraps the franz-go producer behind the narrow surface the
// audit pipeline needs.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records to a Kafka-compatible broker.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the given seed brokers. Returns nil if no brokers
// are configured (publishing disabled).
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client}, nil
}

// Publish synchronously produces one record. Callers decide whether a
// failure is fatal; the audit pipeline treats it as best-effort.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and releases the connection.
func (p *Producer) Close() {
	if p != nil && p.client != nil {
		p.client.Close()
	}
}
