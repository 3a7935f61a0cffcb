package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"
)

type EventConsumer struct {
	client   pulsar.Client
	consumer pulsar.Consumer
}

// NewEventConsumer initializes the Pulsar client and an exclusive consumer
// on the audit topic.
func NewEventConsumer(pulsarURL, topic, subscription string) (*EventConsumer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: pulsarURL})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		SubscriptionName: subscription,
		Type:             pulsar.Exclusive,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar consumer: %w", err)
	}

	return &EventConsumer{client: client, consumer: consumer}, nil
}

// Receive waits for the next audit event and acknowledges it once decoded.
// Undecodable messages are acknowledged and reported as an error.
func (c *EventConsumer) Receive(ctx context.Context) (AuditEvent, error) {
	msg, err := c.consumer.Receive(ctx)
	if err != nil {
		return AuditEvent{}, fmt.Errorf("failed to receive message: %w", err)
	}
	defer c.consumer.Ack(msg)

	return Decode(msg.Payload())
}

// Decode parses an audit event payload.
func Decode(payload []byte) (AuditEvent, error) {
	var event AuditEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return AuditEvent{}, fmt.Errorf("failed to decode audit event: %w", err)
	}
	return event, nil
}

// Close cleans up the Pulsar consumer and client.
func (c *EventConsumer) Close() {
	c.consumer.Close()
	c.client.Close()
}
