package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
)

// Audit actions published by the dashboard.
const (
	ActionSchoolCreated   = "school.created"
	ActionSchoolUpdated   = "school.updated"
	ActionSchoolDeleted   = "school.deleted"
	ActionSchoolConnected = "school.connected"
	ActionStaffCreated    = "staff.created"
	ActionUserUpdated     = "user.updated"
	ActionUserDeleted     = "user.deleted"
	ActionRequestCreated  = "block_request.created"
	ActionRequestApproved = "block_request.approved"
	ActionRequestRejected = "block_request.rejected"
)

// AuditEvent records a mutation a dashboard user triggered through the API.
type AuditEvent struct {
	Action     string `json:"action"`
	ActorID    string `json:"actorId"`
	ActorType  string `json:"actorType"`
	ResourceID string `json:"resourceId"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Notifier publishes audit events.
type Notifier interface {
	Notify(ctx context.Context, event AuditEvent) error
	Close()
}

type EventPublisher struct {
	client   pulsar.Client
	producer pulsar.Producer
}

// NewEventPublisher initializes the Pulsar client and producer.
func NewEventPublisher(pulsarURL, topic string) (*EventPublisher, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: pulsarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: topic,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar producer: %w", err)
	}

	return &EventPublisher{client: client, producer: producer}, nil
}

// Notify publishes an audit event to Pulsar, keyed by the resource id.
func (p *EventPublisher) Notify(ctx context.Context, event AuditEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}

	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not serialize audit event: %w", err)
	}

	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:     event.ResourceID,
		Payload: message,
	})
	if err != nil {
		return fmt.Errorf("could not send audit event to Pulsar: %w", err)
	}
	return nil
}

// Close closes the Pulsar client and producer
func (p *EventPublisher) Close() {
	p.producer.Close()
	p.client.Close()
}

// NopNotifier drops every event. It is used when no Pulsar URL is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, AuditEvent) error { return nil }
func (NopNotifier) Close() {}
