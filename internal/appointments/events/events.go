package events

import (
	"context"
	"time"

	"medslot/pkg/kafka"
	"medslot/pkg/logger"
	"medslot/pkg/model"
)

const (
	TypeCreated     = "appointment.created"
	TypeRescheduled = "appointment.rescheduled"

	SchemaVersion = "1"
	Source        = "medslot-scheduler"
)

// Event describes a committed change to an appointment.
type Event struct {
	Type           string                  `json:"type"`
	Appointment    model.Appointment       `json:"appointment"`
	PreviousStatus model.AppointmentStatus `json:"previous_status,omitempty"`
	PreviousDate   *time.Time              `json:"previous_date,omitempty"`
	Trigger        string                  `json:"trigger,omitempty"`
	OccurredAt     time.Time               `json:"occurred_at"`
}

// TypeFor names the event emitted after a lifecycle transition, e.g.
// "appointment.cancel".
func TypeFor(trigger string) string {
	return "appointment." + trigger
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish keys the message by provider so one provider's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg, err := kafka.NewMessage().
		WithKey(event.Appointment.ProviderID).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithCorrelationID(logger.RequestIDFromContext(ctx)).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}

	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
