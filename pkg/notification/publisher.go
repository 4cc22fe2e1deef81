package notification

import (
	"context"
	"fmt"

	"masterbook/pkg/kafka"
	"masterbook/pkg/logger"
)

const source = "masterbook-appointments"

// Publisher hands notices and domain events to the delivery collaborator.
// Callers treat every error as best effort.
type Publisher interface {
	Notify(ctx context.Context, notice Notice) error
	AppointmentCancelled(ctx context.Context, event AppointmentCancelled) error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer messagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Notify(ctx context.Context, notice Notice) error {
	if err := notice.Validate(); err != nil {
		return err
	}
	msg := kafka.NewMessage().
		WithKey(notice.RecipientID).
		WithValue(notice).
		WithEventType(EventNotice).
		WithAppointmentID(notice.AppointmentID).
		WithSource(source).
		WithSchemaVersion("1").
		Build()
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s notice: %w", notice.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) AppointmentCancelled(ctx context.Context, event AppointmentCancelled) error {
	msg := kafka.NewMessage().
		WithKey(event.AppointmentID).
		WithValue(event).
		WithEventType(EventAppointmentCancelled).
		WithAppointmentID(event.AppointmentID).
		WithSource(source).
		WithSchemaVersion("1").
		Build()
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish cancellation event: %w", err)
	}
	return nil
}

// LogPublisher writes notices to the service log. Used when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Notify(_ context.Context, notice Notice) error {
	if err := notice.Validate(); err != nil {
		return err
	}
	p.log.Info("notice",
		"type", notice.Type,
		"recipient_id", notice.RecipientID,
		"appointment_id", notice.AppointmentID,
		"message", notice.Message,
	)
	return nil
}

func (p *LogPublisher) AppointmentCancelled(_ context.Context, event AppointmentCancelled) error {
	p.log.Info("appointment cancelled",
		"appointment_id", event.AppointmentID,
		"provider_id", event.ProviderID,
		"cancelled_by", event.CancelledBy,
		"replacements", len(event.Replacements),
	)
	return nil
}
