package notification

import (
	"context"
	"fmt"

	"masterbook/pkg/kafka"
	"masterbook/pkg/logger"
)

// NewDeliveryHandler turns notice messages into email. Undecodable messages
// and notices without an address are permanent failures; SMTP errors are
// transient so the consumer retries them before dead-lettering.
func NewDeliveryHandler(sender Sender, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch msg.GetEventType() {
		case EventNotice:
		case EventAppointmentCancelled:
			var event AppointmentCancelled
			if err := msg.DecodeValue(&event); err != nil {
				return kafka.NewPermanentError("deserialization failed", err)
			}
			log.Info("appointment cancelled",
				"appointment_id", event.AppointmentID,
				"provider_id", event.ProviderID,
				"replacements", len(event.Replacements),
			)
			return nil
		default:
			log.Warn("skipping message with unknown event type", "event_type", msg.GetEventType(), "event_id", msg.GetEventID())
			return nil
		}

		var notice Notice
		if err := msg.DecodeValue(&notice); err != nil {
			return kafka.NewPermanentError("deserialization failed", err)
		}
		if err := notice.Validate(); err != nil {
			return kafka.NewPermanentError("invalid message", err)
		}
		if notice.RecipientEmail == "" {
			return kafka.NewPermanentError("invalid message", fmt.Errorf("recipient %s has no email", notice.RecipientID))
		}

		if err := sender.Send(notice.RecipientEmail, notice.Subject(), notice.Message); err != nil {
			return kafka.NewTransientError("smtp delivery failed", err)
		}
		log.Info("notice delivered",
			"type", notice.Type,
			"recipient_id", notice.RecipientID,
			"appointment_id", notice.AppointmentID,
		)
		return nil
	}
}
