// Package notification carries the notices the booking core hands to the
// external delivery collaborator, and the reference delivery path used by
// cmd/notifier.
package notification

import (
	"fmt"
	"time"
)

type NoticeType string

const (
	NoticeNewAppointment         NoticeType = "new_appointment"
	NoticeCancellation           NoticeType = "cancellation_notice"
	NoticeReplacementOpportunity NoticeType = "replacement_opportunity"
	NoticeAppointmentReminder    NoticeType = "appointment_reminder"
	NoticeFollowUp               NoticeType = "follow_up"
)

// Event types carried in the kafka event-type header.
const (
	EventNotice               = "notification.notice.v1"
	EventAppointmentCancelled = "appointment.cancelled.v1"
)

type Notice struct {
	Type           NoticeType     `json:"type"`
	RecipientID    string         `json:"recipientId"`
	RecipientEmail string         `json:"recipientEmail,omitempty"`
	AppointmentID  string         `json:"appointmentId"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// AppointmentCancelled is emitted once per successful cancellation.
type AppointmentCancelled struct {
	AppointmentID string    `json:"appointmentId"`
	ProviderID    string    `json:"providerId"`
	ClientID      string    `json:"clientId"`
	CancelledBy   string    `json:"cancelledBy"`
	Reason        string    `json:"reason,omitempty"`
	Replacements  []string  `json:"replacements"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

func (n Notice) Validate() error {
	switch n.Type {
	case NoticeNewAppointment, NoticeCancellation, NoticeReplacementOpportunity, NoticeAppointmentReminder, NoticeFollowUp:
	default:
		return fmt.Errorf("unknown notice type %q", n.Type)
	}
	if n.RecipientID == "" {
		return fmt.Errorf("notice %s has no recipient", n.Type)
	}
	return nil
}

// Subject is the email subject line used for the notice.
func (n Notice) Subject() string {
	switch n.Type {
	case NoticeNewAppointment:
		return "New appointment request"
	case NoticeCancellation:
		return "Appointment cancelled"
	case NoticeReplacementOpportunity:
		return "A slot just opened up"
	case NoticeAppointmentReminder:
		return "Appointment reminder"
	case NoticeFollowUp:
		return "How did your session go?"
	default:
		return "Notification"
	}
}
