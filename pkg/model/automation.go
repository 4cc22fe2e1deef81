package model

import "time"

type AutomationTrigger string

const (
	TriggerOnCancellation AutomationTrigger = "ON_CANCELLATION"
	TriggerOnCompletion   AutomationTrigger = "ON_COMPLETION"
	TriggerOnReminder     AutomationTrigger = "ON_REMINDER"
)

func (t AutomationTrigger) IsValid() bool {
	switch t {
	case TriggerOnCancellation, TriggerOnCompletion, TriggerOnReminder:
		return true
	}
	return false
}

// AppliesTo reports whether an appointment in status may fire t. Reminders
// only make sense for sessions still ahead, follow-ups only after completion.
func (t AutomationTrigger) AppliesTo(status AppointmentStatus) bool {
	switch t {
	case TriggerOnReminder:
		return status.IsActive()
	case TriggerOnCompletion:
		return status == StatusCompleted
	case TriggerOnCancellation:
		return status == StatusCancelled
	}
	return false
}

type AutomationType string

const (
	AutomationCancellationNotification AutomationType = "CANCELLATION_NOTIFICATION"
	AutomationReminder                 AutomationType = "REMINDER"
	AutomationFollowUp                 AutomationType = "FOLLOW_UP"
)

// Action keys understood by the automation executor.
const (
	ActionSendReminder      = "sendReminder"
	ActionSendFollowUp      = "sendFollowUp"
	ActionNotificationsSent = "notificationsSent"
	ActionReplacementsFound = "replacementsFound"
)

// AutomationRecord is append-only. Only execution bookkeeping changes after insert.
type AutomationRecord struct {
	ID             string            `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         string            `json:"userId" bson:"user_id"`
	AppointmentID  string            `json:"appointmentId" bson:"appointment_id"`
	Type           AutomationType    `json:"type" bson:"type"`
	Trigger        AutomationTrigger `json:"trigger" bson:"trigger"`
	Conditions     map[string]any    `json:"conditions" bson:"conditions"`
	Actions        map[string]any    `json:"actions" bson:"actions"`
	IsActive       bool              `json:"isActive" bson:"is_active"`
	ExecutionCount int               `json:"executionCount" bson:"execution_count"`
	LastTriggered  *time.Time        `json:"lastTriggered,omitempty" bson:"last_triggered,omitempty"`
	CreatedAt      time.Time         `json:"createdAt" bson:"created_at"`
}

// Wants reports whether the boolean action flag is set.
func (r *AutomationRecord) Wants(action string) bool {
	v, ok := r.Actions[action].(bool)
	return ok && v
}

type TriggerResult struct {
	Trigger  AutomationTrigger `json:"trigger"`
	Executed int               `json:"executed"`
}
