package model

import (
	"time"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

var AppointmentStatuses = []AppointmentStatus{
	StatusPending,
	StatusConfirmed,
	StatusCancelled,
	StatusCompleted,
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether an appointment in this status holds its time range.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ActiveStatuses are the statuses that occupy a provider's calendar.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

type Appointment struct {
	ID                 string            `json:"id,omitempty" bson:"_id,omitempty"`
	ProviderID         string            `json:"providerId" bson:"provider_id"`
	ClientID           string            `json:"clientId" bson:"client_id"`
	StartTime          time.Time         `json:"startTime" bson:"start_time"`
	EndTime            time.Time         `json:"endTime" bson:"end_time"`
	DurationMinutes    int               `json:"durationMinutes" bson:"duration_minutes"`
	Status             AppointmentStatus `json:"status" bson:"status"`
	Price              float64           `json:"price" bson:"price"`
	Notes              string            `json:"notes" bson:"notes"`
	CreatedAt          time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time         `json:"updatedAt" bson:"updated_at"`
	CancelledAt        *time.Time        `json:"cancelledAt,omitempty" bson:"cancelled_at,omitempty"`
	CancelledBy        string            `json:"cancelledBy,omitempty" bson:"cancelled_by,omitempty"`
	CancellationReason string            `json:"cancellationReason,omitempty" bson:"cancellation_reason,omitempty"`
}

// End is always derived from the start and duration, never trusted from storage.
func (a *Appointment) End() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps is the half-open test [a.start, a.end) ∩ [start, end) ≠ ∅.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.End().After(start)
}

type AppointmentRequest struct {
	ProviderID      string   `json:"providerId" validate:"required,mongodb"`
	Date            string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string   `json:"time" validate:"required,hhmm"`
	DurationMinutes int      `json:"durationMinutes" validate:"required,min=1,max=720"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	Notes           string   `json:"notes" validate:"max=2000"`
}

type AppointmentUpdate struct {
	Status             *AppointmentStatus `json:"status,omitempty" validate:"omitempty,appointment_status"`
	Notes              *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Date               *string            `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time               *string            `json:"time,omitempty" validate:"omitempty,hhmm"`
	DurationMinutes    *int               `json:"durationMinutes,omitempty" validate:"omitempty,min=1,max=720"`
	CancellationReason string             `json:"cancellationReason,omitempty" validate:"max=500"`
}

// Reschedules reports whether the update moves the appointment in time.
func (u *AppointmentUpdate) Reschedules() bool {
	return u.Date != nil || u.Time != nil || u.DurationMinutes != nil
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type CancellationResult struct {
	PotentialReplacements int `json:"potentialReplacements"`
}
