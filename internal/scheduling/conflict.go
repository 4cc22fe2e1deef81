package scheduling

import (
	"errors"
	"fmt"
	"time"

	"masterbook/pkg/model"
)

const (
	ReasonExactOverlap        = "exact_overlap"
	ReasonSpansIntoSlot       = "spans_into_slot"
	ReasonOutsideAvailability = "outside_availability"
)

var ErrConflict = errors.New("booking conflict")

type ConflictError struct {
	Reason        string
	AppointmentID string
}

func (e *ConflictError) Error() string {
	if e.AppointmentID == "" {
		return fmt.Sprintf("%s: %s", ErrConflict, e.Reason)
	}
	return fmt.Sprintf("%s: %s with appointment %s", ErrConflict, e.Reason, e.AppointmentID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Overlaps is the half-open interval test: touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// AnnotateBooked marks every slot that overlaps a PENDING or CONFIRMED
// appointment. appointments must already be scoped to one provider and day.
func AnnotateBooked(slots []model.Slot, appointments []*model.Appointment) []model.Slot {
	out := make([]model.Slot, len(slots))
	for i, slot := range slots {
		slotEnd := slot.StartTime.Add(SlotGranularity)
		slot.Booked = false
		for _, appt := range appointments {
			if !appt.Status.IsActive() {
				continue
			}
			if Overlaps(slot.StartTime, slotEnd, appt.StartTime, appt.End()) {
				slot.Booked = true
				break
			}
		}
		slot.Available = slot.AvailableByTemplate && !slot.Booked
		out[i] = slot
	}
	return out
}

// CheckBookingConflict validates a proposed [start, start+duration) against the
// provider's existing appointments. An appointment already running at the
// proposed start yields exact_overlap; one that begins inside the proposal
// yields spans_into_slot. excludeID skips the appointment being rescheduled.
func CheckBookingConflict(start time.Time, duration time.Duration, existing []*model.Appointment, excludeID string) error {
	end := start.Add(duration)

	for _, appt := range existing {
		if !appt.Status.IsActive() || (excludeID != "" && appt.ID == excludeID) {
			continue
		}
		apptEnd := appt.End()
		if !appt.StartTime.After(start) && start.Before(apptEnd) {
			return &ConflictError{Reason: ReasonExactOverlap, AppointmentID: appt.ID}
		}
	}

	for _, appt := range existing {
		if !appt.Status.IsActive() || (excludeID != "" && appt.ID == excludeID) {
			continue
		}
		if start.Before(appt.StartTime) && appt.StartTime.Before(end) {
			return &ConflictError{Reason: ReasonSpansIntoSlot, AppointmentID: appt.ID}
		}
	}

	return nil
}

// CheckTemplate rejects proposals that are not inside the provider's declared availability.
func CheckTemplate(tmpl *model.WeeklyTemplate, start time.Time, duration time.Duration, loc *time.Location) error {
	if !WithinTemplate(tmpl, start, duration, loc) {
		return &ConflictError{Reason: ReasonOutsideAvailability}
	}
	return nil
}
