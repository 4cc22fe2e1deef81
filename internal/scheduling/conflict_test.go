package scheduling

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"masterbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appointmentAt(id string, h, m, minutes int, status model.AppointmentStatus) *model.Appointment {
	start := time.Date(2025, 3, 3, h, m, 0, 0, time.UTC)
	return &model.Appointment{
		ID:              id,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Status:          status,
	}
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConflict))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, reason, conflict.Reason)
}

func TestCheckBookingConflict_PendingAppointmentScenario(t *testing.T) {
	existing := []*model.Appointment{appointmentAt("a1", 10, 0, 60, model.StatusPending)}
	at := func(h, m int) time.Time { return time.Date(2025, 3, 3, h, m, 0, 0, time.UTC) }

	requireReason(t, CheckBookingConflict(at(10, 30), 30*time.Minute, existing, ""), ReasonExactOverlap)
	requireReason(t, CheckBookingConflict(at(9, 30), 90*time.Minute, existing, ""), ReasonSpansIntoSlot)
	assert.NoError(t, CheckBookingConflict(at(11, 0), 30*time.Minute, existing, ""))
}

func TestCheckBookingConflict_Cases(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 3, 3, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		existing []*model.Appointment
		start    time.Time
		duration time.Duration
		reason   string
	}{
		{
			name:     "same start",
			existing: []*model.Appointment{appointmentAt("a", 10, 0, 60, model.StatusConfirmed)},
			start:    at(10, 0),
			duration: 30 * time.Minute,
			reason:   ReasonExactOverlap,
		},
		{
			name:     "earlier appointment running long",
			existing: []*model.Appointment{appointmentAt("a", 8, 0, 180, model.StatusPending)},
			start:    at(10, 0),
			duration: 30 * time.Minute,
			reason:   ReasonExactOverlap,
		},
		{
			name:     "proposal swallows a short appointment",
			existing: []*model.Appointment{appointmentAt("a", 10, 30, 15, model.StatusPending)},
			start:    at(10, 0),
			duration: 2 * time.Hour,
			reason:   ReasonSpansIntoSlot,
		},
		{
			name:     "touching start boundary",
			existing: []*model.Appointment{appointmentAt("a", 10, 0, 60, model.StatusPending)},
			start:    at(9, 0),
			duration: time.Hour,
		},
		{
			name:     "cancelled appointment is ignored",
			existing: []*model.Appointment{appointmentAt("a", 10, 0, 60, model.StatusCancelled)},
			start:    at(10, 0),
			duration: time.Hour,
		},
		{
			name:     "completed appointment is ignored",
			existing: []*model.Appointment{appointmentAt("a", 10, 0, 60, model.StatusCompleted)},
			start:    at(10, 0),
			duration: time.Hour,
		},
		{
			name: "exact overlap wins over spans",
			existing: []*model.Appointment{
				appointmentAt("later", 11, 0, 30, model.StatusPending),
				appointmentAt("running", 9, 30, 60, model.StatusPending),
			},
			start:    at(10, 0),
			duration: 2 * time.Hour,
			reason:   ReasonExactOverlap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBookingConflict(tt.start, tt.duration, tt.existing, "")
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			requireReason(t, err, tt.reason)
		})
	}
}

func TestCheckBookingConflict_ExcludesRescheduledAppointment(t *testing.T) {
	existing := []*model.Appointment{appointmentAt("self", 10, 0, 60, model.StatusConfirmed)}
	start := time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC)

	assert.NoError(t, CheckBookingConflict(start, time.Hour, existing, "self"))
	requireReason(t, CheckBookingConflict(start, time.Hour, existing, "other"), ReasonExactOverlap)
}

func TestCheckBookingConflict_ReportsConflictingAppointment(t *testing.T) {
	existing := []*model.Appointment{appointmentAt("a42", 10, 0, 60, model.StatusPending)}
	err := CheckBookingConflict(time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), time.Hour, existing, "")

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "a42", conflict.AppointmentID)
	assert.Contains(t, err.Error(), "a42")
}

// Any active half-open overlap must be reported, and nothing else.
func TestCheckBookingConflict_MatchesHalfOpenOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	day := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 2000; i++ {
		apptStart := day.Add(time.Duration(rng.Intn(48)) * 15 * time.Minute)
		apptMinutes := 15 * (1 + rng.Intn(8))
		appt := &model.Appointment{ID: "a", StartTime: apptStart, DurationMinutes: apptMinutes, Status: model.StatusPending}

		start := day.Add(time.Duration(rng.Intn(48)) * 15 * time.Minute)
		duration := time.Duration(15*(1+rng.Intn(8))) * time.Minute

		want := Overlaps(start, start.Add(duration), appt.StartTime, appt.End())
		got := CheckBookingConflict(start, duration, []*model.Appointment{appt}, "") != nil
		require.Equal(t, want, got, fmt.Sprintf("appt %s+%d, proposal %s+%s", apptStart.Format("15:04"), apptMinutes, start.Format("15:04"), duration))
	}
}

func TestAnnotateBooked(t *testing.T) {
	slots := GenerateDaySlots(mondayTemplate("09:00", "12:00"), monday, time.UTC)
	appts := []*model.Appointment{
		appointmentAt("a", 10, 0, 60, model.StatusPending),
		appointmentAt("b", 11, 15, 10, model.StatusConfirmed),
		appointmentAt("c", 14, 0, 60, model.StatusCancelled),
	}

	annotated := AnnotateBooked(slots, appts)

	booked := map[string]model.Slot{}
	for _, s := range annotated {
		booked[s.Time] = s
	}

	for _, tm := range []string{"10:00", "10:30", "11:00"} {
		assert.True(t, booked[tm].Booked, "slot %s should be booked", tm)
		assert.False(t, booked[tm].Available, "slot %s should not be available", tm)
	}
	for _, tm := range []string{"09:30", "11:30", "14:00", "14:30"} {
		assert.False(t, booked[tm].Booked, "slot %s should be free", tm)
	}
	assert.True(t, booked["09:30"].Available)
	assert.True(t, booked["11:30"].Available)
	assert.False(t, booked["14:00"].Available, "outside template is never available")

	assert.False(t, slots[4].Booked, "input slots must not be mutated")
}

// A slot is booked iff some active appointment overlaps its window.
func TestAnnotateBooked_ConsistentWithAppointments(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tmpl := mondayTemplate("08:00", "20:00")

	for round := 0; round < 200; round++ {
		var appts []*model.Appointment
		for i := 0; i < 1+rng.Intn(4); i++ {
			status := model.AppointmentStatuses[rng.Intn(len(model.AppointmentStatuses))]
			appts = append(appts, appointmentAt(fmt.Sprint(i), 8+rng.Intn(12), 15*rng.Intn(4), 15*(1+rng.Intn(8)), status))
		}

		for _, slot := range AnnotateBooked(GenerateDaySlots(tmpl, monday, time.UTC), appts) {
			want := false
			for _, a := range appts {
				if a.Status.IsActive() && Overlaps(slot.StartTime, slot.StartTime.Add(SlotGranularity), a.StartTime, a.End()) {
					want = true
				}
			}
			require.Equal(t, want, slot.Booked, "round %d slot %s", round, slot.Time)
		}
	}
}

func TestCheckTemplate(t *testing.T) {
	tmpl := mondayTemplate("09:00", "12:00")

	assert.NoError(t, CheckTemplate(tmpl, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Hour, time.UTC))
	requireReason(t, CheckTemplate(tmpl, time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC), time.Hour, time.UTC), ReasonOutsideAvailability)
}
