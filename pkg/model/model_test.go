package model

import (
	"testing"
	"time"
)

func TestAppointmentStatus_Classification(t *testing.T) {
	tests := []struct {
		status   AppointmentStatus
		valid    bool
		active   bool
		terminal bool
	}{
		{StatusPending, true, true, false},
		{StatusConfirmed, true, true, false},
		{StatusCancelled, true, false, true},
		{StatusCompleted, true, false, true},
		{AppointmentStatus("SCHEDULED"), false, false, false},
		{AppointmentStatus("pending"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestAppointment_Overlaps(t *testing.T) {
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{StartTime: start, DurationMinutes: 60}

	tests := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected bool
	}{
		{"same interval", start, start.Add(time.Hour), true},
		{"inside", start.Add(15 * time.Minute), start.Add(30 * time.Minute), true},
		{"starts before runs into", start.Add(-30 * time.Minute), start.Add(time.Minute), true},
		{"starts inside runs past", start.Add(30 * time.Minute), start.Add(2 * time.Hour), true},
		{"touching end", start.Add(time.Hour), start.Add(90 * time.Minute), false},
		{"touching start", start.Add(-30 * time.Minute), start, false},
		{"far before", start.Add(-3 * time.Hour), start.Add(-2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := appt.Overlaps(tt.from, tt.to); got != tt.expected {
				t.Errorf("Overlaps() = %v, want %v", got, tt.expected)
			}
		})
	}

	if !appt.End().Equal(start.Add(time.Hour)) {
		t.Errorf("End() = %v, want %v", appt.End(), start.Add(time.Hour))
	}
}

func TestActor_CanModify(t *testing.T) {
	appt := &Appointment{ProviderID: "p1", ClientID: "s1"}

	tests := []struct {
		name     string
		actor    Actor
		expected bool
	}{
		{"provider of appointment", Actor{ID: "p1", Role: RoleProvider}, true},
		{"client of appointment", Actor{ID: "s1", Role: RoleStudent}, true},
		{"other student", Actor{ID: "s2", Role: RoleStudent}, false},
		{"other provider", Actor{ID: "p2", Role: RoleProvider}, false},
		{"provider id with student role", Actor{ID: "p1", Role: RoleStudent}, false},
		{"anonymous", Actor{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanModify(appt); got != tt.expected {
				t.Errorf("CanModify() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWeeklyTemplate_ActiveRules(t *testing.T) {
	tmpl := &WeeklyTemplate{
		TimeSlots: []WeeklyAvailabilityRule{
			{DayOfWeek: IntPtr(1), IsActive: true, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: IntPtr(1), IsActive: true, StartTime: "14:00", EndTime: "16:00"},
			{DayOfWeek: IntPtr(2), IsActive: false, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: nil, IsActive: true, StartTime: "09:00", EndTime: "12:00"},
		},
	}

	if got := len(tmpl.ActiveRules(time.Monday)); got != 2 {
		t.Errorf("ActiveRules(Monday) returned %d rules, want 2", got)
	}
	if got := len(tmpl.ActiveRules(time.Tuesday)); got != 0 {
		t.Errorf("ActiveRules(Tuesday) returned %d rules, want 0", got)
	}
	if got := len(tmpl.ActiveRules(time.Sunday)); got != 0 {
		t.Errorf("ActiveRules(Sunday) returned %d rules, want 0", got)
	}
}

func TestAppointmentUpdate_Reschedules(t *testing.T) {
	notes := "bring racket"
	date := "2025-03-03"

	if (&AppointmentUpdate{Notes: &notes}).Reschedules() {
		t.Errorf("notes only update should not reschedule")
	}
	if !(&AppointmentUpdate{Date: &date}).Reschedules() {
		t.Errorf("date update should reschedule")
	}
}

func TestAutomationRecord_Wants(t *testing.T) {
	rec := &AutomationRecord{Actions: map[string]any{
		ActionSendReminder:      true,
		ActionSendFollowUp:      false,
		ActionReplacementsFound: 3,
	}}

	if !rec.Wants(ActionSendReminder) {
		t.Errorf("expected sendReminder to be wanted")
	}
	if rec.Wants(ActionSendFollowUp) {
		t.Errorf("expected sendFollowUp not to be wanted")
	}
	if rec.Wants(ActionReplacementsFound) {
		t.Errorf("non boolean action must not count as wanted")
	}
}

func TestAutomationTrigger_AppliesTo(t *testing.T) {
	tests := []struct {
		trigger AutomationTrigger
		status  AppointmentStatus
		want    bool
	}{
		{TriggerOnReminder, StatusPending, true},
		{TriggerOnReminder, StatusConfirmed, true},
		{TriggerOnReminder, StatusCancelled, false},
		{TriggerOnReminder, StatusCompleted, false},
		{TriggerOnCompletion, StatusCompleted, true},
		{TriggerOnCompletion, StatusPending, false},
		{TriggerOnCompletion, StatusConfirmed, false},
		{TriggerOnCancellation, StatusCancelled, true},
		{TriggerOnCancellation, StatusConfirmed, false},
		{AutomationTrigger("ON_BIRTHDAY"), StatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.trigger.AppliesTo(tt.status); got != tt.want {
			t.Errorf("%s.AppliesTo(%s) = %v, want %v", tt.trigger, tt.status, got, tt.want)
		}
	}
}
