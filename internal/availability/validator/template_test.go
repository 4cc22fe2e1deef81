package validator

import (
	"errors"
	"io"
	"strings"
	"testing"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

func newTestValidator() *TemplateValidator {
	return NewTemplateValidator(logger.New(logger.Config{
		Level:  "error",
		Format: logger.JSON,
		Output: io.Discard,
	}))
}

func rule(day *int, active bool, start, end string) model.WeeklyAvailabilityRule {
	return model.WeeklyAvailabilityRule{DayOfWeek: day, IsActive: active, StartTime: start, EndTime: end}
}

func TestValidate_RuleChecks(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		rules     []model.WeeklyAvailabilityRule
		wantCheck string
		wantIndex int
		wantField string
	}{
		{
			name:  "valid week",
			rules: []model.WeeklyAvailabilityRule{rule(model.IntPtr(1), true, "09:00", "12:00"), rule(model.IntPtr(0), false, "", "")},
		},
		{
			name:      "day seven is out of range",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(7), true, "09:00", "12:00")},
			wantCheck: CheckDayOutOfRange,
			wantField: "dayOfWeek",
		},
		{
			name:      "negative day",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(-1), false, "", "")},
			wantCheck: CheckDayOutOfRange,
			wantField: "dayOfWeek",
		},
		{
			name:      "missing day",
			rules:     []model.WeeklyAvailabilityRule{rule(nil, true, "09:00", "12:00")},
			wantCheck: CheckMissingDay,
			wantField: "dayOfWeek",
		},
		{
			name:      "active without start",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(2), true, "", "12:00")},
			wantCheck: CheckMissingTime,
			wantField: "startTime",
		},
		{
			name:      "active without end",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(2), true, "09:00", "")},
			wantCheck: CheckMissingTime,
			wantField: "endTime",
		},
		{
			name:      "single digit hour is malformed",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(2), true, "9:00", "12:00")},
			wantCheck: CheckMalformedTime,
			wantField: "startTime",
		},
		{
			name:      "hour 24 is malformed",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(2), true, "09:00", "24:00")},
			wantCheck: CheckMalformedTime,
			wantField: "endTime",
		},
		{
			name:      "end equal to start",
			rules:     []model.WeeklyAvailabilityRule{rule(model.IntPtr(2), true, "09:00", "09:00")},
			wantCheck: CheckEndNotAfterStart,
			wantField: "endTime",
		},
		{
			name:  "inactive rule skips time checks",
			rules: []model.WeeklyAvailabilityRule{rule(model.IntPtr(6), false, "garbage", "")},
		},
		{
			name: "first offending rule is reported",
			rules: []model.WeeklyAvailabilityRule{
				rule(model.IntPtr(1), true, "09:00", "12:00"),
				rule(model.IntPtr(2), true, "13:00", "12:00"),
				rule(model.IntPtr(9), true, "09:00", "12:00"),
			},
			wantCheck: CheckEndNotAfterStart,
			wantIndex: 1,
			wantField: "endTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&model.WeeklyTemplateRequest{TimeSlots: tt.rules})
			if tt.wantCheck == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var ruleErr *RuleError
			if !errors.As(err, &ruleErr) {
				t.Fatalf("expected *RuleError, got %v", err)
			}
			if ruleErr.Check != tt.wantCheck {
				t.Errorf("expected check %s, got %s", tt.wantCheck, ruleErr.Check)
			}
			if ruleErr.Index != tt.wantIndex {
				t.Errorf("expected index %d, got %d", tt.wantIndex, ruleErr.Index)
			}
			if ruleErr.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, ruleErr.Field)
			}
		})
	}
}

func TestValidate_Envelope(t *testing.T) {
	v := newTestValidator()

	err := v.Validate(&model.WeeklyTemplateRequest{})
	var validationErrs ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected ValidationErrors for missing timeSlots, got %v", err)
	}
	if validationErrs[0].Field != "timeSlots" {
		t.Errorf("expected field timeSlots, got %s", validationErrs[0].Field)
	}

	err = v.Validate(&model.WeeklyTemplateRequest{TimeSlots: []model.WeeklyAvailabilityRule{}, Notes: strings.Repeat("x", 2001)})
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected ValidationErrors for long notes, got %v", err)
	}
	if validationErrs[0].Field != "notes" {
		t.Errorf("expected json field name notes, got %s", validationErrs[0].Field)
	}

	if err := v.Validate(&model.WeeklyTemplateRequest{TimeSlots: []model.WeeklyAvailabilityRule{}}); err != nil {
		t.Errorf("expected empty rule set to be accepted, got %v", err)
	}
}
