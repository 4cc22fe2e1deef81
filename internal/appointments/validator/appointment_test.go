package validator

import (
	"errors"
	"io"
	"strings"
	"testing"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

func newTestValidator() *AppointmentValidator {
	return NewAppointmentValidator(logger.New(logger.Config{Level: "error", Output: io.Discard}))
}

func ptr[T any](v T) *T {
	return &v
}

func validRequest() *model.AppointmentRequest {
	return &model.AppointmentRequest{
		ProviderID:      "65f1a2b3c4d5e6f7a8b9c0d1",
		Date:            "2025-03-03",
		Time:            "10:00",
		DurationMinutes: 60,
	}
}

func TestValidate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		modify    func(r *model.AppointmentRequest)
		wantField string
	}{
		{name: "valid", modify: func(r *model.AppointmentRequest) {}},
		{name: "missing provider", modify: func(r *model.AppointmentRequest) { r.ProviderID = "" }, wantField: "providerId"},
		{name: "provider not an object id", modify: func(r *model.AppointmentRequest) { r.ProviderID = "provider-1" }, wantField: "providerId"},
		{name: "bad date", modify: func(r *model.AppointmentRequest) { r.Date = "03/03/2025" }, wantField: "date"},
		{name: "bad time", modify: func(r *model.AppointmentRequest) { r.Time = "10:5" }, wantField: "time"},
		{name: "zero duration", modify: func(r *model.AppointmentRequest) { r.DurationMinutes = 0 }, wantField: "durationMinutes"},
		{name: "duration over a day", modify: func(r *model.AppointmentRequest) { r.DurationMinutes = 721 }, wantField: "durationMinutes"},
		{name: "negative price", modify: func(r *model.AppointmentRequest) { r.Price = ptr(-1.0) }, wantField: "price"},
		{name: "free appointment", modify: func(r *model.AppointmentRequest) { r.Price = ptr(0.0) }},
		{name: "long notes", modify: func(r *model.AppointmentRequest) { r.Notes = strings.Repeat("n", 2001) }, wantField: "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(req)

			err := v.Validate(req)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var validationErrs ValidationErrors
			if !errors.As(err, &validationErrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if validationErrs[0].Field != tt.wantField {
				t.Errorf("expected field %s, got %v", tt.wantField, validationErrs.Fields())
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()
	confirmed := model.StatusConfirmed

	tests := []struct {
		name    string
		update  *model.AppointmentUpdate
		wantErr bool
	}{
		{"empty", &model.AppointmentUpdate{}, false},
		{"status", &model.AppointmentUpdate{Status: &confirmed}, false},
		{"unknown status", &model.AppointmentUpdate{Status: ptr(model.AppointmentStatus("SCHEDULED"))}, true},
		{"notes only", &model.AppointmentUpdate{Notes: ptr("bring a racket")}, false},
		{"reschedule", &model.AppointmentUpdate{Date: ptr("2025-03-04"), Time: ptr("11:30")}, false},
		{"malformed time", &model.AppointmentUpdate{Time: ptr("25:00")}, true},
		{"status with reschedule", &model.AppointmentUpdate{Status: &confirmed, DurationMinutes: ptr(30)}, true},
		{"long reason", &model.AppointmentUpdate{CancellationReason: strings.Repeat("r", 501)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(tt.update)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCancel(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateCancel(&model.CancelRequest{Reason: "feeling unwell"}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := v.ValidateCancel(&model.CancelRequest{Reason: strings.Repeat("r", 501)}); err == nil {
		t.Error("expected an error for a reason over 500 characters")
	}
}
