package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"masterbook/internal/availability/validator"
	"masterbook/internal/scheduling"
	userserrors "masterbook/internal/users/errors"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

type mockProviderStore struct {
	users     map[string]*model.User
	findCalls int
	saved     *model.WeeklyTemplate
	saveErr   error
}

func (m *mockProviderStore) FindByID(_ context.Context, id string) (*model.User, error) {
	m.findCalls++
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
	}
	c := *u
	return &c, nil
}

func (m *mockProviderStore) SaveAvailability(_ context.Context, providerID string, tmpl *model.WeeklyTemplate) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.users[providerID]; !ok {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, providerID)
	}
	m.saved = tmpl
	m.users[providerID].Availability = tmpl
	return nil
}

type mockAppointmentReader struct {
	appointments []*model.Appointment
	from, to     time.Time
}

func (m *mockAppointmentReader) FindActiveInRange(_ context.Context, _ string, from, to time.Time) ([]*model.Appointment, error) {
	m.from, m.to = from, to
	return m.appointments, nil
}

func newTestService(store *mockProviderStore, reader *mockAppointmentReader) *availabilityService {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	cfg := &config.Config{
		Log:               log,
		Location:          time.UTC,
		DefaultStartOfDay: "09:00",
		DefaultEndOfDay:   "18:00",
		TemplateCacheSize: 16,
		TemplateCacheTTL:  time.Minute,
	}
	return NewAvailabilityService(store, reader, validator.NewTemplateValidator(log), cfg).(*availabilityService)
}

func mondayMorning() *model.WeeklyTemplate {
	return &model.WeeklyTemplate{TimeSlots: []model.WeeklyAvailabilityRule{
		{DayOfWeek: model.IntPtr(1), IsActive: true, StartTime: "09:00", EndTime: "12:00"},
	}}
}

func TestGetTemplate_DefaultWhenNeverSaved(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"p1": {ID: "p1", Role: model.RoleProvider},
	}}
	svc := newTestService(store, &mockAppointmentReader{})

	tmpl, err := svc.GetTemplate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if !tmpl.IsDefault {
		t.Error("expected default template")
	}
	if len(tmpl.TimeSlots) != 7 {
		t.Fatalf("expected 7 rules, got %d", len(tmpl.TimeSlots))
	}
	for _, r := range tmpl.TimeSlots {
		day, _ := r.Day()
		weekday := day >= time.Monday && day <= time.Friday
		if r.IsActive != weekday {
			t.Errorf("day %s: expected active=%v", day, weekday)
		}
		if r.StartTime != "09:00" || r.EndTime != "18:00" {
			t.Errorf("day %s: unexpected window %s-%s", day, r.StartTime, r.EndTime)
		}
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"s1": {ID: "s1", Role: model.RoleStudent},
	}}
	svc := newTestService(store, &mockAppointmentReader{})

	for _, id := range []string{"missing", "s1"} {
		_, err := svc.GetTemplate(context.Background(), id)
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			t.Errorf("GetTemplate(%q): expected NOT_FOUND, got %v", id, err)
		}
	}
}

func TestGetTemplate_ServedFromCache(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"p1": {ID: "p1", Role: model.RoleProvider, Availability: mondayMorning()},
	}}
	svc := newTestService(store, &mockAppointmentReader{})

	first, err := svc.GetTemplate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	first.TimeSlots[0].StartTime = "00:00"

	second, err := svc.GetTemplate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if store.findCalls != 1 {
		t.Errorf("expected 1 store lookup, got %d", store.findCalls)
	}
	if second.TimeSlots[0].StartTime != "09:00" {
		t.Error("cached template must not be shared with callers")
	}
}

func TestSaveTemplate_ReplacesAndRefreshesCache(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"p1": {ID: "p1", Role: model.RoleProvider, Availability: mondayMorning()},
	}}
	svc := newTestService(store, &mockAppointmentReader{})
	ctx := context.Background()

	if _, err := svc.GetTemplate(ctx, "p1"); err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}

	req := &model.WeeklyTemplateRequest{
		TimeSlots: []model.WeeklyAvailabilityRule{
			{DayOfWeek: model.IntPtr(3), IsActive: true, StartTime: "14:00", EndTime: "16:00"},
		},
		Notes: "  Wednesdays   only ",
	}
	saved, err := svc.SaveTemplate(ctx, model.Actor{ID: "p1", Role: model.RoleProvider}, req)
	if err != nil {
		t.Fatalf("SaveTemplate() error = %v", err)
	}
	if saved.Notes != "Wednesdays only" {
		t.Errorf("expected normalized notes, got %q", saved.Notes)
	}
	if saved.TimeSlots[0].ID == "" {
		t.Error("expected rule id to be assigned")
	}

	got, err := svc.GetTemplate(ctx, "p1")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if len(got.TimeSlots) != 1 || *got.TimeSlots[0].DayOfWeek != 3 {
		t.Errorf("expected the saved template to replace the old one, got %+v", got.TimeSlots)
	}
}

func TestLoadTemplate_SeesSaveFromAnotherReplica(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"p1": {ID: "p1", Role: model.RoleProvider, Availability: mondayMorning()},
	}}
	replicaA := newTestService(store, &mockAppointmentReader{})
	replicaB := newTestService(store, &mockAppointmentReader{})
	ctx := context.Background()

	if _, err := replicaA.GetTemplate(ctx, "p1"); err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}

	closed := &model.WeeklyTemplateRequest{TimeSlots: []model.WeeklyAvailabilityRule{
		{DayOfWeek: model.IntPtr(1), IsActive: false, StartTime: "09:00", EndTime: "12:00"},
	}}
	if _, err := replicaB.SaveTemplate(ctx, model.Actor{ID: "p1", Role: model.RoleProvider}, closed); err != nil {
		t.Fatalf("SaveTemplate() error = %v", err)
	}

	tmpl, err := replicaA.LoadTemplate(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	monday10 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	if scheduling.WithinTemplate(tmpl, monday10, 30*time.Minute, time.UTC) {
		t.Error("Monday 10:00 must be outside the template saved by the other replica")
	}
}

func TestSaveTemplate_DayOutOfRangeRejectsWholeSave(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"p1": {ID: "p1", Role: model.RoleProvider, Availability: mondayMorning()},
	}}
	svc := newTestService(store, &mockAppointmentReader{})

	req := &model.WeeklyTemplateRequest{TimeSlots: []model.WeeklyAvailabilityRule{
		{DayOfWeek: model.IntPtr(2), IsActive: true, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: model.IntPtr(7), IsActive: true, StartTime: "09:00", EndTime: "12:00"},
	}}
	_, err := svc.SaveTemplate(context.Background(), model.Actor{ID: "p1", Role: model.RoleProvider}, req)

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation || appErr.StatusCode() != 400 {
		t.Fatalf("expected 400 VALIDATION_ERROR, got %v", err)
	}
	if appErr.Details["check"] != validator.CheckDayOutOfRange || appErr.Details["index"] != 1 {
		t.Errorf("unexpected details %v", appErr.Details)
	}
	if store.saved != nil {
		t.Error("nothing may be written when a rule is invalid")
	}
}

func TestSaveTemplate_OnlyProviders(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{}}
	svc := newTestService(store, &mockAppointmentReader{})

	_, err := svc.SaveTemplate(context.Background(), model.Actor{ID: "s1", Role: model.RoleStudent}, &model.WeeklyTemplateRequest{})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
}

func TestSaveTemplate_StoreFailure(t *testing.T) {
	store := &mockProviderStore{
		users:   map[string]*model.User{"p1": {ID: "p1", Role: model.RoleProvider}},
		saveErr: errors.New("connection reset"),
	}
	svc := newTestService(store, &mockAppointmentReader{})

	_, err := svc.SaveTemplate(context.Background(), model.Actor{ID: "p1", Role: model.RoleProvider}, &model.WeeklyTemplateRequest{TimeSlots: []model.WeeklyAvailabilityRule{}})
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestGetDay_MarksBookedAndTemplateSlots(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{
		"p1": {ID: "p1", Role: model.RoleProvider, Availability: mondayMorning()},
	}}
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	reader := &mockAppointmentReader{appointments: []*model.Appointment{
		{ID: "a1", StartTime: start, EndTime: start.Add(time.Hour), DurationMinutes: 60, Status: model.StatusPending},
	}}
	svc := newTestService(store, reader)

	day, err := svc.GetDay(context.Background(), "p1", "2025-03-03")
	if err != nil {
		t.Fatalf("GetDay() error = %v", err)
	}
	if len(day.TimeSlots) != 24 {
		t.Fatalf("expected 24 slots, got %d", len(day.TimeSlots))
	}
	if !reader.from.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) || !reader.to.Equal(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected appointment window %s - %s", reader.from, reader.to)
	}

	byTime := map[string]model.Slot{}
	for _, s := range day.TimeSlots {
		byTime[s.Time] = s
	}
	if !byTime["09:00"].Available {
		t.Error("09:00 should be available")
	}
	if !byTime["10:00"].Booked || !byTime["10:30"].Booked || byTime["10:30"].Available {
		t.Error("10:00 and 10:30 should be booked")
	}
	if byTime["11:00"].Booked || !byTime["11:00"].Available {
		t.Error("11:00 touches the appointment end and should be free")
	}
	if byTime["12:00"].AvailableByTemplate {
		t.Error("12:00 is outside the template")
	}
}

func TestGetDay_InvalidDate(t *testing.T) {
	store := &mockProviderStore{users: map[string]*model.User{"p1": {ID: "p1", Role: model.RoleProvider}}}
	svc := newTestService(store, &mockAppointmentReader{})

	_, err := svc.GetDay(context.Background(), "p1", "03/03/2025")
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}
