package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	appointmentserrors "masterbook/internal/appointments/errors"
	"masterbook/internal/appointments/repository"
	"masterbook/internal/appointments/validator"
	automations "masterbook/internal/automations/service"
	"masterbook/internal/scheduling"
	userserrors "masterbook/internal/users/errors"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/lock"
	"masterbook/pkg/model"
	"masterbook/pkg/notification"
	"masterbook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type AppointmentService interface {
	Create(ctx context.Context, actor model.Actor, req *model.AppointmentRequest) (*model.Appointment, error)
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Appointment, error)
	GetAll(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, int64, error)
	Update(ctx context.Context, actor model.Actor, id string, update *model.AppointmentUpdate) (*model.Appointment, error)
	Transition(ctx context.Context, actor model.Actor, id string, to model.AppointmentStatus, reason string) (*model.Appointment, error)
	Cancel(ctx context.Context, actor model.Actor, id string, reason string) (*model.CancellationResult, error)
	TriggerAutomation(ctx context.Context, actor model.Actor, id string, trigger model.AutomationTrigger) (*model.TriggerResult, error)
	Wait()
}

// UserReader is the slice of the users repository this service needs.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindReplacementCandidates(ctx context.Context, interests []string, excludeIDs []string, limit int) ([]*model.User, error)
}

// TemplateSource returns the weekly template bookings are gated by. It must
// read the store, not a cache.
type TemplateSource interface {
	LoadTemplate(ctx context.Context, providerID string) (*model.WeeklyTemplate, error)
}

type appointmentService struct {
	repo        repository.AppointmentRepository
	users       UserReader
	templates   TemplateSource
	automations automations.AutomationService
	locker      lock.Locker
	publisher   notification.Publisher
	validator   *validator.AppointmentValidator
	cfg         *config.Config

	now         func() time.Time
	sideEffects sync.WaitGroup
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	users UserReader,
	templates TemplateSource,
	automations automations.AutomationService,
	locker lock.Locker,
	publisher notification.Publisher,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:        repo,
		users:       users,
		templates:   templates,
		automations: automations,
		locker:      locker,
		publisher:   publisher,
		validator:   validator,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *appointmentService) Create(ctx context.Context, actor model.Actor, req *model.AppointmentRequest) (*model.Appointment, error) {
	if !actor.IsStudent() {
		return nil, apperrors.Forbidden("Only students can book appointments")
	}
	if err := s.validate(s.validator.Validate(req)); err != nil {
		return nil, err
	}

	provider, err := s.findProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	start, err := s.parseStart(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ProviderID:      provider.ID,
		ClientID:        actor.ID,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		Status:          model.StatusPending,
		Notes:           sanitizer.NormalizeNotes(req.Notes),
	}
	if req.Price != nil {
		appt.Price = *req.Price
	} else {
		appt.Price = defaultPrice(provider.HourlyRate, req.DurationMinutes)
	}

	if err := s.checkTemplate(ctx, appt); err != nil {
		return nil, err
	}

	err = s.withProviderLock(ctx, appt.ProviderID, func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.checkConflicts(sessCtx, appt, ""); err != nil {
				return err
			}
			if err := s.repo.Create(sessCtx, appt); err != nil {
				return apperrors.Internal("Failed to create appointment", err)
			}
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Warn("Appointment was not created",
			"provider_id", appt.ProviderID,
			"client_id", appt.ClientID,
			"start_time", appt.StartTime,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Appointment created successfully",
		"id", appt.ID,
		"provider_id", appt.ProviderID,
		"client_id", appt.ClientID,
		"start_time", appt.StartTime,
		"duration_minutes", appt.DurationMinutes,
	)

	created := *appt
	s.runAsync("appointment_created", func(ctx context.Context) {
		s.notify(ctx, notification.Notice{
			Type:           notification.NoticeNewAppointment,
			RecipientID:    provider.ID,
			RecipientEmail: provider.Email,
			AppointmentID:  created.ID,
			Message:        fmt.Sprintf("New appointment request for %s", s.formatStart(created.StartTime)),
			Data:           map[string]any{"clientId": created.ClientID, "durationMinutes": created.DurationMinutes},
		})
		if err := s.automations.Seed(ctx, &created); err != nil {
			s.cfg.Log.Error("Failed to seed automations", "appointment_id", created.ID, "error", err)
		}
	})

	return appt, nil
}

func (s *appointmentService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Appointment, error) {
	return s.load(ctx, actor, id)
}

func (s *appointmentService) GetAll(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, int64, error) {
	var count int64
	var appts []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountForActor(ctx, actor)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "actor_id", actor.ID, "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appts, errFind = s.repo.FindForActor(ctx, actor, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "actor_id", actor.ID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return appts, count, nil
}

// Update applies a PATCH. A status change goes through the transition table,
// a schedule change through the conflict resolver; notes ride along with either.
func (s *appointmentService) Update(ctx context.Context, actor model.Actor, id string, update *model.AppointmentUpdate) (*model.Appointment, error) {
	if err := s.validate(s.validator.ValidateUpdate(update)); err != nil {
		return nil, err
	}

	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if update.Notes != nil {
		merged.Notes = sanitizer.NormalizeNotes(*update.Notes)
	}

	switch {
	case update.Status != nil:
		return s.transition(ctx, actor, existing, &merged, *update.Status, update.CancellationReason)
	case update.Reschedules():
		return s.reschedule(ctx, existing, &merged, update)
	}

	if err := s.write(ctx, &merged, existing.Status); err != nil {
		return nil, err
	}
	s.cfg.Log.Info("Appointment updated successfully", "id", id)
	return &merged, nil
}

func (s *appointmentService) Transition(ctx context.Context, actor model.Actor, id string, to model.AppointmentStatus, reason string) (*model.Appointment, error) {
	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	merged := *existing
	return s.transition(ctx, actor, existing, &merged, to, reason)
}

func (s *appointmentService) Cancel(ctx context.Context, actor model.Actor, id string, reason string) (*model.CancellationResult, error) {
	if err := s.validate(s.validator.ValidateCancel(&model.CancelRequest{Reason: reason})); err != nil {
		return nil, err
	}

	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if err := s.applyTransition(ctx, actor, existing, &merged, model.StatusCancelled, reason); err != nil {
		return nil, err
	}

	return &model.CancellationResult{
		PotentialReplacements: s.afterCancel(ctx, &merged),
	}, nil
}

func (s *appointmentService) TriggerAutomation(ctx context.Context, actor model.Actor, id string, trigger model.AutomationTrigger) (*model.TriggerResult, error) {
	appt, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.automations.Trigger(ctx, appt, trigger)
}

// --- Helpers ---

func (s *appointmentService) transition(ctx context.Context, actor model.Actor, existing, merged *model.Appointment, to model.AppointmentStatus, reason string) (*model.Appointment, error) {
	if err := s.applyTransition(ctx, actor, existing, merged, to, reason); err != nil {
		return nil, err
	}

	switch to {
	case model.StatusCancelled:
		s.afterCancel(ctx, merged)
	case model.StatusCompleted:
		completed := *merged
		s.runAsync("appointment_completed", func(ctx context.Context) {
			if _, err := s.automations.Trigger(ctx, &completed, model.TriggerOnCompletion); err != nil {
				s.cfg.Log.Error("Failed to run completion automations", "appointment_id", completed.ID, "error", err)
			}
		})
	}
	return merged, nil
}

// applyTransition checks and persists a status change. The write is
// conditional on the status that was read, so of two racing transitions out
// of the same status only one succeeds.
func (s *appointmentService) applyTransition(ctx context.Context, actor model.Actor, existing, merged *model.Appointment, to model.AppointmentStatus, reason string) error {
	if err := checkTransition(actor, existing, to); err != nil {
		return err
	}

	merged.Status = to
	if to == model.StatusCancelled {
		cancelledAt := s.now().UTC().Truncate(time.Millisecond)
		merged.CancelledAt = &cancelledAt
		merged.CancelledBy = actor.ID
		merged.CancellationReason = sanitizer.TrimAndNormalize(reason)
	}

	if err := s.write(ctx, merged, existing.Status); err != nil {
		return err
	}

	s.cfg.Log.Info("Appointment status changed",
		"id", existing.ID,
		"from", existing.Status,
		"to", to,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *appointmentService) reschedule(ctx context.Context, existing, merged *model.Appointment, update *model.AppointmentUpdate) (*model.Appointment, error) {
	if !existing.Status.IsActive() {
		return nil, apperrors.Conflict("Only pending or confirmed appointments can be rescheduled").
			WithDetails(map[string]any{"status": string(existing.Status)})
	}

	local := existing.StartTime.In(s.cfg.Location)
	date := local.Format(scheduling.DateLayout)
	clock := local.Format("15:04")
	if update.Date != nil {
		date = *update.Date
	}
	if update.Time != nil {
		clock = *update.Time
	}
	start, err := s.parseStart(date, clock)
	if err != nil {
		return nil, err
	}
	merged.StartTime = start
	if update.DurationMinutes != nil {
		merged.DurationMinutes = *update.DurationMinutes
	}

	if err := s.checkTemplate(ctx, merged); err != nil {
		return nil, err
	}

	err = s.withProviderLock(ctx, merged.ProviderID, func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.checkConflicts(sessCtx, merged, merged.ID); err != nil {
				return err
			}
			return s.write(sessCtx, merged, existing.Status)
		})
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment rescheduled successfully",
		"id", merged.ID,
		"from", existing.StartTime,
		"to", merged.StartTime,
		"duration_minutes", merged.DurationMinutes,
	)
	return merged, nil
}

// afterCancel runs the replacement search inline, bounded by the side effect
// timeout, then records and announces the cancellation in the background.
func (s *appointmentService) afterCancel(ctx context.Context, appt *model.Appointment) int {
	searchCtx, cancel := context.WithTimeout(ctx, s.cfg.SideEffectTimeout)
	defer cancel()

	provider, replacements, err := s.findReplacements(searchCtx, appt)
	if err != nil {
		s.cfg.Log.Error("Replacement search failed",
			"appointment_id", appt.ID,
			"error", err,
		)
		replacements = nil
	}

	cancelled := *appt
	s.runAsync("appointment_cancelled", func(ctx context.Context) {
		if err := s.automations.RecordCancellation(ctx, &cancelled, len(replacements)); err != nil {
			s.cfg.Log.Error("Failed to record cancellation automation", "appointment_id", cancelled.ID, "error", err)
		}
		s.announceCancellation(ctx, &cancelled, provider, replacements)
	})

	return len(replacements)
}

func (s *appointmentService) findReplacements(ctx context.Context, appt *model.Appointment) (*model.User, []*model.User, error) {
	provider, err := s.users.FindByID(ctx, appt.ProviderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load provider: %w", err)
	}

	interests := sanitizer.NormalizeTags(provider.Specialties)
	if len(interests) == 0 || s.cfg.MaxReplacements <= 0 {
		return provider, nil, nil
	}

	busy, err := s.repo.FindBusyClients(ctx, appt.StartTime, appt.End())
	if err != nil {
		return provider, nil, fmt.Errorf("load busy clients: %w", err)
	}

	candidates, err := s.users.FindReplacementCandidates(ctx, interests, append(busy, appt.ClientID), s.cfg.MaxReplacements)
	if err != nil {
		return provider, nil, fmt.Errorf("load replacement candidates: %w", err)
	}
	return provider, candidates, nil
}

func (s *appointmentService) announceCancellation(ctx context.Context, appt *model.Appointment, provider *model.User, replacements []*model.User) {
	ids := make([]string, 0, len(replacements))
	for _, r := range replacements {
		ids = append(ids, r.ID)
	}

	event := notification.AppointmentCancelled{
		AppointmentID: appt.ID,
		ProviderID:    appt.ProviderID,
		ClientID:      appt.ClientID,
		CancelledBy:   appt.CancelledBy,
		Reason:        appt.CancellationReason,
		Replacements:  ids,
		CancelledAt:   *appt.CancelledAt,
	}
	if err := s.publisher.AppointmentCancelled(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish cancellation event", "appointment_id", appt.ID, "error", err)
	}

	providerEmail := ""
	if provider != nil {
		providerEmail = provider.Email
	}
	s.notify(ctx, notification.Notice{
		Type:           notification.NoticeCancellation,
		RecipientID:    appt.ProviderID,
		RecipientEmail: providerEmail,
		AppointmentID:  appt.ID,
		Message:        fmt.Sprintf("The appointment on %s was cancelled", s.formatStart(appt.StartTime)),
		Data: map[string]any{
			"cancelledBy":           appt.CancelledBy,
			"reason":                appt.CancellationReason,
			"potentialReplacements": len(replacements),
		},
	})

	for _, r := range replacements {
		s.notify(ctx, notification.Notice{
			Type:           notification.NoticeReplacementOpportunity,
			RecipientID:    r.ID,
			RecipientEmail: r.Email,
			AppointmentID:  appt.ID,
			Message:        fmt.Sprintf("A slot on %s just opened up", s.formatStart(appt.StartTime)),
			Data: map[string]any{
				"providerId":      appt.ProviderID,
				"durationMinutes": appt.DurationMinutes,
			},
		})
	}
}

func (s *appointmentService) notify(ctx context.Context, notice notification.Notice) {
	notice.CreatedAt = s.now().UTC()
	if err := s.publisher.Notify(ctx, notice); err != nil {
		s.cfg.Log.Warn("Failed to publish notice",
			"type", notice.Type,
			"recipient_id", notice.RecipientID,
			"appointment_id", notice.AppointmentID,
			"error", err,
		)
	}
}

// runAsync runs fn after the response is committed. Failures are logged and never reach the caller.
func (s *appointmentService) runAsync(name string, fn func(ctx context.Context)) {
	s.sideEffects.Add(1)
	go func() {
		defer s.sideEffects.Done()
		defer func() {
			if r := recover(); r != nil {
				s.cfg.Log.Error("Side effect panicked", "side_effect", name, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SideEffectTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every side effect started so far has finished.
func (s *appointmentService) Wait() {
	s.sideEffects.Wait()
}

func (s *appointmentService) load(ctx context.Context, actor model.Actor, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) || errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to load appointment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	if !actor.CanModify(appt) {
		return nil, apperrors.Forbidden("Access denied")
	}
	return appt, nil
}

func (s *appointmentService) write(ctx context.Context, appt *model.Appointment, expected model.AppointmentStatus) error {
	err := s.repo.Update(ctx, appt, expected)
	if err == nil {
		return nil
	}
	if errors.Is(err, appointmentserrors.ErrStatusChanged) {
		current, findErr := s.repo.FindByID(ctx, appt.ID)
		if findErr != nil {
			return apperrors.Conflict("Appointment was modified concurrently")
		}
		return apperrors.InvalidTransition(string(current.Status), string(appt.Status))
	}
	s.cfg.Log.Error("Failed to update appointment", "id", appt.ID, "error", err)
	return apperrors.Internal("Failed to update appointment", err)
}

func (s *appointmentService) findProvider(ctx context.Context, providerID string) (*model.User, error) {
	provider, err := s.users.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Provider", providerID)
		}
		s.cfg.Log.Error("Failed to load provider", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to load provider", err)
	}
	if !provider.IsProvider() {
		return nil, apperrors.NotFoundWithID("Provider", providerID)
	}
	return provider, nil
}

// parseStart converts the wall clock date and time of the provider location
// into a UTC instant. Only future instants are accepted.
func (s *appointmentService) parseStart(date, clock string) (time.Time, error) {
	day, err := scheduling.ParseDate(date, s.cfg.Location)
	if err != nil {
		return time.Time{}, apperrors.Validation("invalid date, expected YYYY-MM-DD", map[string]any{"field": "date", "value": date})
	}
	minutes, err := scheduling.ParseClock(clock)
	if err != nil {
		return time.Time{}, apperrors.Validation("invalid time, expected HH:MM", map[string]any{"field": "time", "value": clock})
	}

	start := scheduling.At(day, minutes, s.cfg.Location)
	if !start.After(s.now()) {
		return time.Time{}, apperrors.Validation("appointment cannot start in the past", map[string]any{
			"field":     "time",
			"startTime": start.Format(time.RFC3339),
		})
	}
	return start, nil
}

func (s *appointmentService) checkTemplate(ctx context.Context, appt *model.Appointment) error {
	tmpl, err := s.templates.LoadTemplate(ctx, appt.ProviderID)
	if err != nil {
		return err
	}
	if err := scheduling.CheckTemplate(tmpl, appt.StartTime, duration(appt), s.cfg.Location); err != nil {
		return conflictError(err)
	}
	return nil
}

func (s *appointmentService) checkConflicts(ctx context.Context, appt *model.Appointment, excludeID string) error {
	existing, err := s.repo.FindActiveInRange(ctx, appt.ProviderID, appt.StartTime, appt.End())
	if err != nil {
		return apperrors.Internal("Failed to check existing appointments", err)
	}
	if err := scheduling.CheckBookingConflict(appt.StartTime, duration(appt), existing, excludeID); err != nil {
		return conflictError(err)
	}
	return nil
}

func (s *appointmentService) withProviderLock(ctx context.Context, providerID string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, lock.ProviderKey(providerID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) || errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Conflict("This provider's calendar is being updated by another request. Please try again.")
		}
		return apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "provider_id", providerID, "error", releaseErr)
		}
	}()

	return fn()
}

func (s *appointmentService) validate(err error) error {
	if err == nil {
		return nil
	}
	s.cfg.Log.Warn("Appointment validation failed", "error", err)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		return apperrors.Validation(validationErrs.Error(), map[string]any{
			"fields": validationErrs.Fields(),
		})
	}
	return apperrors.Validation("Appointment validation failed", map[string]any{"error": err.Error()})
}

func (s *appointmentService) formatStart(t time.Time) string {
	return t.In(s.cfg.Location).Format("2006-01-02 15:04")
}

func conflictError(err error) error {
	var conflict *scheduling.ConflictError
	if !errors.As(err, &conflict) {
		return apperrors.Internal("Failed to check availability", err)
	}

	message := "The requested time conflicts with an existing appointment"
	switch conflict.Reason {
	case scheduling.ReasonExactOverlap:
		message = "The requested time overlaps an existing appointment"
	case scheduling.ReasonSpansIntoSlot:
		message = "The requested duration runs into an existing appointment"
	case scheduling.ReasonOutsideAvailability:
		message = "The requested time is outside the provider's availability"
	}
	return apperrors.ConflictWithReason(conflict.Reason, message)
}

func duration(appt *model.Appointment) time.Duration {
	return time.Duration(appt.DurationMinutes) * time.Minute
}

// defaultPrice pro-rates the hourly rate, rounded to cents.
func defaultPrice(hourlyRate float64, minutes int) float64 {
	return math.Round(hourlyRate*float64(minutes)/60*100) / 100
}
