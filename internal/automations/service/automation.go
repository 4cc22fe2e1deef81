package service

import (
	"context"
	"fmt"
	"time"

	automationerrors "masterbook/internal/automations/errors"
	"masterbook/internal/automations/repository"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/notification"
)

const reminderHoursBefore = 24

type AutomationService interface {
	Seed(ctx context.Context, appt *model.Appointment) error
	RecordCancellation(ctx context.Context, appt *model.Appointment, replacements int) error
	Trigger(ctx context.Context, appt *model.Appointment, trigger model.AutomationTrigger) (*model.TriggerResult, error)
}

// UserReader resolves the email a notice is delivered to.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type automationService struct {
	repo      repository.AutomationRepository
	users     UserReader
	publisher notification.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewAutomationService(
	repo repository.AutomationRepository,
	users UserReader,
	publisher notification.Publisher,
	cfg *config.Config,
) AutomationService {
	return &automationService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Seed appends the reminder and follow-up records every new appointment starts with.
func (s *automationService) Seed(ctx context.Context, appt *model.Appointment) error {
	createdAt := s.now().UTC()
	records := []*model.AutomationRecord{
		{
			UserID:        appt.ProviderID,
			AppointmentID: appt.ID,
			Type:          model.AutomationReminder,
			Trigger:       model.TriggerOnReminder,
			Conditions:    map[string]any{"hoursBefore": reminderHoursBefore},
			Actions:       map[string]any{model.ActionSendReminder: true},
			IsActive:      true,
			CreatedAt:     createdAt,
		},
		{
			UserID:        appt.ProviderID,
			AppointmentID: appt.ID,
			Type:          model.AutomationFollowUp,
			Trigger:       model.TriggerOnCompletion,
			Conditions:    map[string]any{},
			Actions:       map[string]any{model.ActionSendFollowUp: true},
			IsActive:      true,
			CreatedAt:     createdAt,
		},
	}

	for _, record := range records {
		if err := s.repo.Create(ctx, record); err != nil {
			return fmt.Errorf("seed %s automation: %w", record.Type, err)
		}
	}

	s.cfg.Log.Debug("Automations seeded", "appointment_id", appt.ID, "count", len(records))
	return nil
}

func (s *automationService) RecordCancellation(ctx context.Context, appt *model.Appointment, replacements int) error {
	record := &model.AutomationRecord{
		UserID:        appt.ProviderID,
		AppointmentID: appt.ID,
		Type:          model.AutomationCancellationNotification,
		Trigger:       model.TriggerOnCancellation,
		Conditions: map[string]any{
			"cancelledBy":     appt.CancelledBy,
			"reason":          appt.CancellationReason,
			"hasReplacements": replacements > 0,
		},
		Actions: map[string]any{
			model.ActionNotificationsSent: true,
			model.ActionReplacementsFound: replacements,
		},
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("record cancellation automation: %w", err)
	}
	return nil
}

// Trigger executes every active record of appt registered for trigger, provided
// the trigger applies to the appointment's current status. A record counts as
// executed once its bookkeeping is stored, even when the notice it dispatches
// could not be published.
func (s *automationService) Trigger(ctx context.Context, appt *model.Appointment, trigger model.AutomationTrigger) (*model.TriggerResult, error) {
	if !trigger.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown automation trigger %q", trigger), map[string]any{
			"field": "trigger",
			"value": string(trigger),
		})
	}

	if !trigger.AppliesTo(appt.Status) {
		return nil, apperrors.Conflict(automationerrors.ErrTriggerNotApplicable.Error()).WithDetails(map[string]any{
			"trigger": string(trigger),
			"status":  string(appt.Status),
		})
	}

	records, err := s.repo.FindActive(ctx, appt.ID, trigger)
	if err != nil {
		s.cfg.Log.Error("Failed to load automations",
			"appointment_id", appt.ID,
			"trigger", trigger,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load automations", err)
	}

	result := &model.TriggerResult{Trigger: trigger}
	if len(records) == 0 {
		return result, nil
	}

	email := s.clientEmail(ctx, appt)
	for _, record := range records {
		s.execute(ctx, appt, record, email)

		if err := s.repo.RecordExecution(ctx, record.ID, s.now()); err != nil {
			s.cfg.Log.Error("Failed to record automation execution",
				"automation_id", record.ID,
				"appointment_id", appt.ID,
				"error", err,
			)
			continue
		}
		result.Executed++
	}

	s.cfg.Log.Info("Automation trigger executed",
		"appointment_id", appt.ID,
		"trigger", trigger,
		"executed", result.Executed,
	)
	return result, nil
}

func (s *automationService) execute(ctx context.Context, appt *model.Appointment, record *model.AutomationRecord, email string) {
	var notice *notification.Notice
	switch {
	case record.Wants(model.ActionSendReminder):
		notice = &notification.Notice{
			Type:    notification.NoticeAppointmentReminder,
			Message: fmt.Sprintf("Reminder: your appointment is on %s", s.formatStart(appt)),
		}
	case record.Wants(model.ActionSendFollowUp):
		notice = &notification.Notice{
			Type:    notification.NoticeFollowUp,
			Message: fmt.Sprintf("How did your session on %s go?", s.formatStart(appt)),
		}
	default:
		return
	}

	notice.RecipientID = appt.ClientID
	notice.RecipientEmail = email
	notice.AppointmentID = appt.ID
	notice.CreatedAt = s.now().UTC()
	if err := s.publisher.Notify(ctx, *notice); err != nil {
		s.cfg.Log.Warn("Failed to publish automation notice",
			"automation_id", record.ID,
			"type", notice.Type,
			"error", err,
		)
	}
}

func (s *automationService) clientEmail(ctx context.Context, appt *model.Appointment) string {
	client, err := s.users.FindByID(ctx, appt.ClientID)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve client for automation notice",
			"client_id", appt.ClientID,
			"error", err,
		)
		return ""
	}
	return client.Email
}

func (s *automationService) formatStart(appt *model.Appointment) string {
	return appt.StartTime.In(s.cfg.Location).Format("2006-01-02 15:04")
}
