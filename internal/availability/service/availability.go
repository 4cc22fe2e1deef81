package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/internal/availability/validator"
	"masterbook/internal/scheduling"
	userserrors "masterbook/internal/users/errors"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/sanitizer"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type AvailabilityService interface {
	GetTemplate(ctx context.Context, providerID string) (*model.WeeklyTemplate, error)
	LoadTemplate(ctx context.Context, providerID string) (*model.WeeklyTemplate, error)
	SaveTemplate(ctx context.Context, actor model.Actor, req *model.WeeklyTemplateRequest) (*model.WeeklyTemplate, error)
	GetDay(ctx context.Context, providerID string, date string) (*model.DayAvailability, error)
}

// ProviderStore is the slice of the users repository this service needs.
type ProviderStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	SaveAvailability(ctx context.Context, providerID string, tmpl *model.WeeklyTemplate) error
}

// AppointmentReader loads PENDING and CONFIRMED appointments of a provider
// overlapping [from, to).
type AppointmentReader interface {
	FindActiveInRange(ctx context.Context, providerID string, from, to time.Time) ([]*model.Appointment, error)
}

type availabilityService struct {
	providers    ProviderStore
	appointments AppointmentReader
	validator    *validator.TemplateValidator
	cache        *expirable.LRU[string, *model.WeeklyTemplate]
	cfg          *config.Config
}

func NewAvailabilityService(
	providers ProviderStore,
	appointments AppointmentReader,
	validator *validator.TemplateValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		providers:    providers,
		appointments: appointments,
		validator:    validator,
		cache:        expirable.NewLRU[string, *model.WeeklyTemplate](cfg.TemplateCacheSize, nil, cfg.TemplateCacheTTL),
		cfg:          cfg,
	}
}

// GetTemplate serves display reads. Entries may lag a save made on another
// replica by up to TemplateCacheTTL.
func (s *availabilityService) GetTemplate(ctx context.Context, providerID string) (*model.WeeklyTemplate, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("providerId is required")
	}
	if cached, ok := s.cache.Get(providerID); ok {
		return cloneTemplate(cached), nil
	}

	tmpl, err := s.LoadTemplate(ctx, providerID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(providerID, cloneTemplate(tmpl))
	return tmpl, nil
}

// LoadTemplate always reads the store. Booking validation gates on it.
func (s *availabilityService) LoadTemplate(ctx context.Context, providerID string) (*model.WeeklyTemplate, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("providerId is required")
	}

	provider, err := s.findProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	tmpl := provider.Availability
	if tmpl == nil {
		tmpl = s.defaultTemplate()
	}
	tmpl.ProviderID = providerID
	return tmpl, nil
}

func (s *availabilityService) SaveTemplate(ctx context.Context, actor model.Actor, req *model.WeeklyTemplateRequest) (*model.WeeklyTemplate, error) {
	if !actor.IsProvider() {
		return nil, apperrors.Forbidden("Only providers can manage availability")
	}

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Weekly template validation failed",
			"provider_id", actor.ID,
			"error", err,
		)
		var ruleErr *validator.RuleError
		if errors.As(err, &ruleErr) {
			return nil, apperrors.Validation(ruleErr.Error(), ruleErr.Details())
		}
		return nil, apperrors.Validation("Weekly template validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	tmpl := &model.WeeklyTemplate{
		ProviderID: actor.ID,
		TimeSlots:  make([]model.WeeklyAvailabilityRule, len(req.TimeSlots)),
		Notes:      sanitizer.NormalizeNotes(req.Notes),
	}
	for i, rule := range req.TimeSlots {
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		tmpl.TimeSlots[i] = rule
	}

	if err := s.providers.SaveAvailability(ctx, actor.ID, tmpl); err != nil {
		s.cache.Remove(actor.ID)
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Provider", actor.ID)
		}
		s.cfg.Log.Error("Failed to save weekly template",
			"provider_id", actor.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to save availability", err)
	}

	s.cache.Add(actor.ID, cloneTemplate(tmpl))
	s.cfg.Log.Info("Weekly template saved successfully",
		"provider_id", actor.ID,
		"rules", len(tmpl.TimeSlots),
	)
	return tmpl, nil
}

func (s *availabilityService) GetDay(ctx context.Context, providerID string, date string) (*model.DayAvailability, error) {
	day, err := scheduling.ParseDate(date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.Validation(availabilityerrors.ErrInvalidDate.Error(), map[string]any{
			"field": "date",
			"value": date,
		})
	}

	tmpl, err := s.GetTemplate(ctx, providerID)
	if err != nil {
		return nil, err
	}

	from, to := scheduling.DayBounds(day, s.cfg.Location)
	appts, err := s.appointments.FindActiveInRange(ctx, providerID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load appointments for day",
			"provider_id", providerID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load appointments", err)
	}

	slots := scheduling.GenerateDaySlots(tmpl, day, s.cfg.Location)
	return &model.DayAvailability{
		Date:       date,
		ProviderID: providerID,
		TimeSlots:  scheduling.AnnotateBooked(slots, appts),
	}, nil
}

func (s *availabilityService) findProvider(ctx context.Context, providerID string) (*model.User, error) {
	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Provider", providerID)
		}
		s.cfg.Log.Error("Failed to load provider",
			"provider_id", providerID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load provider", err)
	}
	if !provider.IsProvider() {
		return nil, apperrors.NotFoundWithID("Provider", providerID)
	}
	return provider, nil
}

// defaultTemplate is served to providers who never saved one: weekdays open
// during the configured business day, weekends closed.
func (s *availabilityService) defaultTemplate() *model.WeeklyTemplate {
	rules := make([]model.WeeklyAvailabilityRule, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		rules = append(rules, model.WeeklyAvailabilityRule{
			ID:        fmt.Sprintf("slot-%d", day),
			DayOfWeek: model.IntPtr(int(day)),
			IsActive:  day != time.Saturday && day != time.Sunday,
			StartTime: s.cfg.DefaultStartOfDay,
			EndTime:   s.cfg.DefaultEndOfDay,
		})
	}
	return &model.WeeklyTemplate{
		TimeSlots: rules,
		Notes:     fmt.Sprintf("Available Monday to Friday, %s-%s", s.cfg.DefaultStartOfDay, s.cfg.DefaultEndOfDay),
		IsDefault: true,
	}
}

func cloneTemplate(t *model.WeeklyTemplate) *model.WeeklyTemplate {
	c := *t
	c.TimeSlots = make([]model.WeeklyAvailabilityRule, len(t.TimeSlots))
	for i, rule := range t.TimeSlots {
		if rule.DayOfWeek != nil {
			rule.DayOfWeek = model.IntPtr(*rule.DayOfWeek)
		}
		c.TimeSlots[i] = rule
	}
	return &c
}
