package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"masterbook/internal/scheduling"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

// Rule checks, reported in the order they are evaluated.
const (
	CheckMissingDay       = "missing_day"
	CheckDayOutOfRange    = "day_out_of_range"
	CheckMissingTime      = "missing_time"
	CheckMalformedTime    = "malformed_time"
	CheckEndNotAfterStart = "end_not_after_start"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// RuleError identifies the first offending rule of a template save.
type RuleError struct {
	Index   int
	Field   string
	Check   string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("timeSlots[%d].%s: %s", e.Index, e.Field, e.Message)
}

func (e *RuleError) Details() map[string]any {
	return map[string]any{
		"index": e.Index,
		"field": e.Field,
		"check": e.Check,
	}
}

type TemplateValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTemplateValidator(log *logger.Logger) *TemplateValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("hhmm", validateClock); err != nil {
		log.Fatal("Failed to register 'hhmm' validator", "error", err)
	}

	log.Info("Template validator initialized successfully")

	return &TemplateValidator{
		validate: v,
		logger:   log,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateClock(fl validator.FieldLevel) bool {
	return scheduling.IsClock(fl.Field().String())
}

// Validate checks the request envelope, then every rule in order. The first
// failing rule aborts validation with a *RuleError.
func (v *TemplateValidator) Validate(req *model.WeeklyTemplateRequest) error {
	if req.TimeSlots == nil {
		return ValidationErrors{{Field: "timeSlots", Message: "timeSlots is required and must be an array"}}
	}
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	for i, rule := range req.TimeSlots {
		if err := v.validateRule(i, rule); err != nil {
			return err
		}
	}
	return nil
}

func (v *TemplateValidator) validateRule(index int, rule model.WeeklyAvailabilityRule) *RuleError {
	if rule.DayOfWeek == nil {
		return &RuleError{Index: index, Field: "dayOfWeek", Check: CheckMissingDay, Message: "dayOfWeek is required"}
	}
	if *rule.DayOfWeek < 0 || *rule.DayOfWeek > 6 {
		return &RuleError{Index: index, Field: "dayOfWeek", Check: CheckDayOutOfRange, Message: fmt.Sprintf("dayOfWeek must be between 0 and 6, got %d", *rule.DayOfWeek)}
	}
	if !rule.IsActive {
		return nil
	}

	if rule.StartTime == "" {
		return &RuleError{Index: index, Field: "startTime", Check: CheckMissingTime, Message: "active rules must have startTime and endTime"}
	}
	if rule.EndTime == "" {
		return &RuleError{Index: index, Field: "endTime", Check: CheckMissingTime, Message: "active rules must have startTime and endTime"}
	}
	if err := v.validate.Var(rule.StartTime, "hhmm"); err != nil {
		return &RuleError{Index: index, Field: "startTime", Check: CheckMalformedTime, Message: "time format must be HH:MM"}
	}
	if err := v.validate.Var(rule.EndTime, "hhmm"); err != nil {
		return &RuleError{Index: index, Field: "endTime", Check: CheckMalformedTime, Message: "time format must be HH:MM"}
	}

	start, _ := scheduling.ParseClock(rule.StartTime)
	end, _ := scheduling.ParseClock(rule.EndTime)
	if end <= start {
		return &RuleError{Index: index, Field: "endTime", Check: CheckEndNotAfterStart, Message: "end time must be after start time"}
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
