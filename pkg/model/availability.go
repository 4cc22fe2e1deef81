package model

import "time"

// WeeklyAvailabilityRule is one recurring window on a day of the week, in the
// provider's wall clock. DayOfWeek uses Sunday=0.
type WeeklyAvailabilityRule struct {
	ID        string `json:"id,omitempty" bson:"id,omitempty"`
	DayOfWeek *int   `json:"dayOfWeek" bson:"day_of_week"`
	IsActive  bool   `json:"isActive" bson:"is_active"`
	StartTime string `json:"startTime" bson:"start_time"`
	EndTime   string `json:"endTime" bson:"end_time"`
}

func (r WeeklyAvailabilityRule) Day() (time.Weekday, bool) {
	if r.DayOfWeek == nil {
		return 0, false
	}
	return time.Weekday(*r.DayOfWeek), true
}

type WeeklyTemplate struct {
	ProviderID string                   `json:"providerId" bson:"-"`
	TimeSlots  []WeeklyAvailabilityRule `json:"timeSlots" bson:"time_slots"`
	Notes      string                   `json:"notes" bson:"notes"`
	IsDefault  bool                     `json:"isDefault" bson:"-"`
	UpdatedAt  *time.Time               `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// ActiveRules returns the active rules declared for day.
func (t *WeeklyTemplate) ActiveRules(day time.Weekday) []WeeklyAvailabilityRule {
	var rules []WeeklyAvailabilityRule
	for _, rule := range t.TimeSlots {
		if d, ok := rule.Day(); ok && d == day && rule.IsActive {
			rules = append(rules, rule)
		}
	}
	return rules
}

type WeeklyTemplateRequest struct {
	TimeSlots []WeeklyAvailabilityRule `json:"timeSlots"`
	Notes     string                   `json:"notes" validate:"max=2000"`
}

func IntPtr(v int) *int {
	return &v
}
