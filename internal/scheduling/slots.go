// Package scheduling holds the pure calendar math of the booking core: the
// fixed slot grid, template gating and the interval conflict checks. Nothing
// here touches storage.
package scheduling

import (
	"fmt"
	"regexp"
	"time"

	"masterbook/pkg/model"
)

const (
	SlotGranularity = 30 * time.Minute

	// The displayed grid runs 08:00 to 20:00, so the last slot starts at 19:30.
	DayOpensAt  = 8 * 60
	DayClosesAt = 20 * 60

	minutesPerDay = 24 * 60
	DateLayout    = "2006-01-02"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseClock parses a strict 24h HH:MM string into minutes since midnight.
func ParseClock(s string) (int, error) {
	if !clockRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hours := int(s[0]-'0')*10 + int(s[1]-'0')
	minutes := int(s[3]-'0')*10 + int(s[4]-'0')
	return hours*60 + minutes, nil
}

func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses YYYY-MM-DD as a calendar day of loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// At returns the UTC instant of the wall clock time on date's calendar day in loc.
func At(date time.Time, minutes int, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc).UTC()
}

// DayBounds returns [local midnight, next local midnight) of date in loc, as UTC instants.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// GenerateDaySlots expands the weekly template into the fixed grid of date.
// Booked and Available are left false; AnnotateBooked fills them in.
func GenerateDaySlots(tmpl *model.WeeklyTemplate, date time.Time, loc *time.Location) []model.Slot {
	windows := activeWindows(tmpl, date.In(loc).Weekday())

	step := int(SlotGranularity / time.Minute)
	slots := make([]model.Slot, 0, (DayClosesAt-DayOpensAt)/step)
	for start := DayOpensAt; start < DayClosesAt; start += step {
		slots = append(slots, model.Slot{
			Time:                FormatClock(start),
			StartTime:           At(date, start, loc),
			AvailableByTemplate: windows.contains(start, start+step),
		})
	}
	return slots
}

// WithinTemplate reports whether [start, start+duration) lies inside a single
// active rule for its local weekday. Intervals crossing local midnight never do.
func WithinTemplate(tmpl *model.WeeklyTemplate, start time.Time, duration time.Duration, loc *time.Location) bool {
	local := start.In(loc)
	from := local.Hour()*60 + local.Minute()
	to := from + int(duration/time.Minute)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		to++
	}
	if to > minutesPerDay {
		return false
	}
	return activeWindows(tmpl, local.Weekday()).contains(from, to)
}

type window struct {
	start int
	end   int
}

type windows []window

func (ws windows) contains(start, end int) bool {
	for _, w := range ws {
		if w.start <= start && end <= w.end {
			return true
		}
	}
	return false
}

func activeWindows(tmpl *model.WeeklyTemplate, day time.Weekday) windows {
	if tmpl == nil {
		return nil
	}
	var ws windows
	for _, rule := range tmpl.ActiveRules(day) {
		start, err := ParseClock(rule.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(rule.EndTime)
		if err != nil || end <= start {
			continue
		}
		ws = append(ws, window{start: start, end: end})
	}
	return ws
}
