package model

import "time"

// Slot is a computed 30 minute window of a provider's day. It is never stored.
type Slot struct {
	Time                string    `json:"time"`
	StartTime           time.Time `json:"startTime"`
	AvailableByTemplate bool      `json:"availableByTemplate"`
	Booked              bool      `json:"booked"`
	Available           bool      `json:"available"`
}

type DayAvailability struct {
	Date       string `json:"date"`
	ProviderID string `json:"providerId"`
	TimeSlots  []Slot `json:"timeSlots"`
}
