package model

import "time"

// TimeSlot is a derived, never persisted, bookable window.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
