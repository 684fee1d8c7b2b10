package model

import "time"

type ProviderType string

const (
	ProviderDoctor ProviderType = "doctor"
	ProviderLab    ProviderType = "lab"
)

type DaySchedule struct {
	Day     Weekday   `json:"day" bson:"day" validate:"required,weekday"`
	Opening TimeOfDay `json:"opening" bson:"opening" validate:"omitempty,time_of_day"`
	Closing TimeOfDay `json:"closing" bson:"closing" validate:"omitempty,time_of_day"`
	IsOpen  bool      `json:"is_open" bson:"is_open"`
}

// OperatingHours is a provider's weekly schedule. It is replaced as a whole,
// never deleted.
type OperatingHours struct {
	ID                          string        `json:"id,omitempty" bson:"_id,omitempty"`
	ProviderID                  string        `json:"provider_id" bson:"provider_id" validate:"required,min=1,max=64"`
	ProviderType                ProviderType  `json:"provider_type" bson:"provider_type" validate:"required,oneof=doctor lab"`
	Schedule                    []DaySchedule `json:"schedule" bson:"schedule" validate:"required,len=7,unique=Day,dive"`
	ConsultationDurationMinutes int           `json:"consultation_duration_minutes" bson:"consultation_duration_minutes" validate:"required,min=5,max=480"`
	TimeZone                    string        `json:"time_zone,omitempty" bson:"time_zone,omitempty" validate:"omitempty,timezone"`
	UpdatedAt                   time.Time     `json:"updated_at" bson:"updated_at"`
}

// Day looks up the entry for a weekday.
func (h *OperatingHours) Day(d Weekday) (DaySchedule, bool) {
	for _, ds := range h.Schedule {
		if ds.Day == d {
			return ds, true
		}
	}
	return DaySchedule{}, false
}

// Location resolves the provider's zone, falling back to fallback (or UTC) when
// unset or unknown.
func (h *OperatingHours) Location(fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if h == nil || h.TimeZone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		return fallback
	}
	return loc
}
