package model

import "time"

// BookingRequest asks for a new appointment. DurationMinutes falls back to the
// provider's consultation duration when zero. Confirmed bookings start as
// scheduled instead of pending.
type BookingRequest struct {
	ProviderID      string          `json:"provider_id" validate:"required,min=1,max=64"`
	PatientID       string          `json:"patient_id" validate:"required,min=1,max=64"`
	AppointmentDate time.Time       `json:"appointment_date" validate:"required"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	Type            AppointmentType `json:"type" validate:"required,oneof=online physical"`
	Confirmed       bool            `json:"confirmed,omitempty"`
}

type SlotValidationRequest struct {
	AppointmentDate      time.Time `json:"appointment_date" validate:"required"`
	DurationMinutes      int       `json:"duration_minutes,omitempty"`
	ExcludeAppointmentID string    `json:"exclude_appointment_id,omitempty" validate:"omitempty,mongodb"`
}

type RescheduleRequest struct {
	AppointmentDate time.Time `json:"appointment_date" validate:"required"`
	RequestedBy     string    `json:"requested_by" validate:"required,min=1,max=64"`
}

type TransitionRequest struct {
	Event  string `json:"event" validate:"required,max=32"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
