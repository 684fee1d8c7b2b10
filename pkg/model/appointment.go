package model

import "time"

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusInProgress  AppointmentStatus = "in_progress"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusMissed      AppointmentStatus = "missed"
)

// ActiveStatuses are the statuses that occupy a provider's time and take part
// in conflict checks.
var ActiveStatuses = []AppointmentStatus{
	StatusPending,
	StatusScheduled,
	StatusRescheduled,
	StatusInProgress,
}

// IsTerminal reports whether the status no longer participates in conflict checks.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusRescheduled, StatusMissed:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentOnline   AppointmentType = "online"
	AppointmentPhysical AppointmentType = "physical"
)

type Appointment struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty"`
	ProviderID      string            `json:"provider_id" bson:"provider_id"`
	PatientID       string            `json:"patient_id" bson:"patient_id"`
	AppointmentDate time.Time         `json:"appointment_date" bson:"appointment_date"`
	DurationMinutes int               `json:"duration_minutes" bson:"duration_minutes"`
	Type            AppointmentType   `json:"type" bson:"type"`
	Status          AppointmentStatus `json:"status" bson:"status"`
	CancelReason    string            `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

func (a *Appointment) End() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether [start, end) intersects the appointment's interval.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return Overlaps(a.AppointmentDate, a.End(), start, end)
}

// Overlaps reports whether the half-open intervals [start1, end1) and [start2, end2) intersect.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}
