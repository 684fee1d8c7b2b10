// Package lifecycle holds the appointment status state machine.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	apperrors "medslot/pkg/errors"
	"medslot/pkg/model"
)

type Event string

const (
	EventConfirm    Event = "confirm"
	EventStart      Event = "start"
	EventComplete   Event = "complete"
	EventCancel     Event = "cancel"
	EventReschedule Event = "reschedule"
	EventMiss       Event = "miss"
)

var transitions = map[model.AppointmentStatus]map[Event]model.AppointmentStatus{
	model.StatusPending: {
		EventConfirm:    model.StatusScheduled,
		EventCancel:     model.StatusCancelled,
		EventReschedule: model.StatusRescheduled,
	},
	model.StatusScheduled: {
		EventStart:      model.StatusInProgress,
		EventCancel:     model.StatusCancelled,
		EventReschedule: model.StatusRescheduled,
		EventMiss:       model.StatusMissed,
	},
	model.StatusInProgress: {
		EventComplete:   model.StatusCompleted,
		EventReschedule: model.StatusRescheduled,
	},
}

// ParseEvent normalizes case and whitespace.
func ParseEvent(s string) (Event, error) {
	e := Event(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case EventConfirm, EventStart, EventComplete, EventCancel, EventReschedule, EventMiss:
		return e, nil
	}
	return "", fmt.Errorf("unknown event %q", s)
}

// Next returns the status reached by applying event to from. Illegal
// combinations return an INVALID_TRANSITION error.
func Next(from model.AppointmentStatus, event Event) (model.AppointmentStatus, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return "", apperrors.InvalidTransition(string(from), string(event))
}

// Apply is Next with the time-dependent guards that need the appointment
// itself: a no-show can only be recorded once the appointment has ended.
func Apply(a *model.Appointment, event Event, now time.Time) (model.AppointmentStatus, error) {
	to, err := Next(a.Status, event)
	if err != nil {
		return "", err
	}
	if event == EventMiss && now.Before(a.End()) {
		return "", apperrors.InvalidTransition(string(a.Status), string(event)).
			WithDetails(map[string]any{
				"status": string(a.Status),
				"event":  string(event),
				"reason": "appointment has not ended yet",
			})
	}
	return to, nil
}

// Allowed lists the events accepted in status, in a stable order.
func Allowed(status model.AppointmentStatus) []Event {
	var events []Event
	for _, e := range []Event{EventConfirm, EventStart, EventComplete, EventCancel, EventReschedule, EventMiss} {
		if _, ok := transitions[status][e]; ok {
			events = append(events, e)
		}
	}
	return events
}

// CanReschedule reports whether the appointment may be moved to a new instant.
// A record already marked rescheduled may be moved again.
func CanReschedule(status model.AppointmentStatus) bool {
	if status == model.StatusRescheduled {
		return true
	}
	_, ok := transitions[status][EventReschedule]
	return ok
}
