// Package slots turns a day's opening hours and existing bookings into the
// ordered sequence of offerable time slots.
package slots

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"medslot/pkg/model"
)

// Generate returns the slots of durationMinutes between opening and closing on
// date, in date's location. A slot whose start matches a booked instant to the
// minute is marked unavailable. The sequence is lazy and can be ranged over
// any number of times.
//
// An empty or inverted window yields an empty sequence, not an error.
func Generate(date time.Time, opening, closing model.TimeOfDay, durationMinutes int, booked []time.Time) (iter.Seq[model.TimeSlot], error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", durationMinutes)
	}
	openMin, err := opening.Minutes()
	if err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}
	closeMin, err := closing.Minutes()
	if err != nil {
		return nil, fmt.Errorf("closing: %w", err)
	}

	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[minuteKey(b)] = struct{}{}
	}

	// Bounds are resolved to instants once and slots step in absolute time,
	// so a DST change inside the window shortens or lengthens the day instead
	// of producing overlapping or empty slots.
	y, m, d := date.Date()
	loc := date.Location()
	open := time.Date(y, m, d, 0, openMin, 0, 0, loc)
	closeAt := time.Date(y, m, d, 0, closeMin, 0, 0, loc)
	step := time.Duration(durationMinutes) * time.Minute

	return func(yield func(model.TimeSlot) bool) {
		for s := open; !s.Add(step).After(closeAt); s = s.Add(step) {
			_, isTaken := taken[minuteKey(s)]
			if !yield(model.TimeSlot{Start: s, End: s.Add(step), Available: !isTaken}) {
				return
			}
		}
	}, nil
}

// Collect materializes a slot sequence.
func Collect(seq iter.Seq[model.TimeSlot]) []model.TimeSlot {
	if seq == nil {
		return nil
	}
	return slices.Collect(seq)
}

// BlockOverlapping marks unavailable every slot that intersects one of the
// given appointments. It catches bookings that started off-grid or run longer
// than one slot, which start-instant matching alone misses.
func BlockOverlapping(seq iter.Seq[model.TimeSlot], appointments []model.Appointment) iter.Seq[model.TimeSlot] {
	return func(yield func(model.TimeSlot) bool) {
		for slot := range seq {
			if slot.Available {
				for i := range appointments {
					if appointments[i].Overlaps(slot.Start, slot.End) {
						slot.Available = false
						break
					}
				}
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// BlockStarted marks unavailable every slot starting at or before now. Such
// slots can no longer be booked.
func BlockStarted(seq iter.Seq[model.TimeSlot], now time.Time) iter.Seq[model.TimeSlot] {
	return func(yield func(model.TimeSlot) bool) {
		for slot := range seq {
			if slot.Available && !slot.Start.After(now) {
				slot.Available = false
			}
			if !yield(slot) {
				return
			}
		}
	}
}

func minuteKey(t time.Time) int64 {
	return t.Unix() / 60
}
