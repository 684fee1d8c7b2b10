// Package validator decides whether a proposed booking or reschedule may be
// accepted.
package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	operatinghourserrors "medslot/internal/operatinghours/errors"
	apperrors "medslot/pkg/errors"
	"medslot/pkg/logger"
	"medslot/pkg/model"
)

const (
	MinDurationMinutes = 5
	MaxDurationMinutes = 480
)

// AppointmentFinder reads a provider's appointments.
type AppointmentFinder interface {
	FindOverlapping(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error)
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
}

// HoursFinder reads a provider's operating hours.
type HoursFinder interface {
	FindByProviderID(ctx context.Context, providerID string) (*model.OperatingHours, error)
}

type ConflictValidator struct {
	appointments AppointmentFinder
	hours        HoursFinder
	log          *logger.Logger
	defaultLoc   *time.Location

	// Now is the clock used for past-date checks.
	Now func() time.Time
}

func NewConflictValidator(appointments AppointmentFinder, hours HoursFinder, log *logger.Logger, defaultLoc *time.Location) *ConflictValidator {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &ConflictValidator{
		appointments: appointments,
		hours:        hours,
		log:          log,
		defaultLoc:   defaultLoc,
		Now:          time.Now,
	}
}

// ValidateSlot checks a proposed appointment for providerID, in order:
// past date, duration range, overlap with active appointments (ignoring
// excludeID), then operating hours. The first failing check decides the
// result. A provider without configured hours is unrestricted.
//
// Store failures are returned as errors and never as a valid result.
func (v *ConflictValidator) ValidateSlot(ctx context.Context, providerID string, proposed time.Time, durationMinutes int, excludeID string) (Result, error) {
	if res := v.checkNotPast(proposed); !res.Valid {
		return res, nil
	}

	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return reject(apperrors.CodeInvalidDuration,
			fmt.Sprintf("duration must be between %d and %d minutes, got %d", MinDurationMinutes, MaxDurationMinutes, durationMinutes)), nil
	}

	end := proposed.Add(time.Duration(durationMinutes) * time.Minute)
	conflicts, err := v.appointments.FindOverlapping(ctx, providerID, proposed, end, excludeID)
	if err != nil {
		v.log.Error("Failed to load overlapping appointments", "provider_id", providerID, "error", err)
		return Result{}, apperrors.Internal("Failed to check existing appointments", err)
	}
	if len(conflicts) > 0 {
		c := conflicts[0]
		return reject(apperrors.CodeConflict, fmt.Sprintf("overlaps an existing appointment (%s - %s)",
			c.AppointmentDate.Format(time.RFC3339), c.End().Format(time.RFC3339))), nil
	}

	hours, err := v.hours.FindByProviderID(ctx, providerID)
	if err != nil {
		if errors.Is(err, operatinghourserrors.ErrNotFound) {
			v.log.Debug("No operating hours configured, skipping hours check", "provider_id", providerID)
			return valid(), nil
		}
		v.log.Error("Failed to load operating hours", "provider_id", providerID, "error", err)
		return Result{}, apperrors.Internal("Failed to load operating hours", err)
	}

	return checkHours(hours, hours.Location(v.defaultLoc), proposed, durationMinutes), nil
}

func (v *ConflictValidator) checkNotPast(proposed time.Time) Result {
	if !proposed.After(v.Now()) {
		return reject(apperrors.CodePastDate, "appointment time must be in the future")
	}
	return valid()
}

// checkHours requires the whole interval to sit inside the open window of the
// weekday it starts on, in the provider's zone.
func checkHours(hours *model.OperatingHours, loc *time.Location, proposed time.Time, durationMinutes int) Result {
	local := proposed.In(loc)
	day := model.WeekdayOf(local.Weekday())

	ds, ok := hours.Day(day)
	if !ok || !ds.IsOpen {
		return reject(apperrors.CodeDoctorUnavailable, fmt.Sprintf("provider is not available on %s", day))
	}

	openMin, err1 := ds.Opening.Minutes()
	closeMin, err2 := ds.Closing.Minutes()
	if err1 != nil || err2 != nil {
		return reject(apperrors.CodeDoctorUnavailable, fmt.Sprintf("provider has no valid hours on %s", day))
	}

	startSec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	endSec := startSec + durationMinutes*60
	if startSec < openMin*60 || endSec > closeMin*60 {
		return reject(apperrors.CodeOutsideHours, fmt.Sprintf("appointment must fall within %s-%s on %s", ds.Opening, ds.Closing, day))
	}
	return valid()
}
