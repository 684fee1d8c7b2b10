package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "medslot/internal/appointments/errors"
	"medslot/internal/appointments/lifecycle"
	apperrors "medslot/pkg/errors"
)

type RescheduleValidator struct {
	conflicts *ConflictValidator
}

func NewRescheduleValidator(conflicts *ConflictValidator) *RescheduleValidator {
	return &RescheduleValidator{conflicts: conflicts}
}

// ValidateReschedule checks that appointmentID may move to newInstant. The
// appointment's own current slot is excluded from the overlap check.
//
// requestingUserID is not authorized here; ownership checks belong to the
// caller.
func (v *RescheduleValidator) ValidateReschedule(ctx context.Context, appointmentID string, newInstant time.Time, requestingUserID string) (Result, error) {
	if res := v.conflicts.checkNotPast(newInstant); !res.Valid {
		return res, nil
	}

	existing, err := v.conflicts.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) || errors.Is(err, appointmentserrors.ErrInvalidID) {
			return reject(apperrors.CodeNotFound, fmt.Sprintf("appointment %s not found", appointmentID)), nil
		}
		v.conflicts.log.Error("Failed to load appointment", "id", appointmentID, "error", err)
		return Result{}, apperrors.Internal("Failed to load appointment", err)
	}

	if !lifecycle.CanReschedule(existing.Status) {
		return reject(apperrors.CodeInvalidTransition,
			fmt.Sprintf("appointment in status %q cannot be rescheduled", existing.Status)), nil
	}

	v.conflicts.log.Debug("Validating reschedule",
		"id", appointmentID,
		"provider_id", existing.ProviderID,
		"requested_by", requestingUserID,
		"new_instant", newInstant,
	)
	return v.conflicts.ValidateSlot(ctx, existing.ProviderID, newInstant, existing.DurationMinutes, appointmentID)
}
