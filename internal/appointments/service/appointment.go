package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appointmentserrors "medslot/internal/appointments/errors"
	"medslot/internal/appointments/events"
	"medslot/internal/appointments/lifecycle"
	"medslot/internal/appointments/repository"
	"medslot/internal/appointments/validator"
	"medslot/internal/availability/slots"
	operatinghourserrors "medslot/internal/operatinghours/errors"
	"medslot/pkg/config"
	apperrors "medslot/pkg/errors"
	"medslot/pkg/model"
	"medslot/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const dateLayout = "2006-01-02"

type AppointmentService interface {
	Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	Search(ctx context.Context, providerID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Appointment, int64, error)
	ListSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error)
	ValidateSlot(ctx context.Context, providerID string, req *model.SlotValidationRequest) (validator.Result, error)
	ValidateReschedule(ctx context.Context, id string, req *model.RescheduleRequest) (validator.Result, error)
	Reschedule(ctx context.Context, id string, req *model.RescheduleRequest) (*model.Appointment, error)
	Transition(ctx context.Context, id string, req *model.TransitionRequest) (*model.Appointment, error)
}

type appointmentService struct {
	repo        repository.AppointmentRepository
	lockRepo    repository.AppointmentLockRepository
	hours       validator.HoursFinder
	conflicts   *validator.ConflictValidator
	reschedules *validator.RescheduleValidator
	requests    *validator.RequestValidator
	publisher   events.Publisher
	cfg         *config.Config
	defaultLoc  *time.Location
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.AppointmentLockRepository,
	hours validator.HoursFinder,
	conflicts *validator.ConflictValidator,
	reschedules *validator.RescheduleValidator,
	requests *validator.RequestValidator,
	publisher events.Publisher,
	cfg *config.Config,
) AppointmentService {
	loc, err := time.LoadLocation(cfg.DefaultTimeZone)
	if err != nil {
		loc = time.UTC
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &appointmentService{
		repo:        repo,
		lockRepo:    lockRepo,
		hours:       hours,
		conflicts:   conflicts,
		reschedules: reschedules,
		requests:    requests,
		publisher:   publisher,
		cfg:         cfg,
		defaultLoc:  loc,
	}
}

func (s *appointmentService) Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error) {
	sanitizeBookingRequest(req)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	duration, err := s.resolveDuration(ctx, req.ProviderID, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		ProviderID:      req.ProviderID,
		PatientID:       req.PatientID,
		AppointmentDate: req.AppointmentDate.UTC(),
		DurationMinutes: duration,
		Type:            req.Type,
		Status:          model.StatusPending,
	}
	if req.Confirmed {
		appointment.Status = model.StatusScheduled
	}

	release, err := s.acquireProviderLock(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := s.conflicts.ValidateSlot(sessCtx, appointment.ProviderID, appointment.AppointmentDate, appointment.DurationMinutes, "")
		if err != nil {
			return err
		}
		if !res.Valid {
			return res.Err()
		}
		if err := s.repo.Create(sessCtx, appointment); err != nil {
			return mapWriteError(err, "Failed to create appointment")
		}
		return nil
	})
	if err != nil {
		s.logOutcome("Appointment booking rejected", err,
			"provider_id", req.ProviderID,
			"patient_id", req.PatientID,
			"appointment_date", appointment.AppointmentDate,
		)
		return nil, err
	}

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appointment.ID,
		"provider_id", appointment.ProviderID,
		"appointment_date", appointment.AppointmentDate,
		"status", appointment.Status,
	)
	s.publish(ctx, events.Event{Type: events.TypeCreated, Appointment: *appointment})
	return appointment, nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, id)
	}
	return appointment, nil
}

func (s *appointmentService) Search(ctx context.Context, providerID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if providerID == "" {
		return nil, 0, apperrors.InvalidInput("provider_id is required")
	}
	if startTime != nil && endTime != nil && !startTime.Before(*endTime) {
		return nil, 0, apperrors.InvalidInput("start_time must be before end_time")
	}

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByProvider(ctx, providerID, startTime, endTime)
		if err != nil {
			s.cfg.Log.Error("Failed to count appointments", "provider_id", providerID, "error", err)
			errCount = apperrors.Internal("Failed to count appointments", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		appointments, err = s.repo.FindByProvider(ctx, providerID, startTime, endTime, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search appointments",
				"provider_id", providerID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search appointments", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Appointment search completed",
		"provider_id", providerID,
		"count", len(appointments),
		"total_count", count,
	)
	return appointments, count, nil
}

// ListSlots returns the provider's slots on date (YYYY-MM-DD, read in the
// provider's zone). Closed days yield no slots.
func (s *appointmentService) ListSlots(ctx context.Context, providerID, date string) ([]model.TimeSlot, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("provider_id is required")
	}

	hours, err := s.providerHours(ctx, providerID)
	if err != nil {
		return nil, err
	}

	loc := hours.Location(s.defaultLoc)
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("date must be formatted as %s", dateLayout))
	}

	schedule, ok := hours.Day(model.WeekdayOf(day.Weekday()))
	if !ok || !schedule.IsOpen {
		return []model.TimeSlot{}, nil
	}

	booked, err := s.repo.FindActiveByProvider(ctx, providerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		s.cfg.Log.Error("Failed to load booked appointments", "provider_id", providerID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to load appointments", err)
	}

	starts := make([]time.Time, 0, len(booked))
	occupied := make([]model.Appointment, 0, len(booked))
	for _, a := range booked {
		starts = append(starts, a.AppointmentDate)
		occupied = append(occupied, *a)
	}

	seq, err := slots.Generate(day, schedule.Opening, schedule.Closing, hours.ConsultationDurationMinutes, starts)
	if err != nil {
		s.cfg.Log.Error("Stored operating hours are unusable", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to generate slots", err)
	}

	return slots.Collect(slots.BlockStarted(slots.BlockOverlapping(seq, occupied), s.conflicts.Now())), nil
}

func (s *appointmentService) ValidateSlot(ctx context.Context, providerID string, req *model.SlotValidationRequest) (validator.Result, error) {
	if providerID == "" {
		return validator.Result{}, apperrors.InvalidInput("provider_id is required")
	}
	if err := s.validateRequest(req); err != nil {
		return validator.Result{}, err
	}

	duration, err := s.resolveDuration(ctx, providerID, req.DurationMinutes)
	if err != nil {
		return validator.Result{}, err
	}

	return s.conflicts.ValidateSlot(ctx, providerID, req.AppointmentDate.UTC(), duration, req.ExcludeAppointmentID)
}

func (s *appointmentService) ValidateReschedule(ctx context.Context, id string, req *model.RescheduleRequest) (validator.Result, error) {
	req.RequestedBy = sanitizer.SanitizeIdentifier(req.RequestedBy)
	if err := s.validateRequest(req); err != nil {
		return validator.Result{}, err
	}
	return s.reschedules.ValidateReschedule(ctx, id, req.AppointmentDate.UTC(), req.RequestedBy)
}

// Reschedule moves the appointment to a new instant. It is validated once
// without the lock to fail fast and again inside the transaction.
func (s *appointmentService) Reschedule(ctx context.Context, id string, req *model.RescheduleRequest) (*model.Appointment, error) {
	res, err := s.ValidateReschedule(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		s.cfg.Log.Warn("Reschedule rejected", "id", id, "code", res.Code, "reason", res.Message)
		return nil, res.Err()
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, id)
	}

	release, err := s.acquireProviderLock(ctx, existing.ProviderID)
	if err != nil {
		return nil, err
	}
	defer release()

	newDate := req.AppointmentDate.UTC()
	var updated model.Appointment
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := s.reschedules.ValidateReschedule(sessCtx, id, newDate, req.RequestedBy)
		if err != nil {
			return err
		}
		if !res.Valid {
			return res.Err()
		}

		current, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return mapLoadError(err, id)
		}
		if err := s.repo.Reschedule(sessCtx, id, current.Status, newDate); err != nil {
			return mapWriteError(err, "Failed to reschedule appointment")
		}

		updated = *current
		return nil
	})
	if err != nil {
		s.logOutcome("Appointment reschedule rejected", err, "id", id, "new_date", newDate)
		return nil, err
	}

	previousDate := updated.AppointmentDate
	previousStatus := updated.Status
	updated.AppointmentDate = newDate
	updated.Status = model.StatusScheduled
	updated.UpdatedAt = time.Now().UTC()

	s.cfg.Log.Info("Appointment rescheduled successfully",
		"id", id,
		"provider_id", updated.ProviderID,
		"previous_date", previousDate,
		"new_date", newDate,
		"requested_by", req.RequestedBy,
	)
	s.publish(ctx, events.Event{
		Type:           events.TypeRescheduled,
		Appointment:    updated,
		PreviousStatus: previousStatus,
		PreviousDate:   &previousDate,
		Trigger:        string(lifecycle.EventReschedule),
	})
	return &updated, nil
}

// Transition applies a lifecycle event. The write is conditional on the
// status the event was computed from.
func (s *appointmentService) Transition(ctx context.Context, id string, req *model.TransitionRequest) (*model.Appointment, error) {
	req.Event = sanitizer.SanitizeKeyword(req.Event)
	req.Reason = sanitizer.SanitizeText(req.Reason)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	event, err := lifecycle.ParseEvent(req.Event)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if event == lifecycle.EventReschedule {
		return nil, apperrors.InvalidInput("use the reschedule endpoint to move an appointment")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, id)
	}

	next, err := lifecycle.Apply(existing, event, s.conflicts.Now())
	if err != nil {
		s.cfg.Log.Warn("Transition rejected", "id", id, "status", existing.Status, "event", event)
		return nil, err
	}

	reason := ""
	if event == lifecycle.EventCancel {
		reason = req.Reason
	}

	if err := s.repo.UpdateStatus(ctx, id, existing.Status, next, reason); err != nil {
		mapped := mapWriteError(err, "Failed to update appointment status")
		s.logOutcome("Transition failed", mapped, "id", id, "event", event)
		return nil, mapped
	}

	previous := existing.Status
	updated := *existing
	updated.Status = next
	if reason != "" {
		updated.CancelReason = reason
	}
	updated.UpdatedAt = time.Now().UTC()

	s.cfg.Log.Info("Appointment status changed",
		"id", id,
		"provider_id", updated.ProviderID,
		"from", previous,
		"to", next,
		"event", event,
	)
	s.publish(ctx, events.Event{
		Type:           events.TypeFor(string(event)),
		Appointment:    updated,
		PreviousStatus: previous,
		Trigger:        string(event),
	})
	return &updated, nil
}

// --- Helpers ---

func sanitizeBookingRequest(req *model.BookingRequest) {
	req.ProviderID = sanitizer.SanitizeIdentifier(req.ProviderID)
	req.PatientID = sanitizer.SanitizeIdentifier(req.PatientID)
	req.Type = model.AppointmentType(sanitizer.SanitizeKeyword(string(req.Type)))
}

func (s *appointmentService) validateRequest(req any) error {
	if err := s.requests.Validate(req); err != nil {
		s.cfg.Log.Warn("Appointment request validation failed", "error", err)
		return apperrors.Validation("Request validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// resolveDuration falls back to the provider's consultation length, then to
// the configured default.
func (s *appointmentService) resolveDuration(ctx context.Context, providerID string, requested int) (int, error) {
	if requested != 0 {
		return requested, nil
	}

	hours, err := s.hours.FindByProviderID(ctx, providerID)
	if err != nil {
		if errors.Is(err, operatinghourserrors.ErrNotFound) {
			return s.cfg.DefaultConsultationDurationMin, nil
		}
		s.cfg.Log.Error("Failed to load operating hours", "provider_id", providerID, "error", err)
		return 0, apperrors.Internal("Failed to load operating hours", err)
	}
	if hours.ConsultationDurationMinutes > 0 {
		return hours.ConsultationDurationMinutes, nil
	}
	return s.cfg.DefaultConsultationDurationMin, nil
}

// providerHours returns the stored hours, or the configured default day on
// every weekday for providers that never set any.
func (s *appointmentService) providerHours(ctx context.Context, providerID string) (*model.OperatingHours, error) {
	hours, err := s.hours.FindByProviderID(ctx, providerID)
	if err == nil {
		if hours.ConsultationDurationMinutes <= 0 {
			hours.ConsultationDurationMinutes = s.cfg.DefaultConsultationDurationMin
		}
		return hours, nil
	}
	if !errors.Is(err, operatinghourserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to load operating hours", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to load operating hours", err)
	}

	schedule := make([]model.DaySchedule, 0, len(model.Weekdays))
	for _, day := range model.Weekdays {
		schedule = append(schedule, model.DaySchedule{
			Day:     day,
			Opening: model.TimeOfDay(s.cfg.DefaultStartOfDay),
			Closing: model.TimeOfDay(s.cfg.DefaultEndOfDay),
			IsOpen:  true,
		})
	}
	return &model.OperatingHours{
		ProviderID:                  providerID,
		ProviderType:                model.ProviderDoctor,
		Schedule:                    schedule,
		ConsultationDurationMinutes: s.cfg.DefaultConsultationDurationMin,
		TimeZone:                    s.defaultLoc.String(),
	}, nil
}

// acquireProviderLock takes the provider's advisory lock, retrying with
// linear backoff while another request holds it. The returned func releases
// the lock.
func (s *appointmentService) acquireProviderLock(ctx context.Context, providerID string) (func(), error) {
	lock := &model.AppointmentLock{
		ID:    fmt.Sprintf("appointment_lock_%s", providerID),
		Owner: uuid.NewString(),
	}

	for attempt := 0; ; attempt++ {
		lock.ExpiresAt = time.Now().UTC().Add(s.cfg.BookingLockTTL)
		err := s.lockRepo.Acquire(ctx, lock)
		if err == nil {
			break
		}
		if !errors.Is(err, appointmentserrors.ErrLockBusy) {
			s.cfg.Log.Error("Failed to acquire provider lock", "provider_id", providerID, "error", err)
			return nil, apperrors.Internal("Failed to acquire provider lock", err)
		}
		if attempt >= s.cfg.BookingLockRetries {
			s.cfg.Log.Warn("Provider lock busy", "provider_id", providerID, "attempts", attempt+1)
			return nil, apperrors.Conflict("This provider's schedule is being updated by another request. Please try again.")
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.Timeout("Timed out waiting for provider lock")
		case <-time.After(s.cfg.BookingLockBackoff * time.Duration(attempt+1)):
		}
	}

	return func() {
		// The request context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		defer cancel()
		if err := s.lockRepo.Release(releaseCtx, lock.ID, lock.Owner); err != nil {
			s.cfg.Log.Warn("Failed to release provider lock", "lock_id", lock.ID, "error", err)
		}
	}, nil
}

func (s *appointmentService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish appointment event",
			"type", event.Type,
			"id", event.Appointment.ID,
			"error", err,
		)
	}
}

// logOutcome logs expected rejections at warn and faults at error.
func (s *appointmentService) logOutcome(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.AsAppError(err).StatusCode() >= 500 {
		s.cfg.Log.Error(msg, args...)
		return
	}
	s.cfg.Log.Warn(msg, args...)
}

func mapLoadError(err error, id string) error {
	if errors.Is(err, appointmentserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Appointment", id)
	}
	if errors.Is(err, appointmentserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid appointment ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to retrieve appointment", err)
}

func mapWriteError(err error, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, appointmentserrors.ErrSlotTaken):
		return apperrors.Conflict("The requested time slot is already booked")
	case errors.Is(err, appointmentserrors.ErrStatusChanged):
		return apperrors.Conflict("The appointment was modified by another request. Please reload and retry.")
	case errors.Is(err, appointmentserrors.ErrNotFound):
		return apperrors.NotFound("Appointment")
	}
	return apperrors.Internal(message, err)
}
