package service

import (
	"context"
	"errors"
	"slices"

	operatinghourserrors "medslot/internal/operatinghours/errors"
	"medslot/internal/operatinghours/repository"
	"medslot/internal/operatinghours/validator"
	"medslot/pkg/config"
	apperrors "medslot/pkg/errors"
	"medslot/pkg/model"
)

type OperatingHoursService interface {
	Get(ctx context.Context, providerID string) (*model.OperatingHours, error)
	Replace(ctx context.Context, providerID string, hours *model.OperatingHours) error
}

type operatingHoursService struct {
	repo      repository.OperatingHoursRepository
	validator *validator.OperatingHoursValidator
	cfg       *config.Config
}

func NewOperatingHoursService(
	repo repository.OperatingHoursRepository,
	validator *validator.OperatingHoursValidator,
	cfg *config.Config,
) OperatingHoursService {
	return &operatingHoursService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *operatingHoursService) Get(ctx context.Context, providerID string) (*model.OperatingHours, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	hours, err := s.repo.FindByProviderID(ctx, providerID)
	if err != nil {
		if errors.Is(err, operatinghourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Operating hours", providerID)
		}
		s.cfg.Log.Error("Failed to load operating hours", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve operating hours", err)
	}
	return hours, nil
}

// Replace validates and stores the provider's whole weekly schedule.
func (s *operatingHoursService) Replace(ctx context.Context, providerID string, hours *model.OperatingHours) error {
	if providerID == "" {
		return apperrors.InvalidInput("Provider ID cannot be empty")
	}
	if hours.ProviderID != "" && hours.ProviderID != providerID {
		return apperrors.InvalidInput("provider_id in body does not match the path")
	}
	hours.ProviderID = providerID

	s.applyDefaults(hours)
	if err := s.validator.Validate(hours); err != nil {
		s.cfg.Log.Warn("Operating hours validation failed", "provider_id", providerID, "error", err)
		return apperrors.Validation("Operating hours validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Upsert(ctx, hours); err != nil {
		s.cfg.Log.Error("Failed to store operating hours", "provider_id", providerID, "error", err)
		return apperrors.Internal("Failed to store operating hours", err)
	}

	s.cfg.Log.Info("Operating hours replaced",
		"provider_id", providerID,
		"provider_type", hours.ProviderType,
		"time_zone", hours.TimeZone,
	)
	return nil
}

func (s *operatingHoursService) applyDefaults(h *model.OperatingHours) {
	if h.ProviderType == "" {
		h.ProviderType = model.ProviderDoctor
	}
	if h.ConsultationDurationMinutes == 0 {
		h.ConsultationDurationMinutes = s.cfg.DefaultConsultationDurationMin
	}
	if h.TimeZone == "" {
		h.TimeZone = s.cfg.DefaultTimeZone
	}
	slices.SortStableFunc(h.Schedule, func(a, b model.DaySchedule) int {
		return weekdayIndex(a.Day) - weekdayIndex(b.Day)
	})
}

func weekdayIndex(d model.Weekday) int {
	if i := slices.Index(model.Weekdays[:], d); i >= 0 {
		return i
	}
	return len(model.Weekdays)
}
