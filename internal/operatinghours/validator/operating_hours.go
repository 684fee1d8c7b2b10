package validator

import (
	"errors"
	"fmt"
	"strings"

	"medslot/pkg/logger"
	"medslot/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type OperatingHoursValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewOperatingHoursValidator(log *logger.Logger) *OperatingHoursValidator {
	v := validator.New()

	if err := v.RegisterValidation("weekday", validateWeekday); err != nil {
		log.Fatal("Failed to register 'weekday' validator", "error", err)
	}
	if err := v.RegisterValidation("time_of_day", validateTimeOfDay); err != nil {
		log.Fatal("Failed to register 'time_of_day' validator", "error", err)
	}
	v.RegisterStructValidation(validateDaySchedule, model.DaySchedule{})

	log.Debug("Operating hours validator initialized successfully")

	return &OperatingHoursValidator{
		validate: v,
		logger:   log,
	}
}

func validateWeekday(fl validator.FieldLevel) bool {
	return model.Weekday(fl.Field().String()).Valid()
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	return model.TimeOfDay(fl.Field().String()).Valid()
}

// validateDaySchedule requires both bounds on open days and opening < closing.
func validateDaySchedule(sl validator.StructLevel) {
	ds := sl.Current().Interface().(model.DaySchedule)
	if !ds.IsOpen {
		return
	}
	if ds.Opening == "" {
		sl.ReportError(ds.Opening, "Opening", "opening", "required_if", "")
	}
	if ds.Closing == "" {
		sl.ReportError(ds.Closing, "Closing", "closing", "required_if", "")
	}
	opening, err1 := ds.Opening.Minutes()
	closing, err2 := ds.Closing.Minutes()
	if err1 != nil || err2 != nil {
		return
	}
	if opening >= closing {
		sl.ReportError(ds.Closing, "Closing", "closing", "after_opening", string(ds.Opening))
	}
}

func (v *OperatingHoursValidator) Validate(hours *model.OperatingHours) error {
	if err := v.validate.Struct(hours); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *OperatingHoursValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "required_if":
			message = fmt.Sprintf("%s is required on open days", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must contain exactly %s entries, one per weekday", err.Field(), err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not repeat a weekday", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "weekday":
			message = "day must be a weekday name (sunday-saturday)"
		case "time_of_day":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "after_opening":
			message = fmt.Sprintf("closing must be after opening (%s)", err.Param())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA time zone", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace(),
			Message: message,
		})
	}

	return validationErrors
}
