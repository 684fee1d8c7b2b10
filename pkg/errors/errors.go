package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"

	CodePastDate          = "PAST_DATE"
	CodeOutsideHours      = "OUTSIDE_HOURS"
	CodeDoctorUnavailable = "DOCTOR_UNAVAILABLE"
	CodeInvalidDuration   = "INVALID_DURATION"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeRateLimited       = "RATE_LIMITED"
)

// statusByCode maps engine codes onto the HTTP status a handler should answer with.
var statusByCode = map[string]int{
	CodeNotFound:          http.StatusNotFound,
	CodeValidation:        http.StatusUnprocessableEntity,
	CodeConflict:          http.StatusConflict,
	CodeInternal:          http.StatusInternalServerError,
	CodeBadRequest:        http.StatusBadRequest,
	CodeTimeout:           http.StatusGatewayTimeout,
	CodeUnavailable:       http.StatusServiceUnavailable,
	CodeInvalidInput:      http.StatusBadRequest,
	CodePastDate:          http.StatusUnprocessableEntity,
	CodeOutsideHours:      http.StatusUnprocessableEntity,
	CodeDoctorUnavailable: http.StatusUnprocessableEntity,
	CodeInvalidDuration:   http.StatusUnprocessableEntity,
	CodeInvalidTransition: http.StatusConflict,
	CodeRateLimited:       http.StatusTooManyRequests,
}

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return StatusForCode(e.Code)
	}
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusForCode returns the HTTP status associated with an error code,
// defaulting to 500 for unknown codes.
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// FromCode builds an AppError for one of the engine codes using its default status.
func FromCode(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: StatusForCode(code),
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return FromCode(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return FromCode(CodeValidation, message).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return FromCode(CodeInvalidInput, message)
}

func Conflict(message string) *AppError {
	return FromCode(CodeConflict, message)
}

func InvalidTransition(from, event string) *AppError {
	return FromCode(CodeInvalidTransition, fmt.Sprintf("cannot apply %q to an appointment in status %q", event, from)).
		WithDetails(map[string]any{"status": from, "event": event})
}

func RateLimited(retryAfterSeconds int64) *AppError {
	return FromCode(CodeRateLimited, "Rate limit exceeded").
		WithDetails(map[string]any{"reset_in_seconds": retryAfterSeconds})
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return FromCode(CodeTimeout, message)
}

func Unavailable(service string) *AppError {
	return FromCode(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
