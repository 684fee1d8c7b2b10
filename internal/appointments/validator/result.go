package validator

import (
	apperrors "medslot/pkg/errors"
)

// Result is the outcome of a slot or reschedule check. Expected rejections
// are reported here rather than as errors; the error return of a validator is
// reserved for infrastructure faults.
type Result struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func valid() Result {
	return Result{Valid: true}
}

func reject(code, message string) Result {
	return Result{Code: code, Message: message}
}

// Err converts a rejection into an AppError; it is nil for a valid result.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return apperrors.FromCode(r.Code, r.Message)
}
