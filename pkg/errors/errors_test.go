package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if errors.Unwrap(wrapped) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "appointment not found"},
			expected: "NOT_FOUND: appointment not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("server selection timeout"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: server selection timeout)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFromCode_StatusMapping(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{CodePastDate, http.StatusUnprocessableEntity},
		{CodeOutsideHours, http.StatusUnprocessableEntity},
		{CodeDoctorUnavailable, http.StatusUnprocessableEntity},
		{CodeInvalidDuration, http.StatusUnprocessableEntity},
		{CodeConflict, http.StatusConflict},
		{CodeInvalidTransition, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := FromCode(tt.code, "msg")
			if err.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), tt.status)
			}
		})
	}
}

func TestStatusCode_FallsBackToCode(t *testing.T) {
	err := &AppError{Code: CodeRateLimited, Message: "slow down"}
	if err.StatusCode() != http.StatusTooManyRequests {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusTooManyRequests)
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Appointment", "65f0c0ffee")

	if err.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, err.Code)
	}
	if err.Message != "Appointment not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "65f0c0ffee" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("completed", "cancel")

	if err.Code != CodeInvalidTransition {
		t.Errorf("expected code %s, got %s", CodeInvalidTransition, err.Code)
	}
	if err.Details["status"] != "completed" || err.Details["event"] != "cancel" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited(42)

	if err.HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, err.HTTPStatus)
	}
	if err.Details["reset_in_seconds"] != int64(42) {
		t.Errorf("expected reset detail 42, got %v", err.Details["reset_in_seconds"])
	}
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	base := Conflict("slot taken")
	wrapped := fmt.Errorf("booking: %w", base)

	if !HasCode(wrapped, CodeConflict) {
		t.Error("HasCode() should see through fmt wrapping")
	}
	if HasCode(wrapped, CodePastDate) {
		t.Error("HasCode() matched the wrong code")
	}
	if !IsAppError(wrapped) {
		t.Error("IsAppError() should see through fmt wrapping")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Appointment")
	regularErr := errors.New("regular error")

	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(FromCode(CodeDoctorUnavailable, "provider is closed on sunday").ToJSON())

	if !strings.Contains(body, `"code":"DOCTOR_UNAVAILABLE"`) {
		t.Errorf("ToJSON() should contain error code, got %s", body)
	}
	if !strings.Contains(body, "closed on sunday") {
		t.Errorf("ToJSON() should contain error message, got %s", body)
	}
}
