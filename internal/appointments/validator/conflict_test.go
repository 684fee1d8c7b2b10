package validator

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	appointmentserrors "medslot/internal/appointments/errors"
	operatinghourserrors "medslot/internal/operatinghours/errors"
	apperrors "medslot/pkg/errors"
	"medslot/pkg/logger"
	"medslot/pkg/model"
)

type mockAppointmentFinder struct {
	findOverlappingFunc func(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error)
	findByIDFunc        func(ctx context.Context, id string) (*model.Appointment, error)
}

func (m *mockAppointmentFinder) FindOverlapping(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, providerID, start, end, excludeID)
	}
	return nil, nil
}

func (m *mockAppointmentFinder) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, appointmentserrors.ErrNotFound
}

type mockHoursFinder struct {
	findByProviderIDFunc func(ctx context.Context, providerID string) (*model.OperatingHours, error)
}

func (m *mockHoursFinder) FindByProviderID(ctx context.Context, providerID string) (*model.OperatingHours, error) {
	if m.findByProviderIDFunc != nil {
		return m.findByProviderIDFunc(ctx, providerID)
	}
	return nil, operatinghourserrors.ErrNotFound
}

// memoryAppointments filters a fixed set the way the Mongo repository does:
// active statuses only, half-open overlap, excluding one id.
func memoryAppointments(appointments ...*model.Appointment) *mockAppointmentFinder {
	return &mockAppointmentFinder{
		findOverlappingFunc: func(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error) {
			var out []*model.Appointment
			for _, a := range appointments {
				if a.ProviderID != providerID || a.ID == excludeID || a.Status.IsTerminal() {
					continue
				}
				if a.Overlaps(start, end) {
					out = append(out, a)
				}
			}
			return out, nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			for _, a := range appointments {
				if a.ID == id {
					return a, nil
				}
			}
			return nil, appointmentserrors.ErrNotFound
		},
	}
}

func weekdayHours() *model.OperatingHours {
	schedule := make([]model.DaySchedule, 0, 7)
	for _, d := range model.Weekdays {
		open := d != model.Sunday && d != model.Saturday
		schedule = append(schedule, model.DaySchedule{Day: d, Opening: "09:00", Closing: "17:00", IsOpen: open})
	}
	return &model.OperatingHours{
		ProviderID:                  "doc-1",
		ProviderType:                model.ProviderDoctor,
		Schedule:                    schedule,
		ConsultationDurationMinutes: 30,
		TimeZone:                    "UTC",
	}
}

func staticHours(h *model.OperatingHours) *mockHoursFinder {
	return &mockHoursFinder{
		findByProviderIDFunc: func(ctx context.Context, providerID string) (*model.OperatingHours, error) {
			return h, nil
		},
	}
}

// Monday 2030-01-07; "now" is the Friday before.
var (
	now    = time.Date(2030, time.January, 4, 12, 0, 0, 0, time.UTC)
	monday = time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)
	sunday = time.Date(2030, time.January, 6, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newValidator(appts AppointmentFinder, hours HoursFinder) *ConflictValidator {
	v := NewConflictValidator(appts, hours, logger.Discard(), time.UTC)
	v.Now = func() time.Time { return now }
	return v
}

func TestValidateSlot_ClosedDay(t *testing.T) {
	v := newValidator(memoryAppointments(), staticHours(weekdayHours()))

	res, err := v.ValidateSlot(context.Background(), "doc-1", at(sunday, 10, 0), 30, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid || res.Code != apperrors.CodeDoctorUnavailable {
		t.Errorf("got %+v, want DOCTOR_UNAVAILABLE", res)
	}
}

func TestValidateSlot_ConflictSymmetry(t *testing.T) {
	existing := &model.Appointment{
		ID:              "a1",
		ProviderID:      "doc-1",
		AppointmentDate: at(monday, 10, 0),
		DurationMinutes: 30,
		Status:          model.StatusScheduled,
	}
	v := newValidator(memoryAppointments(existing), staticHours(weekdayHours()))

	tests := []struct {
		name     string
		start    time.Time
		duration int
		conflict bool
	}{
		{"same start", at(monday, 10, 0), 30, true},
		{"starts inside", at(monday, 10, 15), 30, true},
		{"ends inside", at(monday, 9, 45), 30, true},
		{"wraps around", at(monday, 9, 30), 90, true},
		{"inside", at(monday, 10, 10), 10, true},
		{"ends at start", at(monday, 9, 30), 30, false},
		{"starts at end", at(monday, 10, 30), 30, false},
		{"far away", at(monday, 14, 0), 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateSlot(context.Background(), "doc-1", tt.start, tt.duration, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.conflict {
				if res.Valid || res.Code != apperrors.CodeConflict {
					t.Errorf("got %+v, want CONFLICT", res)
				}
			} else if !res.Valid {
				t.Errorf("got %+v, want valid", res)
			}
		})
	}
}

func TestValidateSlot_TerminalStatusesNeverConflict(t *testing.T) {
	var appts []*model.Appointment
	for i, s := range []model.AppointmentStatus{model.StatusCompleted, model.StatusCancelled, model.StatusMissed} {
		appts = append(appts, &model.Appointment{
			ID:              string(rune('a' + i)),
			ProviderID:      "doc-1",
			AppointmentDate: at(monday, 10, 0),
			DurationMinutes: 30,
			Status:          s,
		})
	}
	v := newValidator(memoryAppointments(appts...), staticHours(weekdayHours()))

	res, err := v.ValidateSlot(context.Background(), "doc-1", at(monday, 10, 0), 30, "")
	if err != nil || !res.Valid {
		t.Errorf("got %+v, %v; want valid", res, err)
	}
}

func TestValidateSlot_Exclusion(t *testing.T) {
	existing := &model.Appointment{
		ID:              "a1",
		ProviderID:      "doc-1",
		AppointmentDate: at(monday, 10, 0),
		DurationMinutes: 30,
		Status:          model.StatusPending,
	}
	v := newValidator(memoryAppointments(existing), staticHours(weekdayHours()))

	res, _ := v.ValidateSlot(context.Background(), "doc-1", at(monday, 10, 15), 30, "a1")
	if !res.Valid {
		t.Errorf("excluded appointment should not conflict, got %+v", res)
	}
}

func TestValidateSlot_PastDate(t *testing.T) {
	v := newValidator(memoryAppointments(), staticHours(weekdayHours()))

	for _, proposed := range []time.Time{now, now.Add(-time.Minute), now.AddDate(-1, 0, 0)} {
		res, err := v.ValidateSlot(context.Background(), "doc-1", proposed, 30, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Code != apperrors.CodePastDate {
			t.Errorf("ValidateSlot(%s) = %+v, want PAST_DATE", proposed, res)
		}
	}
}

func TestValidateSlot_PastDateWinsOverConflict(t *testing.T) {
	called := false
	appts := &mockAppointmentFinder{
		findOverlappingFunc: func(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error) {
			called = true
			return []*model.Appointment{{ID: "x"}}, nil
		},
	}
	v := newValidator(appts, staticHours(weekdayHours()))

	res, _ := v.ValidateSlot(context.Background(), "doc-1", now.Add(-time.Hour), 30, "")
	if res.Code != apperrors.CodePastDate {
		t.Errorf("got %+v, want PAST_DATE", res)
	}
	if called {
		t.Error("store should not be queried for a past date")
	}
}

func TestValidateSlot_OutsideHours(t *testing.T) {
	v := newValidator(memoryAppointments(), staticHours(weekdayHours()))

	tests := []struct {
		name    string
		start   time.Time
		dur     int
		outside bool
	}{
		{"before opening", at(monday, 8, 30), 30, true},
		{"straddles opening", at(monday, 8, 45), 30, true},
		{"runs past closing", at(monday, 16, 45), 30, true},
		{"after closing", at(monday, 17, 0), 30, true},
		{"first slot", at(monday, 9, 0), 30, false},
		{"ends at closing", at(monday, 16, 30), 30, false},
		{"whole day", at(monday, 9, 0), 480, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := v.ValidateSlot(context.Background(), "doc-1", tt.start, tt.dur, "")
			if tt.outside && res.Code != apperrors.CodeOutsideHours {
				t.Errorf("got %+v, want OUTSIDE_HOURS", res)
			}
			if !tt.outside && !res.Valid {
				t.Errorf("got %+v, want valid", res)
			}
		})
	}
}

func TestValidateSlot_ProviderTimeZone(t *testing.T) {
	hours := weekdayHours()
	hours.TimeZone = "Etc/GMT-3" // UTC+3
	v := newValidator(memoryAppointments(), staticHours(hours))

	// 06:30 UTC is 09:30 local.
	res, _ := v.ValidateSlot(context.Background(), "doc-1", at(monday, 6, 30), 30, "")
	if !res.Valid {
		t.Errorf("got %+v, want valid in provider zone", res)
	}

	// 14:30 UTC is 17:30 local.
	res, _ = v.ValidateSlot(context.Background(), "doc-1", at(monday, 14, 30), 30, "")
	if res.Code != apperrors.CodeOutsideHours {
		t.Errorf("got %+v, want OUTSIDE_HOURS", res)
	}
}

func TestValidateSlot_NoHoursIsUnrestricted(t *testing.T) {
	v := newValidator(memoryAppointments(), &mockHoursFinder{})

	res, err := v.ValidateSlot(context.Background(), "doc-1", at(sunday, 3, 0), 30, "")
	if err != nil || !res.Valid {
		t.Errorf("got %+v, %v; want valid", res, err)
	}
}

func TestValidateSlot_InvalidDuration(t *testing.T) {
	v := newValidator(memoryAppointments(), staticHours(weekdayHours()))

	for _, d := range []int{-30, 0, 4, 481} {
		res, _ := v.ValidateSlot(context.Background(), "doc-1", at(monday, 10, 0), d, "")
		if res.Code != apperrors.CodeInvalidDuration {
			t.Errorf("duration %d: got %+v, want INVALID_DURATION", d, res)
		}
	}
}

func TestValidateSlot_PastDateWinsOverInvalidDuration(t *testing.T) {
	v := newValidator(memoryAppointments(), staticHours(weekdayHours()))
	v.Now = func() time.Time { return at(monday, 12, 0) }

	for _, d := range []int{1, 3, 500} {
		res, err := v.ValidateSlot(context.Background(), "doc-1", at(monday, 11, 0), d, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Code != apperrors.CodePastDate {
			t.Errorf("duration %d: got %+v, want PAST_DATE", d, res)
		}
	}
}

func TestValidateSlot_FailsClosed(t *testing.T) {
	storeDown := errors.New("no reachable servers")

	appts := &mockAppointmentFinder{
		findOverlappingFunc: func(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error) {
			return nil, storeDown
		},
	}
	v := newValidator(appts, staticHours(weekdayHours()))
	res, err := v.ValidateSlot(context.Background(), "doc-1", at(monday, 10, 0), 30, "")
	if err == nil || res.Valid {
		t.Errorf("appointment store failure must not validate, got %+v, %v", res, err)
	}
	if !errors.Is(err, storeDown) {
		t.Errorf("expected wrapped store error, got %v", err)
	}

	hours := &mockHoursFinder{
		findByProviderIDFunc: func(ctx context.Context, providerID string) (*model.OperatingHours, error) {
			return nil, storeDown
		},
	}
	v = newValidator(memoryAppointments(), hours)
	res, err = v.ValidateSlot(context.Background(), "doc-1", at(monday, 10, 0), 30, "")
	if err == nil || res.Valid {
		t.Errorf("hours store failure must not validate, got %+v, %v", res, err)
	}
}

func TestResult_Err(t *testing.T) {
	if valid().Err() != nil {
		t.Error("valid result should have no error")
	}
	err := reject(apperrors.CodeOutsideHours, "late").Err()
	if !apperrors.HasCode(err, apperrors.CodeOutsideHours) {
		t.Errorf("Err() = %v", err)
	}
}
