package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	appointmentserrors "medslot/internal/appointments/errors"
	"medslot/internal/appointments/events"
	"medslot/internal/appointments/validator"
	operatinghourserrors "medslot/internal/operatinghours/errors"
	"medslot/pkg/config"
	mongotx "medslot/pkg/db/mongo"
	"medslot/pkg/logger"
	"medslot/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// Friday
	now    = time.Date(2030, 1, 4, 12, 0, 0, 0, time.UTC)
	monday = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

// mockAppointmentRepository keeps appointments in memory and filters them the
// way the Mongo repository does. Func fields override individual methods.
type mockAppointmentRepository struct {
	mu           sync.Mutex
	appointments map[string]*model.Appointment

	createFunc             func(ctx context.Context, appointment *model.Appointment) error
	findByProviderFunc     func(ctx context.Context, providerID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Appointment, error)
	countByProviderFunc    func(ctx context.Context, providerID string, startTime, endTime *time.Time) (int64, error)
	updateStatusFunc       func(ctx context.Context, id string, from, to model.AppointmentStatus, cancelReason string) error
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func newMockRepository(appointments ...*model.Appointment) *mockAppointmentRepository {
	m := &mockAppointmentRepository{appointments: map[string]*model.Appointment{}}
	for _, a := range appointments {
		m.appointments[a.ID] = a
	}
	return m
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appointment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	appointment.ID = primitive.NewObjectID().Hex()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	stored := *appointment
	m.appointments[appointment.ID] = &stored
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentserrors.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (m *mockAppointmentRepository) FindOverlapping(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for _, a := range m.appointments {
		if a.ProviderID != providerID || a.ID == excludeID || a.Status.IsTerminal() {
			continue
		}
		if a.Overlaps(start, end) {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepository) FindActiveByProvider(ctx context.Context, providerID string, start, end time.Time) ([]*model.Appointment, error) {
	return m.FindOverlapping(ctx, providerID, start, end, "")
}

func (m *mockAppointmentRepository) FindByProvider(ctx context.Context, providerID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Appointment, error) {
	if m.findByProviderFunc != nil {
		return m.findByProviderFunc(ctx, providerID, startTime, endTime, limit, offset)
	}
	return nil, nil
}

func (m *mockAppointmentRepository) CountByProvider(ctx context.Context, providerID string, startTime, endTime *time.Time) (int64, error) {
	if m.countByProviderFunc != nil {
		return m.countByProviderFunc(ctx, providerID, startTime, endTime)
	}
	return 0, nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus, cancelReason string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to, cancelReason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return appointmentserrors.ErrNotFound
	}
	if a.Status != from {
		return appointmentserrors.ErrStatusChanged
	}
	a.Status = to
	if cancelReason != "" {
		a.CancelReason = cancelReason
	}
	return nil
}

func (m *mockAppointmentRepository) Reschedule(ctx context.Context, id string, from model.AppointmentStatus, newDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return appointmentserrors.ErrNotFound
	}
	if a.Status != from {
		return appointmentserrors.ErrStatusChanged
	}
	a.AppointmentDate = newDate
	a.Status = model.StatusScheduled
	return nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

func (m *mockAppointmentRepository) get(id string) model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.appointments[id]
}

type mockLockRepository struct {
	mu          sync.Mutex
	acquireFunc func(ctx context.Context, lock *model.AppointmentLock) error
	acquired    int
	released    int
	lastLock    model.AppointmentLock
}

func (m *mockLockRepository) Acquire(ctx context.Context, lock *model.AppointmentLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLock = *lock
	if m.acquireFunc != nil {
		if err := m.acquireFunc(ctx, lock); err != nil {
			return err
		}
	}
	m.acquired++
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, lockID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
	return nil
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

func hoursFor(hours *model.OperatingHours) *mockHoursFinder {
	return &mockHoursFinder{
		findByProviderIDFunc: func(ctx context.Context, providerID string) (*model.OperatingHours, error) {
			out := *hours
			out.ProviderID = providerID
			return &out, nil
		},
	}
}

type recordingPublisher struct {
	mu         sync.Mutex
	events     []events.Event
	publishErr error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.publishErr
}

func (p *recordingPublisher) Close() error { return nil }

// weekdayHours opens Monday to Friday 09:00-17:00 with 30 minute consultations.
func weekdayHours() *model.OperatingHours {
	schedule := make([]model.DaySchedule, 0, len(model.Weekdays))
	for _, d := range model.Weekdays {
		open := d != model.Sunday && d != model.Saturday
		schedule = append(schedule, model.DaySchedule{Day: d, Opening: "09:00", Closing: "17:00", IsOpen: open})
	}
	return &model.OperatingHours{
		ProviderType:                model.ProviderDoctor,
		Schedule:                    schedule,
		ConsultationDurationMinutes: 30,
		TimeZone:                    "UTC",
	}
}

type fixture struct {
	svc       *appointmentService
	repo      *mockAppointmentRepository
	locks     *mockLockRepository
	publisher *recordingPublisher
}

func newFixture(repo *mockAppointmentRepository, hours *mockHoursFinder) *fixture {
	log := logger.Discard()
	cfg := &config.Config{
		Log:                            log,
		DefaultStartOfDay:              "09:00",
		DefaultEndOfDay:                "17:00",
		DefaultConsultationDurationMin: 30,
		DefaultTimeZone:                "UTC",
		BookingLockTTL:                 10 * time.Second,
		BookingLockRetries:             2,
		BookingLockBackoff:             time.Millisecond,
		WriteTimeout:                   time.Second,
	}

	conflicts := validator.NewConflictValidator(repo, hours, log, time.UTC)
	conflicts.Now = func() time.Time { return now }

	locks := &mockLockRepository{}
	publisher := &recordingPublisher{}
	svc := NewAppointmentService(
		repo,
		locks,
		hours,
		conflicts,
		validator.NewRescheduleValidator(conflicts),
		validator.NewRequestValidator(log),
		publisher,
		cfg,
	).(*appointmentService)

	return &fixture{svc: svc, repo: repo, locks: locks, publisher: publisher}
}

func appointmentAt(providerID string, start time.Time, minutes int, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		ID:              primitive.NewObjectID().Hex(),
		ProviderID:      providerID,
		PatientID:       "patient-1",
		AppointmentDate: start,
		DurationMinutes: minutes,
		Type:            model.AppointmentPhysical,
		Status:          status,
	}
}
