package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "medslot/internal/appointments/errors"
	"medslot/pkg/config"
	mongotx "medslot/pkg/db/mongo"
	"medslot/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"

	// MaxDurationMinutes bounds how far before a window an overlapping
	// appointment can start, which keeps overlap queries on the
	// (provider_id, appointment_date) index.
	MaxDurationMinutes = 480
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindOverlapping(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error)
	FindActiveByProvider(ctx context.Context, providerID string, start, end time.Time) ([]*model.Appointment, error)
	FindByProvider(ctx context.Context, providerID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Appointment, error)
	CountByProvider(ctx context.Context, providerID string, startTime, endTime *time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus, cancelReason string) error
	Reschedule(ctx context.Context, id string, from model.AppointmentStatus, newDate time.Time) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// appointmentDocument is the stored form; ids are ObjectIDs on disk and hex
// strings in the model.
type appointmentDocument struct {
	ID              primitive.ObjectID      `bson:"_id,omitempty"`
	ProviderID      string                  `bson:"provider_id"`
	PatientID       string                  `bson:"patient_id"`
	AppointmentDate time.Time               `bson:"appointment_date"`
	DurationMinutes int                     `bson:"duration_minutes"`
	Type            model.AppointmentType   `bson:"type"`
	Status          model.AppointmentStatus `bson:"status"`
	CancelReason    string                  `bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time               `bson:"created_at"`
	UpdatedAt       time.Time               `bson:"updated_at"`
}

func toDocument(a *model.Appointment) appointmentDocument {
	return appointmentDocument{
		ProviderID:      a.ProviderID,
		PatientID:       a.PatientID,
		AppointmentDate: a.AppointmentDate,
		DurationMinutes: a.DurationMinutes,
		Type:            a.Type,
		Status:          a.Status,
		CancelReason:    a.CancelReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (d *appointmentDocument) toModel() *model.Appointment {
	return &model.Appointment{
		ID:              d.ID.Hex(),
		ProviderID:      d.ProviderID,
		PatientID:       d.PatientID,
		AppointmentDate: d.AppointmentDate.UTC(),
		DurationMinutes: d.DurationMinutes,
		Type:            d.Type,
		Status:          d.Status,
		CancelReason:    d.CancelReason,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, toDocument(appointment))
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", appointmentserrors.ErrSlotTaken, err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var doc appointmentDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return doc.toModel(), nil
}

// FindOverlapping returns the provider's active appointments whose interval
// intersects [start, end), skipping excludeID.
func (r *mongoAppointmentRepository) FindOverlapping(ctx context.Context, providerID string, start, end time.Time, excludeID string) ([]*model.Appointment, error) {
	filter := activeWindowFilter(providerID, start, end)
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	candidates, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "appointment_date", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var overlapping []*model.Appointment
	for _, a := range candidates {
		if a.Overlaps(start, end) {
			overlapping = append(overlapping, a)
		}
	}
	return overlapping, nil
}

// FindActiveByProvider returns every active appointment touching [start, end).
func (r *mongoAppointmentRepository) FindActiveByProvider(ctx context.Context, providerID string, start, end time.Time) ([]*model.Appointment, error) {
	return r.FindOverlapping(ctx, providerID, start, end, "")
}

func (r *mongoAppointmentRepository) FindByProvider(
	ctx context.Context,
	providerID string,
	startTime, endTime *time.Time,
	limit int, offset int64,
) ([]*model.Appointment, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "appointment_date", Value: 1}})

	return r.find(ctx, buildSearchFilter(providerID, startTime, endTime), opts)
}

func (r *mongoAppointmentRepository) CountByProvider(ctx context.Context, providerID string, startTime, endTime *time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(providerID, startTime, endTime))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// UpdateStatus moves the appointment from one status to another only if it is
// still in from.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus, cancelReason string) error {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if cancelReason != "" {
		set["cancel_reason"] = cancelReason
	}
	return r.compareAndSet(ctx, id, from, bson.M{"$set": set})
}

// Reschedule writes a new instant and resets the status to scheduled, only if
// the appointment is still in from.
func (r *mongoAppointmentRepository) Reschedule(ctx context.Context, id string, from model.AppointmentStatus, newDate time.Time) error {
	return r.compareAndSet(ctx, id, from, bson.M{"$set": bson.M{
		"appointment_date": newDate.UTC(),
		"status":           model.StatusScheduled,
		"updated_at":       time.Now().UTC().Truncate(time.Millisecond),
	}})
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoAppointmentRepository) compareAndSet(ctx context.Context, id string, from model.AppointmentStatus, update bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": from}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", appointmentserrors.ErrSlotTaken, err)
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to check appointment existence: %w", err)
	}
	if count == 0 {
		return appointmentserrors.ErrNotFound
	}
	return appointmentserrors.ErrStatusChanged
}

func (r *mongoAppointmentRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []appointmentDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	appointments := make([]*model.Appointment, 0, len(docs))
	for i := range docs {
		appointments = append(appointments, docs[i].toModel())
	}
	return appointments, nil
}

func activeWindowFilter(providerID string, start, end time.Time) bson.M {
	return bson.M{
		"provider_id": providerID,
		"status":      bson.M{"$in": model.ActiveStatuses},
		"appointment_date": bson.M{
			"$lt": end.UTC(),
			"$gt": start.UTC().Add(-MaxDurationMinutes * time.Minute),
		},
	}
}

func buildSearchFilter(providerID string, startTime, endTime *time.Time) bson.M {
	filter := bson.M{"provider_id": providerID}

	dateFilter := bson.M{}
	if startTime != nil {
		dateFilter["$gte"] = startTime.UTC()
	}
	if endTime != nil {
		dateFilter["$lt"] = endTime.UTC()
	}
	if len(dateFilter) > 0 {
		filter["appointment_date"] = dateFilter
	}
	return filter
}
