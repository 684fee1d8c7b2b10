package repository

import (
	"context"
	"fmt"
	"time"

	appointmentserrors "medslot/internal/appointments/errors"
	"medslot/pkg/config"
	mongotx "medslot/pkg/db/mongo"
	"medslot/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Appointment_locks"

// AppointmentLockRepository stores advisory per-provider locks.
type AppointmentLockRepository interface {
	Acquire(ctx context.Context, lock *model.AppointmentLock) error
	Release(ctx context.Context, lockID, owner string) error
}

type mongoAppointmentLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewAppointmentLockRepository(cfg *config.Config) AppointmentLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. An existing unexpired lock makes it
// return ErrLockBusy. Expired locks are cleared first since the TTL monitor
// only sweeps once a minute.
func (r *mongoAppointmentLockRepository) Acquire(ctx context.Context, lock *model.AppointmentLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": now}}); err != nil {
		return fmt.Errorf("failed to clear expired lock: %w", err)
	}

	lock.CreatedAt = now
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return appointmentserrors.ErrLockBusy
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

// Release deletes the lock if owner still holds it.
func (r *mongoAppointmentLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}
