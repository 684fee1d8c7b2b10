package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medslot/internal/migrations/mongo/validators"
	"medslot/pkg/logger"
	"medslot/pkg/model"
)

const (
	AppointmentsCollection     = "Appointments"
	OperatingHoursCollection   = "Operating_hours"
	AppointmentLocksCollection = "Appointment_locks"

	ActiveSlotIndexName = "uniq_active_provider_slot"
)

var (
	// AppointmentsIndexes includes the partial unique index that keeps two
	// active appointments from sharing a provider and start instant.
	// Partial indexes with $in need MongoDB 6.0 or newer.
	AppointmentsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "provider_id", Value: 1},
				{Key: "appointment_date", Value: 1},
			},
			Options: options.Index().
				SetName(ActiveSlotIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": model.ActiveStatuses},
				}),
		},
		{
			Keys: bson.D{
				{Key: "provider_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "appointment_date", Value: 1},
			},
		},
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "appointment_date", Value: 1}}},
	}

	OperatingHoursIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	AppointmentLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type CollectionDefinition struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists everything the scheduler stores, in creation order.
func Collections() []CollectionDefinition {
	return []CollectionDefinition{
		{Name: OperatingHoursCollection, Indexes: OperatingHoursIndexes, Validator: validators.OperatingHoursValidator},
		{Name: AppointmentsCollection, Indexes: AppointmentsIndexes, Validator: validators.AppointmentValidator},
		{Name: AppointmentLocksCollection, Indexes: AppointmentLocksIndexes, Validator: validators.AppointmentLockValidator},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
