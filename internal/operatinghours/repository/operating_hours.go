package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	operatinghourserrors "medslot/internal/operatinghours/errors"
	"medslot/pkg/config"
	mongotx "medslot/pkg/db/mongo"
	"medslot/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Operating_hours"
)

type OperatingHoursRepository interface {
	FindByProviderID(ctx context.Context, providerID string) (*model.OperatingHours, error)
	Upsert(ctx context.Context, hours *model.OperatingHours) error
}

type mongoOperatingHoursRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoOperatingHoursRepository(cfg *config.Config) OperatingHoursRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOperatingHoursRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoOperatingHoursRepository) FindByProviderID(ctx context.Context, providerID string) (*model.OperatingHours, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hours model.OperatingHours
	err := r.collection.FindOne(ctx, bson.M{"provider_id": providerID}).Decode(&hours)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, operatinghourserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find operating hours: %w", err)
	}

	return &hours, nil
}

// Upsert replaces the provider's whole schedule, creating it on first write.
func (r *mongoOperatingHoursRepository) Upsert(ctx context.Context, hours *model.OperatingHours) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	hours.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"provider_id":                   hours.ProviderID,
			"provider_type":                 hours.ProviderType,
			"schedule":                      hours.Schedule,
			"consultation_duration_minutes": hours.ConsultationDurationMinutes,
			"time_zone":                     hours.TimeZone,
			"updated_at":                    hours.UpdatedAt,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.OperatingHours
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"provider_id": hours.ProviderID}, update, opts).Decode(&stored)
	if err != nil {
		return fmt.Errorf("failed to upsert operating hours: %w", err)
	}

	hours.ID = stored.ID
	return nil
}
