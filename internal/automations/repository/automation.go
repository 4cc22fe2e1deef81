package repository

import (
	"context"
	"fmt"
	"time"

	automationserrors "masterbook/internal/automations/errors"
	"masterbook/pkg/config"
	"masterbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Automations"
)

// AutomationRepository stores append-only automation records. Only the
// execution bookkeeping of a record changes after insert.
type AutomationRepository interface {
	Create(ctx context.Context, record *model.AutomationRecord) error
	FindActive(ctx context.Context, appointmentID string, trigger model.AutomationTrigger) ([]*model.AutomationRecord, error)
	RecordExecution(ctx context.Context, id string, at time.Time) error
}

type mongoAutomationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAutomationRepository(cfg *config.Config) AutomationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAutomationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAutomationRepository) Create(ctx context.Context, record *model.AutomationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create automation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAutomationRepository) FindActive(ctx context.Context, appointmentID string, trigger model.AutomationTrigger) ([]*model.AutomationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"appointment_id": appointmentID,
		"trigger":        trigger,
		"is_active":      true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find automations: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*model.AutomationRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode automations: %w", err)
	}
	return records, nil
}

func (r *mongoAutomationRepository) RecordExecution(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", automationserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$inc": bson.M{"execution_count": 1},
		"$set": bson.M{"last_triggered": at.UTC().Truncate(time.Millisecond)},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to record automation execution: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", automationserrors.ErrNotFound, id)
	}
	return nil
}
