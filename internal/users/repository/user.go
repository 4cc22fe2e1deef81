package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	userserrors "masterbook/internal/users/errors"
	"masterbook/pkg/config"
	"masterbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

// UserRepository reads profiles owned by the profile service. The only field
// this service writes is the provider's embedded availability template.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	SaveAvailability(ctx context.Context, providerID string, tmpl *model.WeeklyTemplate) error
	FindReplacementCandidates(ctx context.Context, interests []string, excludeIDs []string, limit int) ([]*model.User, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) SaveAvailability(ctx context.Context, providerID string, tmpl *model.WeeklyTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, providerID)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	tmpl.UpdatedAt = &now

	filter := bson.M{"_id": objectID, "role": model.RoleProvider}
	update := bson.M{"$set": bson.M{"availability": tmpl}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, providerID)
	}
	return nil
}

// FindReplacementCandidates returns students sharing at least one interest,
// in natural order, skipping excludeIDs.
func (r *mongoUserRepository) FindReplacementCandidates(ctx context.Context, interests []string, excludeIDs []string, limit int) ([]*model.User, error) {
	if len(interests) == 0 || limit <= 0 {
		return []*model.User{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	excluded := make([]primitive.ObjectID, 0, len(excludeIDs))
	for _, id := range excludeIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			excluded = append(excluded, oid)
		}
	}

	filter := bson.M{
		"role":                model.RoleStudent,
		"preferred_interests": bson.M{"$in": interests},
	}
	if len(excluded) > 0 {
		filter["_id"] = bson.M{"$nin": excluded}
	}

	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query replacement candidates: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*model.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode replacement candidates: %w", err)
	}
	return users, nil
}
