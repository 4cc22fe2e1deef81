package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "masterbook/internal/appointments/errors"
	"masterbook/pkg/config"
	mongotx "masterbook/pkg/db/mongo"
	"masterbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindActiveInRange(ctx context.Context, providerID string, from, to time.Time) ([]*model.Appointment, error)
	FindForActor(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, error)
	CountForActor(ctx context.Context, actor model.Actor) (int64, error)
	Update(ctx context.Context, appt *model.Appointment, expected model.AppointmentStatus) error
	FindBusyClients(ctx context.Context, from, to time.Time) ([]string, error)
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

// withTimeout leaves a SessionContext untouched so the caller's transaction survives.
func (r *mongoAppointmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// A retried transaction runs Create again on the same value.
	appt.ID = ""
	now := time.Now().UTC().Truncate(time.Millisecond)
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.EndTime = appt.End()

	result, err := r.collection.InsertOne(ctx, appt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appt.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var appt model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appt, nil
}

// FindActiveInRange returns the provider's PENDING and CONFIRMED appointments
// whose [start, end) intersects [from, to).
func (r *mongoAppointmentRepository) FindActiveInRange(ctx context.Context, providerID string, from, to time.Time) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := activeOverlapFilter(from, to)
	filter["provider_id"] = providerID

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments in range: %w", err)
	}
	defer cursor.Close(ctx)

	appts := []*model.Appointment{}
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (r *mongoAppointmentRepository) FindForActor(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, actorFilter(actor), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appts := []*model.Appointment{}
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (r *mongoAppointmentRepository) CountForActor(ctx context.Context, actor model.Actor) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, actorFilter(actor))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// Update writes every mutable field of appt, but only while the stored status
// still equals expected. Losing that race yields ErrStatusChanged.
func (r *mongoAppointmentRepository) Update(ctx context.Context, appt *model.Appointment, expected model.AppointmentStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(appt.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, appt.ID)
	}

	appt.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	appt.EndTime = appt.End()

	set := bson.M{
		"status":           appt.Status,
		"notes":            appt.Notes,
		"start_time":       appt.StartTime,
		"end_time":         appt.EndTime,
		"duration_minutes": appt.DurationMinutes,
		"updated_at":       appt.UpdatedAt,
	}
	if appt.CancelledAt != nil {
		set["cancelled_at"] = appt.CancelledAt
		set["cancelled_by"] = appt.CancelledBy
		set["cancellation_reason"] = appt.CancellationReason
	}

	filter := bson.M{"_id": objectID, "status": expected}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrStatusChanged, appt.ID)
	}
	return nil
}

// FindBusyClients lists students holding an active appointment, with any
// provider, that overlaps [from, to).
func (r *mongoAppointmentRepository) FindBusyClients(ctx context.Context, from, to time.Time) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "client_id", activeOverlapFilter(from, to))
	if err != nil {
		return nil, fmt.Errorf("failed to find busy clients: %w", err)
	}

	clients := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			clients = append(clients, id)
		}
	}
	return clients, nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func activeOverlapFilter(from, to time.Time) bson.M {
	return bson.M{
		"status":     bson.M{"$in": model.ActiveStatuses},
		"start_time": bson.M{"$lt": to},
		"end_time":   bson.M{"$gt": from},
	}
}

func actorFilter(actor model.Actor) bson.M {
	if actor.IsProvider() {
		return bson.M{"provider_id": actor.ID}
	}
	return bson.M{"client_id": actor.ID}
}
