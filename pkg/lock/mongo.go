package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"masterbook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Booking_locks"

// LockStore persists advisory lock documents.
type LockStore interface {
	// Insert fails with a duplicate key error when the lock is held.
	Insert(ctx context.Context, lock *model.BookingLock) error
	// TakeOver claims the lock only if the current holder's lease expired.
	TakeOver(ctx context.Context, lock *model.BookingLock, now time.Time) (bool, error)
	// Delete removes the lock only if owner still holds it.
	Delete(ctx context.Context, id, owner string) error
}

type mongoLockStore struct {
	collection *mongo.Collection
}

func NewMongoLockStore(db *mongo.Database) LockStore {
	return &mongoLockStore{collection: db.Collection(CollectionName)}
}

func (s *mongoLockStore) Insert(ctx context.Context, lock *model.BookingLock) error {
	_, err := s.collection.InsertOne(ctx, lock)
	return err
}

func (s *mongoLockStore) TakeOver(ctx context.Context, lock *model.BookingLock, now time.Time) (bool, error) {
	filter := bson.M{"_id": lock.ID, "expires_at": bson.M{"$lt": now}}
	update := bson.M{"$set": bson.M{
		"owner":      lock.Owner,
		"expires_at": lock.ExpiresAt,
		"created_at": lock.CreatedAt,
	}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

func (s *mongoLockStore) Delete(ctx context.Context, id, owner string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	return err
}

// MongoLocker holds advisory lock documents with a unique _id. Crashed holders
// are recovered once their lease expires, and the TTL index cleans up the rest.
type MongoLocker struct {
	store     LockStore
	ttl       time.Duration
	wait      time.Duration
	now       func() time.Time
	isTakenFn func(error) bool
}

func NewMongoLocker(store LockStore, ttl, wait time.Duration) *MongoLocker {
	return &MongoLocker{
		store:     store,
		ttl:       ttl,
		wait:      wait,
		now:       time.Now,
		isTakenFn: mongo.IsDuplicateKeyError,
	}
}

func (l *MongoLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	waitCtx, cancel := waitContext(ctx, l.wait)
	defer cancel()

	owner := uuid.NewString()
	for {
		now := l.now().UTC()
		lock := &model.BookingLock{
			ID:        key,
			Owner:     owner,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		}

		err := l.store.Insert(waitCtx, lock)
		if err == nil {
			return l.releaser(key, owner), nil
		}
		if !l.isTakenFn(err) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		taken, err := l.store.TakeOver(waitCtx, lock, now)
		if err != nil {
			return nil, fmt.Errorf("failed to take over lock %s: %w", key, err)
		}
		if taken {
			return l.releaser(key, owner), nil
		}

		select {
		case <-time.After(retryInterval):
		case <-waitCtx.Done():
			return nil, notAcquired(key, waitCtx.Err())
		}
	}
}

func (l *MongoLocker) releaser(key, owner string) ReleaseFunc {
	var once sync.Once
	var err error
	return func(ctx context.Context) error {
		once.Do(func() {
			err = l.store.Delete(ctx, key, owner)
		})
		return err
	}
}
