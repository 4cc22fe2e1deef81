package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"masterbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	locker := NewMemoryLocker(time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "p1")
			if !assert.NoError(t, err) {
				return
			}

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)

			assert.NoError(t, release(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locker.size(), "entries are dropped once unused")
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	locker := NewMemoryLocker(time.Second)

	releaseA, err := locker.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA(context.Background())

	releaseB, err := locker.Acquire(context.Background(), "b")
	require.NoError(t, err)
	require.NoError(t, releaseB(context.Background()))
}

func TestMemoryLocker_GivesUpAfterWait(t *testing.T) {
	locker := NewMemoryLocker(20 * time.Millisecond)

	release, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAcquired))

	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()), "double release is harmless")

	release, err = locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestMemoryLocker_RespectsContext(t *testing.T) {
	locker := NewMemoryLocker(time.Minute)
	release, err := locker.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Acquire(ctx, "p1")
	assert.True(t, errors.Is(err, ErrNotAcquired))
}

var errDuplicate = errors.New("duplicate key")

type fakeLockStore struct {
	mu    sync.Mutex
	locks map[string]model.BookingLock
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{locks: make(map[string]model.BookingLock)}
}

func (s *fakeLockStore) Insert(_ context.Context, lock *model.BookingLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[lock.ID]; ok {
		return errDuplicate
	}
	s.locks[lock.ID] = *lock
	return nil
}

func (s *fakeLockStore) TakeOver(_ context.Context, lock *model.BookingLock, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.locks[lock.ID]
	if !ok || !current.ExpiresAt.Before(now) {
		return false, nil
	}
	s.locks[lock.ID] = *lock
	return true, nil
}

func (s *fakeLockStore) Delete(_ context.Context, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.locks[id]; ok && current.Owner == owner {
		delete(s.locks, id)
	}
	return nil
}

func newTestMongoLocker(store LockStore, ttl, wait time.Duration) *MongoLocker {
	l := NewMongoLocker(store, ttl, wait)
	l.isTakenFn = func(err error) bool { return errors.Is(err, errDuplicate) }
	return l
}

func TestMongoLocker_AcquireAndRelease(t *testing.T) {
	store := newFakeLockStore()
	locker := newTestMongoLocker(store, time.Minute, 50*time.Millisecond)

	release, err := locker.Acquire(context.Background(), ProviderKey("p1"))
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), ProviderKey("p1"))
	require.True(t, errors.Is(err, ErrNotAcquired))

	require.NoError(t, release(context.Background()))
	assert.Empty(t, store.locks)

	release, err = locker.Acquire(context.Background(), ProviderKey("p1"))
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestMongoLocker_WaitsForHolder(t *testing.T) {
	locker := newTestMongoLocker(newFakeLockStore(), time.Minute, time.Second)

	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	go func() {
		time.Sleep(3 * retryInterval)
		_ = release(context.Background())
	}()

	second, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, second(context.Background()))
}

func TestMongoLocker_TakesOverExpiredLease(t *testing.T) {
	store := newFakeLockStore()
	locker := newTestMongoLocker(store, time.Second, 50*time.Millisecond)

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return base }
	stale, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	locker.now = func() time.Time { return base.Add(5 * time.Second) }
	fresh, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	require.NoError(t, stale(context.Background()))
	assert.Len(t, store.locks, 1, "a stale holder must not delete the new owner's lock")

	require.NoError(t, fresh(context.Background()))
	assert.Empty(t, store.locks)
}

func TestMongoLocker_StoreFailure(t *testing.T) {
	store := &failingLockStore{err: errors.New("connection refused")}
	locker := newTestMongoLocker(store, time.Second, time.Second)

	_, err := locker.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotAcquired))
}

type failingLockStore struct{ err error }

func (s *failingLockStore) Insert(context.Context, *model.BookingLock) error { return s.err }
func (s *failingLockStore) TakeOver(context.Context, *model.BookingLock, time.Time) (bool, error) {
	return false, s.err
}
func (s *failingLockStore) Delete(context.Context, string, string) error { return s.err }

func TestWaitContext(t *testing.T) {
	ctx, cancel := waitContext(context.Background(), 50*time.Millisecond)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 20*time.Millisecond)

	parent, parentCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer parentCancel()
	ctx, cancel = waitContext(parent, time.Minute)
	defer cancel()
	parentDeadline, _ := parent.Deadline()
	deadline, _ = ctx.Deadline()
	assert.Equal(t, parentDeadline, deadline)
}
