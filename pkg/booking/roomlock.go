package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// RoomLocker serializes check-then-commit windows for a single room.
// LockManager is the in-process implementation; pglock provides a
// PostgreSQL advisory-lock implementation for multi-instance deployments.
type RoomLocker interface {
	WithRoomLock(ctx context.Context, room RoomNumber, fn func(ctx context.Context) error) error
}

// HeldLock is a diagnostic view of a lock currently held.
type HeldLock struct {
	Key   string
	Since time.Time
}

// LockManager keeps one mutual-exclusion slot per key, created lazily. Room
// slots live for the lifetime of the manager; reservation and named slots are
// dropped once no caller holds or waits on them. The manager mutex guards the
// map and the bookkeeping only; waiting happens on the per-key slot.
type LockManager struct {
	mutex       sync.Mutex
	locks       map[string]*keyedLock
	waitTimeout time.Duration
	nowFn       func() time.Time
}

type keyedLock struct {
	slot      chan struct{}
	held      bool
	heldSince time.Time
	// users counts callers holding or waiting on the slot.
	users     int
	permanent bool
}

// NewLockManager builds an isolated lock manager. A zero waitTimeout blocks
// until the caller's context ends.
func NewLockManager(waitTimeout time.Duration) *LockManager {
	return &LockManager{
		locks:       make(map[string]*keyedLock),
		waitTimeout: waitTimeout,
		nowFn:       time.Now,
	}
}

// WithRoomLock runs fn while holding the room's lock.
func (manager *LockManager) WithRoomLock(ctx context.Context, room RoomNumber, fn func(ctx context.Context) error) error {
	return manager.withLock(ctx, roomLockPrefix+room.String(), ErrRoomBusy, fn)
}

// WithReservationLock runs fn while holding the reservation's lock.
func (manager *LockManager) WithReservationLock(ctx context.Context, reservationID ReservationID, fn func(ctx context.Context) error) error {
	return manager.withLock(ctx, reservationLockPrefix+reservationID.String(), ErrReservationBusy, fn)
}

// WithLock runs fn while holding an arbitrary named lock.
func (manager *LockManager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return manager.withLock(ctx, key, ErrBusy, fn)
}

// HeldLocks lists the locks held right now, sorted by key.
func (manager *LockManager) HeldLocks() []HeldLock {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	held := make([]HeldLock, 0)
	for key, lock := range manager.locks {
		if lock.held {
			held = append(held, HeldLock{Key: key, Since: lock.heldSince})
		}
	}
	sort.Slice(held, func(left, right int) bool {
		return held[left].Key < held[right].Key
	})
	return held
}

func (manager *LockManager) withLock(ctx context.Context, key string, busyErr error, fn func(ctx context.Context) error) error {
	lock := manager.acquire(key)
	defer manager.release(key, lock)
	waitCtx := ctx
	if manager.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, manager.waitTimeout)
		defer cancel()
	}
	select {
	case lock.slot <- struct{}{}:
	case <-waitCtx.Done():
		return fmt.Errorf("%w: %s: %w", busyErr, key, waitCtx.Err())
	}
	manager.markHeld(lock, true)
	defer func() {
		manager.markHeld(lock, false)
		<-lock.slot
	}()
	return fn(ctx)
}

func (manager *LockManager) acquire(key string) *keyedLock {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	lock, ok := manager.locks[key]
	if !ok {
		lock = &keyedLock{
			slot:      make(chan struct{}, 1),
			permanent: strings.HasPrefix(key, roomLockPrefix),
		}
		manager.locks[key] = lock
	}
	lock.users++
	return lock
}

func (manager *LockManager) release(key string, lock *keyedLock) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	lock.users--
	if lock.users == 0 && !lock.permanent && manager.locks[key] == lock {
		delete(manager.locks, key)
	}
}

func (manager *LockManager) markHeld(lock *keyedLock, held bool) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	lock.held = held
	if held {
		lock.heldSince = manager.nowFn()
	} else {
		lock.heldSince = time.Time{}
	}
}
