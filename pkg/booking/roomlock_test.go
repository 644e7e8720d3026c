package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockManagerSerializesSameRoom(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(0)
	room := mustRoom(test, roomLuxoValue)
	var inside int32
	var maxInside int32
	var waitGroup sync.WaitGroup
	for worker := 0; worker < 16; worker++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			err := manager.WithRoomLock(context.Background(), room, func(context.Context) error {
				current := atomic.AddInt32(&inside, 1)
				for {
					seen := atomic.LoadInt32(&maxInside)
					if current <= seen || atomic.CompareAndSwapInt32(&maxInside, seen, current) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			if err != nil {
				test.Errorf("lock failed: %v", err)
			}
		}()
	}
	waitGroup.Wait()
	if maxInside != 1 {
		test.Fatalf("expected at most one holder, saw %d", maxInside)
	}
}

func TestLockManagerTimesOutWithBusyError(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(20 * time.Millisecond)
	room := mustRoom(test, roomLuxoValue)
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = manager.WithRoomLock(context.Background(), room, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	called := false
	err := manager.WithRoomLock(context.Background(), room, func(context.Context) error {
		called = true
		return nil
	})
	close(release)
	<-done
	if called {
		test.Fatalf("callback ran without the lock")
	}
	if !errors.Is(err, ErrRoomBusy) || KindOf(err) != KindBusy {
		test.Fatalf("expected room busy, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		test.Fatalf("expected the wait deadline to be reported, got %v", err)
	}
}

func TestLockManagerHonoursCallerContext(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(0)
	reservationID := mustReservationID(test, "reservation-1")
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = manager.WithReservationLock(context.Background(), reservationID, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := manager.WithReservationLock(ctx, reservationID, func(context.Context) error { return nil })
	if !errors.Is(err, ErrReservationBusy) || !errors.Is(err, context.Canceled) {
		test.Fatalf("expected reservation busy on cancelled context, got %v", err)
	}
}

func TestLockManagerIndependentKeysDoNotBlock(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(50 * time.Millisecond)
	err := manager.WithRoomLock(context.Background(), mustRoom(test, roomLuxoValue), func(ctx context.Context) error {
		return manager.WithRoomLock(ctx, mustRoom(test, roomStandardValue), func(context.Context) error {
			return nil
		})
	})
	if err != nil {
		test.Fatalf("distinct rooms should not contend: %v", err)
	}
}

func TestLockManagerHeldLocks(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(0)
	if held := manager.HeldLocks(); len(held) != 0 {
		test.Fatalf("expected no held locks, got %v", held)
	}
	err := manager.WithRoomLock(context.Background(), mustRoom(test, roomLuxoValue), func(ctx context.Context) error {
		return manager.WithLock(ctx, "maintenance", func(context.Context) error {
			held := manager.HeldLocks()
			if len(held) != 2 || held[0].Key != "maintenance" || held[1].Key != roomLockPrefix+roomLuxoValue {
				test.Fatalf("unexpected held locks: %+v", held)
			}
			if held[1].Since.IsZero() {
				test.Fatalf("expected acquisition time")
			}
			return nil
		})
	})
	if err != nil {
		test.Fatalf("lock failed: %v", err)
	}
	if held := manager.HeldLocks(); len(held) != 0 {
		test.Fatalf("expected locks released, got %v", held)
	}
}

func TestLockManagerReleasesOnError(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(20 * time.Millisecond)
	room := mustRoom(test, roomLuxoValue)
	err := manager.WithRoomLock(context.Background(), room, func(context.Context) error { return errInjected })
	if !errors.Is(err, errInjected) {
		test.Fatalf("expected callback error, got %v", err)
	}
	if err := manager.WithRoomLock(context.Background(), room, func(context.Context) error { return nil }); err != nil {
		test.Fatalf("lock was not released: %v", err)
	}
}

func TestLockManagerDropsReleasedReservationSlots(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(50 * time.Millisecond)
	for index := 0; index < 1000; index++ {
		reservationID := mustReservationID(test, fmt.Sprintf("reservation-%d", index))
		if err := manager.WithReservationLock(context.Background(), reservationID, func(context.Context) error { return nil }); err != nil {
			test.Fatalf("reservation lock failed: %v", err)
		}
	}
	if err := manager.WithRoomLock(context.Background(), mustRoom(test, roomLuxoValue), func(context.Context) error { return nil }); err != nil {
		test.Fatalf("room lock failed: %v", err)
	}
	if count := manager.slotCount(); count != 1 {
		test.Fatalf("expected only the room slot to remain, got %d", count)
	}
}

func TestLockManagerKeepsReservationSlotWhileWaited(test *testing.T) {
	test.Parallel()
	manager := NewLockManager(0)
	reservationID := mustReservationID(test, "reservation-shared")
	entered := make(chan struct{})
	releaseHolder := make(chan struct{})
	var active int32
	var overlapped atomic.Bool
	critical := func(context.Context) error {
		if atomic.AddInt32(&active, 1) > 1 {
			overlapped.Store(true)
		}
		defer atomic.AddInt32(&active, -1)
		return nil
	}

	var group sync.WaitGroup
	group.Add(1)
	go func() {
		defer group.Done()
		_ = manager.WithReservationLock(context.Background(), reservationID, func(ctx context.Context) error {
			close(entered)
			<-releaseHolder
			return critical(ctx)
		})
	}()
	<-entered
	for index := 0; index < 4; index++ {
		group.Add(1)
		go func() {
			defer group.Done()
			_ = manager.WithReservationLock(context.Background(), reservationID, critical)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(releaseHolder)
	group.Wait()

	if overlapped.Load() {
		test.Fatalf("reservation lock admitted two holders")
	}
	if count := manager.slotCount(); count != 0 {
		test.Fatalf("expected the reservation slot dropped after the last waiter, got %d", count)
	}
}

func (manager *LockManager) slotCount() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return len(manager.locks)
}
