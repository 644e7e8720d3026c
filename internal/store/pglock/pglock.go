package pglock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPollInterval = 25 * time.Millisecond
	defaultWaitTimeout  = 5 * time.Second
	roomKeyPrefix       = "room:"
	errorOperationLock  = "lock"
	errorSubjectRoom    = "room"
	errorCodeBegin      = "begin"
	errorCodeAcquire    = "acquire"

	// Transaction-scoped so the lock is dropped with the transaction even if
	// the process dies while holding it.
	sqlTryAdvisoryLock = `select pg_try_advisory_xact_lock(hashtextextended($1, 0))`
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Locker implements booking.RoomLocker with PostgreSQL advisory locks so that
// several engine instances sharing one database serialize per room.
type Locker struct {
	pool         TxBeginner
	pollInterval time.Duration
	waitTimeout  time.Duration
}

// Option configures a Locker.
type Option func(*Locker)

// WithPollInterval sets how often a busy lock is retried.
func WithPollInterval(interval time.Duration) Option {
	return func(locker *Locker) {
		if interval > 0 {
			locker.pollInterval = interval
		}
	}
}

// WithWaitTimeout bounds how long WithRoomLock waits before ErrRoomBusy.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(locker *Locker) {
		if timeout > 0 {
			locker.waitTimeout = timeout
		}
	}
}

// New returns a Locker backed by a pgx pool.
func New(pool *pgxpool.Pool, options ...Option) *Locker {
	return newLocker(pool, options...)
}

func newLocker(pool TxBeginner, options ...Option) *Locker {
	locker := &Locker{pool: pool, pollInterval: defaultPollInterval, waitTimeout: defaultWaitTimeout}
	for _, option := range options {
		if option != nil {
			option(locker)
		}
	}
	return locker
}

// WithRoomLock runs fn while this session holds the room's advisory lock.
func (locker *Locker) WithRoomLock(ctx context.Context, room booking.RoomNumber, fn func(ctx context.Context) error) error {
	key := LockKey(room)
	tx, err := locker.pool.Begin(ctx)
	if err != nil {
		return wrapLockError(errorCodeBegin, err)
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()
	if err := locker.acquire(ctx, tx, key); err != nil {
		return err
	}
	return fn(ctx)
}

func (locker *Locker) acquire(ctx context.Context, tx pgx.Tx, key string) error {
	waitCtx, cancel := context.WithTimeout(ctx, locker.waitTimeout)
	defer cancel()
	ticker := time.NewTicker(locker.pollInterval)
	defer ticker.Stop()
	for {
		var acquired bool
		if err := tx.QueryRow(waitCtx, sqlTryAdvisoryLock, key).Scan(&acquired); err != nil {
			if waitCtx.Err() != nil {
				return locker.busy(ctx, key)
			}
			return wrapLockError(errorCodeAcquire, err)
		}
		if acquired {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return locker.busy(ctx, key)
		case <-ticker.C:
		}
	}
}

func (locker *Locker) busy(ctx context.Context, key string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", booking.ErrRoomBusy, key, ctxErr)
	}
	return fmt.Errorf("%w: %s after %s", booking.ErrRoomBusy, key, locker.waitTimeout)
}

// LockKey is the advisory lock name for a room; it matches the in-process
// LockManager key.
func LockKey(room booking.RoomNumber) string {
	return roomKeyPrefix + room.String()
}

func wrapLockError(code string, err error) error {
	if errors.Is(err, booking.ErrBusy) {
		return err
	}
	return booking.WrapError(errorOperationLock, errorSubjectRoom, code, err)
}
