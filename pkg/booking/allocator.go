package booking

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReservationRequest carries the details of a new booking.
type ReservationRequest struct {
	ClientID         ClientID
	Room             RoomNumber
	CheckIn          time.Time
	CheckOut         time.Time
	NightlyRateCents int64
	Occupants        int
	Operator         OperatorID
}

// Allocator creates and edits reservations without ever double-booking a room.
type Allocator struct {
	store   Store
	locker  RoomLocker
	nowFn   func() time.Time
	options serviceOptions
}

// NewAllocator wires an Allocator.
func NewAllocator(store Store, locker RoomLocker, now func() time.Time, options ...ServiceOption) (*Allocator, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if locker == nil {
		return nil, fmt.Errorf("%w: room locker dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &Allocator{store: store, locker: locker, nowFn: now, options: applyOptions(options)}, nil
}

// CreateReservation books request.Room for [CheckIn, CheckOut). Overlaps are
// refused with a *ConflictError unless allowOverbooking is set, in which case
// the reservation is persisted with its Overbooked flag raised. Overriding an
// OCCUPIED room without an overlapping booking leaves the flag down. Rooms under
// maintenance or blocked are never allocated.
func (allocator *Allocator) CreateReservation(ctx context.Context, request ReservationRequest, allowOverbooking bool) (Reservation, error) {
	created, operationError := allocator.createReservation(ctx, request, allowOverbooking)
	allocator.options.logOperation(ctx, OperationLog{
		Operation:         operationCreateReservation,
		ReservationID:     created.ID.String(),
		Room:              request.Room.String(),
		Operator:          request.Operator.String(),
		ReservationStatus: created.Status,
		Error:             operationError,
	}, allocator.nowFn())
	if operationError == nil {
		allocator.options.notify(ctx, Notification{
			Event:         notificationReservationCreated,
			ReservationID: created.ID.String(),
			Code:          created.Code,
			Room:          created.Room.String(),
			ClientID:      created.ClientID.String(),
			OccurredAt:    created.CreatedAt,
		})
	}
	return created, operationError
}

func (allocator *Allocator) createReservation(ctx context.Context, request ReservationRequest, allowOverbooking bool) (Reservation, error) {
	interval, occupants, err := validateReservationRequest(request)
	if err != nil {
		return Reservation{}, err
	}
	precheck, err := checkAvailability(ctx, allocator.store, request.Room, interval, nil)
	if err != nil {
		return Reservation{}, err
	}
	if !precheck.Available && !overridable(precheck, allowOverbooking) {
		return Reservation{}, precheck.Err()
	}

	var created Reservation
	err = allocator.locker.WithRoomLock(ctx, request.Room, func(ctx context.Context) error {
		return allocator.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			availability, err := checkAvailability(ctx, transactionStore, request.Room, interval, nil)
			if err != nil {
				return err
			}
			if !availability.Available && !overridable(availability, allowOverbooking) {
				return availability.Err()
			}
			code, err := allocator.uniqueCode(ctx, transactionStore)
			if err != nil {
				return err
			}
			reservationID, err := NewReservationID(allocator.options.identifiers())
			if err != nil {
				return err
			}
			nowUTC := allocator.nowFn().UTC()
			reservation := Reservation{
				ID:               reservationID,
				Code:             code,
				ClientID:         request.ClientID,
				Room:             request.Room,
				CheckIn:          interval.Start,
				CheckOut:         interval.End,
				NightlyRateCents: request.NightlyRateCents,
				Nights:           interval.Nights(),
				Occupants:        occupants,
				Status:           ReservationStatusPendingPayment,
				Overbooked:       len(availability.Conflicts) > 0,
				CreatedAt:        nowUTC,
				UpdatedAt:        nowUTC,
			}
			if err := transactionStore.CreateReservation(ctx, reservation); err != nil {
				return err
			}
			if err := transactionStore.CreateStay(ctx, Stay{
				ReservationID: reservation.ID,
				Status:        StayStatusNotStarted,
				Occupants:     occupants,
			}); err != nil {
				return err
			}
			created = reservation
			return nil
		})
	})
	if err != nil {
		return Reservation{}, err
	}
	return created, nil
}

// ReassignRoom moves an existing, not yet checked-in reservation to target.
// The target is re-validated under its room lock with the reservation itself
// excluded, and the overbooked flag is cleared on success.
func (allocator *Allocator) ReassignRoom(ctx context.Context, reservationID ReservationID, target RoomNumber, operator OperatorID) (Reservation, error) {
	var updated Reservation
	operationError := allocator.locker.WithRoomLock(ctx, target, func(ctx context.Context) error {
		return allocator.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			reservation, err := transactionStore.GetReservation(ctx, reservationID)
			if err != nil {
				return err
			}
			if !isEditable(reservation.Status) {
				return fmt.Errorf("%w: reservation %s is %s", ErrInvalidTransition, reservation.Code, reservation.Status)
			}
			if reservation.Room == target {
				updated = reservation
				return nil
			}
			availability, err := checkAvailability(ctx, transactionStore, target, reservation.Interval(), &reservation.ID)
			if err != nil {
				return err
			}
			if !availability.Available {
				return availability.Err()
			}
			if err := transactionStore.UpdateReservationRoom(ctx, reservation.ID, reservation.Room, target); err != nil {
				return err
			}
			reservation.Room = target
			reservation.Overbooked = false
			reservation.UpdatedAt = allocator.nowFn().UTC()
			updated = reservation
			return nil
		})
	})
	allocator.options.logOperation(ctx, OperationLog{
		Operation:         operationReassignRoom,
		ReservationID:     reservationID.String(),
		Room:              target.String(),
		Operator:          operator.String(),
		ReservationStatus: updated.Status,
		Error:             operationError,
	}, allocator.nowFn())
	if operationError != nil {
		return Reservation{}, operationError
	}
	return updated, nil
}

func (allocator *Allocator) uniqueCode(ctx context.Context, store Store) (string, error) {
	for attempt := 0; attempt < reservationCodeMaxAttempts; attempt++ {
		code, err := allocator.options.codes()
		if err != nil {
			return "", err
		}
		exists, err := store.ReservationCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeGenerationExhausted, reservationCodeMaxAttempts)
}

// overridable reports whether an operator override may proceed past a negative
// verdict. Only interval conflicts and an occupied room can be overridden.
func overridable(availability Availability, allowOverbooking bool) bool {
	if !allowOverbooking {
		return false
	}
	return availability.RoomStatus == RoomStatusFree || availability.RoomStatus == RoomStatusOccupied
}

func isEditable(status ReservationStatus) bool {
	switch status {
	case ReservationStatusPendingPayment,
		ReservationStatusAwaitingProof,
		ReservationStatusInReview,
		ReservationStatusPaymentRejected,
		ReservationStatusConfirmed:
		return true
	default:
		return false
	}
}

func validateReservationRequest(request ReservationRequest) (Interval, int, error) {
	if request.ClientID.String() == "" {
		return Interval{}, 0, fmt.Errorf("%w: empty value", ErrInvalidClientID)
	}
	if request.Room.IsZero() {
		return Interval{}, 0, fmt.Errorf("%w: empty value", ErrInvalidRoomNumber)
	}
	interval, err := NewInterval(request.CheckIn, request.CheckOut)
	if err != nil {
		return Interval{}, 0, err
	}
	if request.NightlyRateCents <= 0 {
		return Interval{}, 0, fmt.Errorf("%w: nightly rate must be greater than zero", ErrInvalidAmount)
	}
	occupants := request.Occupants
	if occupants < 0 {
		return Interval{}, 0, fmt.Errorf("%w: %d", ErrInvalidOccupants, occupants)
	}
	if occupants == 0 {
		occupants = 1
	}
	return interval, occupants, nil
}

func generateReservationCode() (string, error) {
	buffer := make([]byte, reservationCodeLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("reservation code entropy: %w", err)
	}
	for index, value := range buffer {
		buffer[index] = reservationCodeAlphabet[int(value)%len(reservationCodeAlphabet)]
	}
	return reservationCodePrefix + string(buffer), nil
}

func newIdentifier() string {
	return uuid.NewString()
}
