package booking

import (
	"context"
	"fmt"
	"sort"
)

// Availability is the verdict for a room over an interval.
type Availability struct {
	Available  bool
	Room       RoomNumber
	Interval   Interval
	RoomStatus RoomStatus
	Reason     string
	Conflicts  []ReservationSummary
}

// Err converts a negative verdict into the matching domain error.
func (availability Availability) Err() error {
	if availability.Available {
		return nil
	}
	if availability.RoomStatus != RoomStatusFree {
		return fmt.Errorf("%w: %s", ErrRoomBlocked, availability.Reason)
	}
	return &ConflictError{
		Room:      availability.Room,
		Interval:  availability.Interval,
		Conflicts: availability.Conflicts,
	}
}

// AvailabilityChecker answers whether a room can take an interval. It never writes.
type AvailabilityChecker struct {
	store Store
}

// NewAvailabilityChecker wires an AvailabilityChecker.
func NewAvailabilityChecker(store Store) (*AvailabilityChecker, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	return &AvailabilityChecker{store: store}, nil
}

// CheckAvailability fails closed on any room status other than FREE, otherwise
// reports every active reservation overlapping interval. exclude skips one
// reservation, used when re-validating an existing booking.
func (checker *AvailabilityChecker) CheckAvailability(ctx context.Context, room RoomNumber, interval Interval, exclude *ReservationID) (Availability, error) {
	return checkAvailability(ctx, checker.store, room, interval, exclude)
}

func checkAvailability(ctx context.Context, store Store, room RoomNumber, interval Interval, exclude *ReservationID) (Availability, error) {
	if room.IsZero() {
		return Availability{}, fmt.Errorf("%w: empty value", ErrInvalidRoomNumber)
	}
	if !interval.End.After(interval.Start) {
		return Availability{}, fmt.Errorf("%w: checkout must be after checkin", ErrInvalidInterval)
	}
	roomRecord, err := store.GetRoom(ctx, room)
	if err != nil {
		return Availability{}, err
	}
	availability := Availability{
		Room:       room,
		Interval:   interval,
		RoomStatus: roomRecord.Status,
	}
	if roomRecord.Status != RoomStatusFree {
		availability.Reason = blockingReason(roomRecord.Status)
		return availability, nil
	}
	reservations, err := store.ListActiveReservations(ctx, room)
	if err != nil {
		return Availability{}, err
	}
	availability.Conflicts = findConflicts(interval, reservations, exclude)
	if len(availability.Conflicts) > 0 {
		availability.Reason = fmt.Sprintf("overlaps %d active reservation(s)", len(availability.Conflicts))
		return availability, nil
	}
	availability.Available = true
	return availability, nil
}

func findConflicts(candidate Interval, reservations []Reservation, exclude *ReservationID) []ReservationSummary {
	conflicts := make([]ReservationSummary, 0)
	for _, reservation := range reservations {
		if exclude != nil && reservation.ID == *exclude {
			continue
		}
		if !reservation.Status.IsActive() {
			continue
		}
		if Overlaps(candidate, reservation.Interval()) {
			conflicts = append(conflicts, reservation.Summary())
		}
	}
	sort.Slice(conflicts, func(left, right int) bool {
		return conflicts[left].CheckIn.Before(conflicts[right].CheckIn)
	})
	return conflicts
}

func blockingReason(status RoomStatus) string {
	switch status {
	case RoomStatusOccupied:
		return "room is OCCUPIED"
	case RoomStatusUnderMaintenance:
		return "room is UNDER_MAINTENANCE"
	case RoomStatusBlocked:
		return "room is BLOCKED"
	default:
		return fmt.Sprintf("room status %s", status)
	}
}
