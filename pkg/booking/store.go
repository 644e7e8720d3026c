package booking

import (
	"context"
	"time"
)

// Store is the persistence contract used by the booking services.
// (gormstore implements this.)
//
// Reads of rooms and reservations performed through a transaction store lock
// the row for the remainder of the transaction where the database supports it.
// Status updates are conditional on the expected current status and return
// ErrConcurrentUpdate when another writer got there first.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	GetRoom(ctx context.Context, room RoomNumber) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	UpdateRoomStatus(ctx context.Context, room RoomNumber, from, to RoomStatus) error

	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, reservationID ReservationID) (Reservation, error)
	ReservationCodeExists(ctx context.Context, code string) (bool, error)
	ListActiveReservations(ctx context.Context, room RoomNumber) ([]Reservation, error)
	ListActiveReservationsBetween(ctx context.Context, start, end time.Time) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID ReservationID, from, to ReservationStatus) error
	UpdateReservationRoom(ctx context.Context, reservationID ReservationID, from, to RoomNumber) error

	CreatePayment(ctx context.Context, payment Payment) error
	GetPayment(ctx context.Context, paymentID PaymentID) (Payment, error)
	ListPayments(ctx context.Context, reservationID ReservationID) ([]Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID PaymentID, from, to PaymentStatus) error

	CreateProof(ctx context.Context, proof Proof) error
	GetProof(ctx context.Context, proofID ProofID) (Proof, error)
	ListProofs(ctx context.Context, paymentID PaymentID) ([]Proof, error)
	UpdateProof(ctx context.Context, proof Proof, from ProofStatus) error

	CreateStay(ctx context.Context, stay Stay) error
	GetStay(ctx context.Context, reservationID ReservationID) (Stay, error)
	UpdateStay(ctx context.Context, stay Stay, from StayStatus) error

	AppendLoyaltyEntry(ctx context.Context, entry LoyaltyEntry) error
	FindLoyaltyEntry(ctx context.Context, reservationID ReservationID, source LoyaltySource) (LoyaltyEntry, bool, error)
	ListLoyaltyEntries(ctx context.Context, clientID ClientID, limit int) ([]LoyaltyEntry, error)
	GetLoyaltyBalance(ctx context.Context, clientID ClientID) (int64, error)
	SetLoyaltyBalance(ctx context.Context, clientID ClientID, points int64) error

	RecordConflictResolution(ctx context.Context, resolution ConflictResolution) error
	ListConflictResolutions(ctx context.Context, conflictIDs []string) ([]ConflictResolution, error)
}
