package booking

import (
	"fmt"
	"strings"
	"time"
)

// RoomNumber is the human-readable room identifier ("101").
type RoomNumber struct {
	value string
}

// ReservationID identifies a reservation row.
type ReservationID struct {
	value string
}

// ClientID identifies the guest owning a reservation and a loyalty account.
type ClientID struct {
	value string
}

// PaymentID identifies a payment.
type PaymentID struct {
	value string
}

// ProofID identifies an uploaded proof of payment.
type ProofID struct {
	value string
}

// OperatorID identifies the employee or system actor performing an action.
type OperatorID struct {
	value string
}

func normalizeIdentifier(raw string, sentinel error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", sentinel)
	}
	return trimmed, nil
}

func normalizeConflictPart(raw string, sentinel error) (string, error) {
	value, err := normalizeIdentifier(raw, sentinel)
	if err != nil {
		return "", err
	}
	if strings.Contains(value, conflictIDDelimiter) {
		return "", fmt.Errorf("%w: %q contains %q", sentinel, value, conflictIDDelimiter)
	}
	return value, nil
}

// NewRoomNumber validates and normalizes a room number. Room numbers are
// embedded in conflict ids, so the conflict id delimiter is rejected.
func NewRoomNumber(raw string) (RoomNumber, error) {
	value, err := normalizeConflictPart(raw, ErrInvalidRoomNumber)
	return RoomNumber{value: value}, err
}

// String returns the normalized identifier.
func (room RoomNumber) String() string {
	return room.value
}

// IsZero reports whether the room number is unset.
func (room RoomNumber) IsZero() bool {
	return room.value == ""
}

// NewReservationID validates and normalizes a reservation id.
func NewReservationID(raw string) (ReservationID, error) {
	value, err := normalizeConflictPart(raw, ErrInvalidReservationID)
	return ReservationID{value: value}, err
}

// String returns the normalized identifier.
func (id ReservationID) String() string {
	return id.value
}

// NewClientID validates and normalizes a client id.
func NewClientID(raw string) (ClientID, error) {
	value, err := normalizeIdentifier(raw, ErrInvalidClientID)
	return ClientID{value: value}, err
}

// String returns the normalized identifier.
func (id ClientID) String() string {
	return id.value
}

// NewPaymentID validates and normalizes a payment id.
func NewPaymentID(raw string) (PaymentID, error) {
	value, err := normalizeIdentifier(raw, ErrInvalidPaymentID)
	return PaymentID{value: value}, err
}

// String returns the normalized identifier.
func (id PaymentID) String() string {
	return id.value
}

// NewProofID validates and normalizes a proof id.
func NewProofID(raw string) (ProofID, error) {
	value, err := normalizeIdentifier(raw, ErrInvalidProofID)
	return ProofID{value: value}, err
}

// String returns the normalized identifier.
func (id ProofID) String() string {
	return id.value
}

// NewOperatorID validates and normalizes an operator id.
func NewOperatorID(raw string) (OperatorID, error) {
	value, err := normalizeIdentifier(raw, ErrInvalidOperatorID)
	return OperatorID{value: value}, err
}

// String returns the normalized identifier.
func (id OperatorID) String() string {
	return id.value
}

// Interval is a half-open [Start, End) stay window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates that end is strictly after start.
func NewInterval(start time.Time, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("%w: missing bound", ErrInvalidInterval)
	}
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: checkout must be after checkin", ErrInvalidInterval)
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Nights counts the calendar dates crossed between check-in and check-out,
// both taken in UTC. A 14:00 check-in and a 12:00 check-out the next day is
// one night; a same-day stay is zero.
func (interval Interval) Nights() int {
	start := calendarDate(interval.Start)
	end := calendarDate(interval.End)
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / (24 * time.Hour))
}

func calendarDate(moment time.Time) time.Time {
	year, month, day := moment.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether [a.Start,a.End) and [b.Start,b.End) intersect.
// Touching intervals (a.End == b.Start) do not overlap.
func Overlaps(a Interval, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Room is the subset of the room catalog the engine needs.
type Room struct {
	Number RoomNumber
	Tier   RoomTier
	Status RoomStatus
}

// Reservation is a booking of one room for a client over an interval.
type Reservation struct {
	ID               ReservationID
	Code             string
	ClientID         ClientID
	Room             RoomNumber
	CheckIn          time.Time
	CheckOut         time.Time
	NightlyRateCents int64
	Nights           int
	Occupants        int
	Status           ReservationStatus
	Overbooked       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Interval returns the reservation's planned stay window.
func (reservation Reservation) Interval() Interval {
	return Interval{Start: reservation.CheckIn, End: reservation.CheckOut}
}

// Summary returns the compact view used in conflict reports.
func (reservation Reservation) Summary() ReservationSummary {
	return ReservationSummary{
		ID:         reservation.ID,
		Code:       reservation.Code,
		ClientID:   reservation.ClientID,
		Room:       reservation.Room,
		CheckIn:    reservation.CheckIn,
		CheckOut:   reservation.CheckOut,
		Status:     reservation.Status,
		Overbooked: reservation.Overbooked,
		CreatedAt:  reservation.CreatedAt,
	}
}

// ReservationSummary is the machine-readable conflict detail handed to callers.
type ReservationSummary struct {
	ID         ReservationID
	Code       string
	ClientID   ClientID
	Room       RoomNumber
	CheckIn    time.Time
	CheckOut   time.Time
	Status     ReservationStatus
	Overbooked bool
	CreatedAt  time.Time
}

// Payment belongs to exactly one reservation.
type Payment struct {
	ID                   PaymentID
	ReservationID        ReservationID
	AmountCents          int64
	Method               PaymentMethod
	Status               PaymentStatus
	GatewayTransactionID string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Proof is an uploaded proof of payment awaiting or past review.
type Proof struct {
	ID         ProofID
	PaymentID  PaymentID
	FileRef    string
	Status     ProofStatus
	ReviewedBy string
	ReviewedAt time.Time
	Note       string
	CreatedAt  time.Time
}

// Stay tracks physical occupancy, 1:1 with a reservation.
type Stay struct {
	ReservationID ReservationID
	Status        StayStatus
	Occupants     int
	CheckedInAt   time.Time
	CheckedInBy   string
	CheckedOutAt  time.Time
	CheckedOutBy  string
}

// LoyaltyEntry is one append-only line of a client's points ledger.
type LoyaltyEntry struct {
	ID            string
	ClientID      ClientID
	Delta         int64
	Source        LoyaltySource
	ReservationID *ReservationID
	BalanceBefore int64
	BalanceAfter  int64
	Operator      string
	CreatedAt     time.Time
}

// ConflictResolution records an operator decision about an overbooking pair.
type ConflictResolution struct {
	ID         string
	ConflictID string
	Action     ResolutionAction
	Room       RoomNumber
	Target     ReservationID
	TargetRoom RoomNumber
	Operator   OperatorID
	CreatedAt  time.Time
}
