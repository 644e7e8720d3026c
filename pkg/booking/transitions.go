package booking

import "fmt"

// ReservationEvent is a lifecycle trigger applied to a reservation.
type ReservationEvent string

const (
	EventPaymentCreated   ReservationEvent = "PAYMENT_CREATED"
	EventProofUploaded    ReservationEvent = "PROOF_UPLOADED"
	EventPaymentConfirmed ReservationEvent = "PAYMENT_CONFIRMED"
	EventPaymentDenied    ReservationEvent = "PAYMENT_DENIED"
	EventCheckIn          ReservationEvent = "CHECK_IN"
	EventCheckOut         ReservationEvent = "CHECK_OUT"
	EventCancel           ReservationEvent = "CANCEL"
)

// Events lists every reservation event, in lifecycle order.
var Events = []ReservationEvent{
	EventPaymentCreated,
	EventProofUploaded,
	EventPaymentConfirmed,
	EventPaymentDenied,
	EventCheckIn,
	EventCheckOut,
	EventCancel,
}

type reservationTransition struct {
	from  ReservationStatus
	event ReservationEvent
}

// reservationTransitions is the complete set of legal moves; any pair missing
// here is rejected by NextReservationStatus.
var reservationTransitions = map[reservationTransition]ReservationStatus{
	{ReservationStatusPendingPayment, EventPaymentCreated}:   ReservationStatusAwaitingProof,
	{ReservationStatusPaymentRejected, EventPaymentCreated}:  ReservationStatusAwaitingProof,
	{ReservationStatusAwaitingProof, EventProofUploaded}:     ReservationStatusInReview,
	{ReservationStatusPaymentRejected, EventProofUploaded}:   ReservationStatusInReview,
	{ReservationStatusInReview, EventPaymentConfirmed}:       ReservationStatusConfirmed,
	{ReservationStatusAwaitingProof, EventPaymentConfirmed}:  ReservationStatusConfirmed,
	{ReservationStatusInReview, EventPaymentDenied}:          ReservationStatusPaymentRejected,
	{ReservationStatusConfirmed, EventCheckIn}:               ReservationStatusCheckedIn,
	{ReservationStatusCheckedIn, EventCheckOut}:              ReservationStatusCheckedOut,
	{ReservationStatusPendingPayment, EventCancel}:           ReservationStatusCancelled,
	{ReservationStatusAwaitingProof, EventCancel}:            ReservationStatusCancelled,
	{ReservationStatusInReview, EventCancel}:                 ReservationStatusCancelled,
	{ReservationStatusPaymentRejected, EventCancel}:          ReservationStatusCancelled,
	{ReservationStatusConfirmed, EventCancel}:                ReservationStatusCancelled,
}

// NextReservationStatus returns the status reached by applying event to current.
func NextReservationStatus(current ReservationStatus, event ReservationEvent) (ReservationStatus, error) {
	next, ok := reservationTransitions[reservationTransition{from: current, event: event}]
	if !ok {
		return current, fmt.Errorf("%w: reservation %s cannot handle %s", ErrInvalidTransition, current, event)
	}
	return next, nil
}

// CanApply reports whether event is legal from current.
func CanApply(current ReservationStatus, event ReservationEvent) bool {
	_, err := NextReservationStatus(current, event)
	return err == nil
}

// lifecycleRank orders the forward path so "already past" checks stay cheap.
var lifecycleRank = map[ReservationStatus]int{
	ReservationStatusPendingPayment:  0,
	ReservationStatusPaymentRejected: 1,
	ReservationStatusAwaitingProof:   1,
	ReservationStatusInReview:        2,
	ReservationStatusConfirmed:       3,
	ReservationStatusCheckedIn:       4,
	ReservationStatusCheckedOut:      5,
}

// reachedOrPassed reports whether current sits at or beyond target on the
// forward path. Cancelled reservations never qualify.
func reachedOrPassed(current ReservationStatus, target ReservationStatus) bool {
	currentRank, currentOK := lifecycleRank[current]
	targetRank, targetOK := lifecycleRank[target]
	if !currentOK || !targetOK {
		return false
	}
	if current == ReservationStatusPaymentRejected {
		return false
	}
	return currentRank >= targetRank
}

// NextStayStatus mirrors the reservation's check-in and check-out moves.
func NextStayStatus(current StayStatus, event ReservationEvent) (StayStatus, error) {
	switch {
	case current == StayStatusNotStarted && event == EventCheckIn:
		return StayStatusCheckedIn, nil
	case current == StayStatusCheckedIn && event == EventCheckOut:
		return StayStatusCheckedOut, nil
	default:
		return current, fmt.Errorf("%w: stay %s cannot handle %s", ErrInvalidTransition, current, event)
	}
}
