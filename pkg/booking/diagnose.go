package booking

import (
	"context"
	"errors"
	"fmt"
)

// Inconsistency codes reported by Diagnose.
const (
	InconsistencyStayMissing          = "stay_missing"
	InconsistencyPaymentAhead         = "payment_confirmed_reservation_behind"
	InconsistencyProofAhead           = "proof_approved_payment_unconfirmed"
	InconsistencyUnpaidConfirmation   = "reservation_confirmed_without_payment"
	InconsistencyStayMismatch         = "stay_reservation_mismatch"
	InconsistencyRoomNotOccupied      = "checked_in_room_not_occupied"
	InconsistencyLoyaltyCreditMissing = "checkout_credit_missing"
)

// Inconsistency is one violation of the cross-entity invariants.
type Inconsistency struct {
	Code   string
	Detail string
}

func (inconsistency Inconsistency) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConsistency, inconsistency.Code, inconsistency.Detail)
}

func (inconsistency Inconsistency) Unwrap() error {
	return ErrConsistency
}

// Diagnosis is a read-only snapshot of a reservation and everything attached to it.
type Diagnosis struct {
	Reservation     Reservation
	Room            Room
	Payments        []Payment
	Proofs          []Proof
	Stay            *Stay
	CheckoutCredit  *LoyaltyEntry
	Inconsistencies []Inconsistency
}

// Consistent reports whether no inconsistency was found.
func (diagnosis Diagnosis) Consistent() bool {
	return len(diagnosis.Inconsistencies) == 0
}

// Err joins every inconsistency into one error, nil when consistent.
func (diagnosis Diagnosis) Err() error {
	if diagnosis.Consistent() {
		return nil
	}
	joined := make([]error, 0, len(diagnosis.Inconsistencies))
	for _, inconsistency := range diagnosis.Inconsistencies {
		joined = append(joined, inconsistency)
	}
	return errors.Join(joined...)
}

// Diagnose collects the reservation's payments, proofs, stay and check-out
// credit and lists every invariant they break. It never writes.
func (engine *Engine) Diagnose(ctx context.Context, reservationID ReservationID) (Diagnosis, error) {
	reservation, err := engine.store.GetReservation(ctx, reservationID)
	if err != nil {
		return Diagnosis{}, err
	}
	room, err := engine.store.GetRoom(ctx, reservation.Room)
	if err != nil {
		return Diagnosis{}, err
	}
	payments, err := engine.store.ListPayments(ctx, reservation.ID)
	if err != nil {
		return Diagnosis{}, err
	}
	diagnosis := Diagnosis{Reservation: reservation, Room: room, Payments: payments, Proofs: make([]Proof, 0)}
	for _, payment := range payments {
		proofs, err := engine.store.ListProofs(ctx, payment.ID)
		if err != nil {
			return Diagnosis{}, err
		}
		diagnosis.Proofs = append(diagnosis.Proofs, proofs...)
	}
	stay, err := engine.store.GetStay(ctx, reservation.ID)
	switch {
	case err == nil:
		diagnosis.Stay = &stay
	case !errors.Is(err, ErrUnknownStay):
		return Diagnosis{}, err
	}
	credit, found, err := engine.store.FindLoyaltyEntry(ctx, reservation.ID, LoyaltySourceCheckout)
	if err != nil {
		return Diagnosis{}, err
	}
	if found {
		diagnosis.CheckoutCredit = &credit
	}
	diagnosis.Inconsistencies = inspect(diagnosis)
	return diagnosis, nil
}

func inspect(diagnosis Diagnosis) []Inconsistency {
	reservation := diagnosis.Reservation
	found := make([]Inconsistency, 0)
	report := func(code string, format string, arguments ...any) {
		found = append(found, Inconsistency{Code: code, Detail: fmt.Sprintf(format, arguments...)})
	}

	confirmedOrLater := reachedOrPassed(reservation.Status, ReservationStatusConfirmed)
	paymentsByID := make(map[PaymentID]Payment, len(diagnosis.Payments))
	paid := false
	for _, payment := range diagnosis.Payments {
		paymentsByID[payment.ID] = payment
		if payment.Status != PaymentStatusConfirmed {
			continue
		}
		paid = true
		if !confirmedOrLater && reservation.Status != ReservationStatusCancelled {
			report(InconsistencyPaymentAhead, "payment %s is CONFIRMED but reservation %s is %s", payment.ID, reservation.Code, reservation.Status)
		}
	}
	for _, proof := range diagnosis.Proofs {
		payment := paymentsByID[proof.PaymentID]
		if proof.Status == ProofStatusApproved && payment.Status != PaymentStatusConfirmed {
			report(InconsistencyProofAhead, "proof %s is APPROVED but payment %s is %s", proof.ID, payment.ID, payment.Status)
		}
	}
	if confirmedOrLater && !paid {
		report(InconsistencyUnpaidConfirmation, "reservation %s is %s without a confirmed payment", reservation.Code, reservation.Status)
	}

	if diagnosis.Stay == nil {
		if confirmedOrLater {
			report(InconsistencyStayMissing, "reservation %s is %s but has no stay", reservation.Code, reservation.Status)
		}
	} else if expected, ok := expectedStayStatus(reservation.Status); ok && diagnosis.Stay.Status != expected {
		report(InconsistencyStayMismatch, "reservation %s is %s but stay is %s", reservation.Code, reservation.Status, diagnosis.Stay.Status)
	}

	if reservation.Status == ReservationStatusCheckedIn && diagnosis.Room.Status != RoomStatusOccupied {
		report(InconsistencyRoomNotOccupied, "reservation %s is CHECKED_IN but room %s is %s", reservation.Code, diagnosis.Room.Number, diagnosis.Room.Status)
	}
	if reservation.Status == ReservationStatusCheckedOut && diagnosis.CheckoutCredit == nil && PointsForStay(diagnosis.Room.Tier, reservation.Nights) > 0 {
		report(InconsistencyLoyaltyCreditMissing, "reservation %s is CHECKED_OUT without its loyalty credit", reservation.Code)
	}
	return found
}

// expectedStayStatus maps a reservation status onto the stay status it
// implies. Cancelled reservations imply nothing.
func expectedStayStatus(status ReservationStatus) (StayStatus, bool) {
	switch status {
	case ReservationStatusCheckedIn:
		return StayStatusCheckedIn, true
	case ReservationStatusCheckedOut:
		return StayStatusCheckedOut, true
	case ReservationStatusCancelled:
		return "", false
	default:
		return StayStatusNotStarted, true
	}
}
