package booking

import (
	"errors"
	"testing"
)

func TestNextReservationStatusIsTotal(test *testing.T) {
	test.Parallel()
	expected := map[reservationTransition]ReservationStatus{
		{ReservationStatusPendingPayment, EventPaymentCreated}:  ReservationStatusAwaitingProof,
		{ReservationStatusPaymentRejected, EventPaymentCreated}: ReservationStatusAwaitingProof,
		{ReservationStatusAwaitingProof, EventProofUploaded}:    ReservationStatusInReview,
		{ReservationStatusPaymentRejected, EventProofUploaded}:  ReservationStatusInReview,
		{ReservationStatusInReview, EventPaymentConfirmed}:      ReservationStatusConfirmed,
		{ReservationStatusAwaitingProof, EventPaymentConfirmed}: ReservationStatusConfirmed,
		{ReservationStatusInReview, EventPaymentDenied}:         ReservationStatusPaymentRejected,
		{ReservationStatusConfirmed, EventCheckIn}:              ReservationStatusCheckedIn,
		{ReservationStatusCheckedIn, EventCheckOut}:             ReservationStatusCheckedOut,
		{ReservationStatusPendingPayment, EventCancel}:          ReservationStatusCancelled,
		{ReservationStatusAwaitingProof, EventCancel}:           ReservationStatusCancelled,
		{ReservationStatusInReview, EventCancel}:                ReservationStatusCancelled,
		{ReservationStatusPaymentRejected, EventCancel}:         ReservationStatusCancelled,
		{ReservationStatusConfirmed, EventCancel}:               ReservationStatusCancelled,
	}
	for _, status := range reservationStatuses {
		for _, event := range Events {
			next, err := NextReservationStatus(status, event)
			want, legal := expected[reservationTransition{from: status, event: event}]
			if legal {
				if err != nil || next != want {
					test.Fatalf("%s on %s: expected %s, got %s (%v)", event, status, want, next, err)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				test.Fatalf("%s on %s: expected invalid transition, got %v", event, status, err)
			}
			if next != status {
				test.Fatalf("%s on %s: rejected transition must keep status, got %s", event, status, next)
			}
			if KindOf(err) != KindPrecondition {
				test.Fatalf("expected precondition kind, got %s", KindOf(err))
			}
		}
	}
}

func TestTerminalStatusesAcceptNothing(test *testing.T) {
	test.Parallel()
	for _, status := range []ReservationStatus{ReservationStatusCheckedOut, ReservationStatusCancelled} {
		if !status.IsTerminal() {
			test.Fatalf("%s should be terminal", status)
		}
		for _, event := range Events {
			if CanApply(status, event) {
				test.Fatalf("terminal %s accepted %s", status, event)
			}
		}
	}
}

func TestCheckedInCannotBeCancelled(test *testing.T) {
	test.Parallel()
	if CanApply(ReservationStatusCheckedIn, EventCancel) {
		test.Fatalf("checked-in reservations must check out instead of cancelling")
	}
}

func TestNextStayStatus(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name    string
		current StayStatus
		event   ReservationEvent
		want    StayStatus
		wantErr bool
	}{
		{name: "check in", current: StayStatusNotStarted, event: EventCheckIn, want: StayStatusCheckedIn},
		{name: "check out", current: StayStatusCheckedIn, event: EventCheckOut, want: StayStatusCheckedOut},
		{name: "check out before check in", current: StayStatusNotStarted, event: EventCheckOut, wantErr: true},
		{name: "double check in", current: StayStatusCheckedIn, event: EventCheckIn, wantErr: true},
		{name: "unrelated event", current: StayStatusNotStarted, event: EventCancel, wantErr: true},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			next, err := NextStayStatus(testCase.current, testCase.event)
			if testCase.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					test.Fatalf("expected invalid transition, got %v", err)
				}
				return
			}
			if err != nil || next != testCase.want {
				test.Fatalf("expected %s, got %s (%v)", testCase.want, next, err)
			}
		})
	}
}

func TestReachedOrPassed(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		current ReservationStatus
		target  ReservationStatus
		want    bool
	}{
		{ReservationStatusInReview, ReservationStatusAwaitingProof, true},
		{ReservationStatusAwaitingProof, ReservationStatusAwaitingProof, true},
		{ReservationStatusPendingPayment, ReservationStatusAwaitingProof, false},
		{ReservationStatusPaymentRejected, ReservationStatusAwaitingProof, false},
		{ReservationStatusCancelled, ReservationStatusAwaitingProof, false},
		{ReservationStatusCheckedOut, ReservationStatusConfirmed, true},
	}
	for _, testCase := range testCases {
		if got := reachedOrPassed(testCase.current, testCase.target); got != testCase.want {
			test.Fatalf("reachedOrPassed(%s, %s) = %v", testCase.current, testCase.target, got)
		}
	}
}
