package booking

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfClassifiesDomainErrors(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		err  error
		want ErrorKind
	}{
		{err: nil, want: ""},
		{err: ErrInvalidInterval, want: KindValidation},
		{err: fmt.Errorf("wrapped: %w", ErrInvalidAmount), want: KindValidation},
		{err: ErrDuplicateTransactionID, want: KindConflict},
		{err: &ConflictError{}, want: KindConflict},
		{err: ErrNoConfirmedPayment, want: KindPrecondition},
		{err: ErrInvalidTransition, want: KindPrecondition},
		{err: ErrUnknownReservation, want: KindNotFound},
		{err: ErrRoomBusy, want: KindBusy},
		{err: Inconsistency{Code: InconsistencyStayMissing}, want: KindConsistency},
		{err: ErrGatewayUnavailable, want: KindInternal},
		{err: errors.New("disk on fire"), want: KindInternal},
	}
	for _, testCase := range testCases {
		if got := KindOf(testCase.err); got != testCase.want {
			test.Fatalf("KindOf(%v) = %q, want %q", testCase.err, got, testCase.want)
		}
	}
}

func TestConflictErrorListsCodes(test *testing.T) {
	test.Parallel()
	conflictError := &ConflictError{
		Room:      mustRoom(test, roomLuxoValue),
		Conflicts: []ReservationSummary{{Code: "HSP-AAAA"}, {Code: "HSP-BBBB"}},
	}
	var err error = conflictError
	if !errors.Is(err, ErrRoomUnavailable) {
		test.Fatalf("conflict error should unwrap to room unavailable: %v", err)
	}
	var target *ConflictError
	if !errors.As(fmt.Errorf("create: %w", err), &target) || len(target.Conflicts) != 2 {
		test.Fatalf("conflict error should survive wrapping")
	}
	for _, fragment := range []string{"room unavailable", "room 101", "[HSP-AAAA,HSP-BBBB]"} {
		if !strings.Contains(err.Error(), fragment) {
			test.Fatalf("message %q is missing %q", err.Error(), fragment)
		}
	}
}

func TestWrapErrorKeepsSegments(test *testing.T) {
	test.Parallel()
	if WrapError("booking", "payment", "create", nil) != nil {
		test.Fatalf("wrapping nil must stay nil")
	}
	err := WrapError("booking", "payment", "create", ErrDuplicateTransactionID)
	var operationError OperationError
	if !errors.As(err, &operationError) {
		test.Fatalf("expected OperationError, got %T", err)
	}
	if operationError.Operation() != "booking" || operationError.Subject() != "payment" || operationError.Code() != "create" {
		test.Fatalf("unexpected segments: %+v", operationError)
	}
	if !errors.Is(err, ErrDuplicateTransactionID) || KindOf(err) != KindConflict {
		test.Fatalf("wrapped error should keep its kind: %v", err)
	}
}
