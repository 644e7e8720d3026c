package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures for callers that map them onto transports.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindPrecondition ErrorKind = "precondition"
	KindNotFound     ErrorKind = "not_found"
	KindBusy         ErrorKind = "busy"
	KindConsistency  ErrorKind = "consistency"
	KindInternal     ErrorKind = "internal"
)

// Kind sentinels. Every domain error below wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrNotFound     = errors.New("not found")
	ErrBusy         = errors.New("temporarily busy, retry")
	ErrConsistency  = errors.New("consistency violation")
)

// Domain-level error values returned by the booking services.
var (
	ErrInvalidRoomNumber       = kindError(ErrValidation, "invalid room number")
	ErrInvalidReservationID    = kindError(ErrValidation, "invalid reservation id")
	ErrInvalidClientID         = kindError(ErrValidation, "invalid client id")
	ErrInvalidPaymentID        = kindError(ErrValidation, "invalid payment id")
	ErrInvalidProofID          = kindError(ErrValidation, "invalid proof id")
	ErrInvalidOperatorID       = kindError(ErrValidation, "invalid operator id")
	ErrInvalidInterval         = kindError(ErrValidation, "invalid interval")
	ErrInvalidAmount           = kindError(ErrValidation, "invalid amount")
	ErrInvalidOccupants        = kindError(ErrValidation, "invalid occupant count")
	ErrInvalidStatus           = kindError(ErrValidation, "invalid status")
	ErrInvalidFileReference    = kindError(ErrValidation, "invalid file reference")
	ErrInvalidResolution       = kindError(ErrValidation, "invalid conflict resolution")
	ErrInvalidServiceConfig    = kindError(ErrValidation, "invalid service config")
	ErrRoomUnavailable         = kindError(ErrConflict, "room unavailable")
	ErrRoomBlocked             = kindError(ErrConflict, "room blocked")
	ErrDuplicateTransactionID  = kindError(ErrConflict, "duplicate gateway transaction id")
	ErrDuplicateLoyaltyCredit  = kindError(ErrConflict, "duplicate loyalty credit")
	ErrReservationCodeTaken    = kindError(ErrConflict, "reservation code taken")
	ErrConcurrentUpdate        = kindError(ErrConflict, "concurrent update")
	ErrInvalidTransition       = kindError(ErrPrecondition, "invalid transition")
	ErrNoConfirmedPayment      = kindError(ErrPrecondition, "no confirmed payment")
	ErrRoomNotFree             = kindError(ErrPrecondition, "room not free")
	ErrStayNotCheckedIn        = kindError(ErrPrecondition, "stay not checked in")
	ErrProofNotInReview        = kindError(ErrPrecondition, "proof not in review")
	ErrMissingTransactionID    = kindError(ErrPrecondition, "payment has no gateway transaction id")
	ErrConflictResolved        = kindError(ErrPrecondition, "conflict no longer present")
	ErrInsufficientPoints      = kindError(ErrPrecondition, "insufficient loyalty points")
	ErrUnknownRoom             = kindError(ErrNotFound, "unknown room")
	ErrUnknownReservation      = kindError(ErrNotFound, "unknown reservation")
	ErrUnknownPayment          = kindError(ErrNotFound, "unknown payment")
	ErrUnknownProof            = kindError(ErrNotFound, "unknown proof")
	ErrUnknownStay             = kindError(ErrNotFound, "unknown stay")
	ErrRoomBusy                = kindError(ErrBusy, "room lock busy")
	ErrReservationBusy         = kindError(ErrBusy, "reservation lock busy")
	ErrCodeGenerationExhausted = errors.New("reservation code generation exhausted")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
)

func kindError(kind error, message string) error {
	return fmt.Errorf("%w: %s", kind, message)
}

// KindOf reports the taxonomy kind of err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrConsistency):
		return KindConsistency
	default:
		return KindInternal
	}
}

// ConflictError reports a room that cannot take the requested interval and the
// reservations standing in the way.
type ConflictError struct {
	Room      RoomNumber
	Interval  Interval
	Conflicts []ReservationSummary
}

// Error returns the formatted error message.
func (conflictError *ConflictError) Error() string {
	codes := make([]string, 0, len(conflictError.Conflicts))
	for _, conflict := range conflictError.Conflicts {
		codes = append(codes, conflict.Code)
	}
	return fmt.Sprintf("%v: room %s overlaps %d reservation(s) [%s]",
		ErrRoomUnavailable, conflictError.Room.String(), len(conflictError.Conflicts), strings.Join(codes, ","))
}

// Unwrap returns ErrRoomUnavailable.
func (conflictError *ConflictError) Unwrap() error {
	return ErrRoomUnavailable
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
