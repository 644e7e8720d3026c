package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransitionResult is the outcome of a lifecycle trigger. Replayed marks a
// retried request that found the work already done and changed nothing.
type TransitionResult struct {
	Success           bool
	ReservationID     ReservationID
	PaymentID         PaymentID
	ProofID           ProofID
	ReservationStatus ReservationStatus
	StayStatus        StayStatus
	PointsCredited    int64
	Replayed          bool
}

// PaymentRequest registers a payment against a reservation.
type PaymentRequest struct {
	ReservationID        ReservationID
	AmountCents          int64
	Method               PaymentMethod
	GatewayTransactionID string
	Operator             OperatorID
}

// Engine drives Reservation, Payment, Proof and Stay through their lifecycle.
// Every trigger runs under the reservation's lock and inside one store
// transaction, so a failure leaves all four entities untouched.
type Engine struct {
	store   Store
	locks   *LockManager
	nowFn   func() time.Time
	options serviceOptions
}

// NewEngine wires an Engine.
func NewEngine(store Store, locks *LockManager, now func() time.Time, options ...ServiceOption) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if locks == nil {
		return nil, fmt.Errorf("%w: lock manager dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &Engine{store: store, locks: locks, nowFn: now, options: applyOptions(options)}, nil
}

type transitionFunc func(ctx context.Context, transactionStore Store, result *TransitionResult) error

// PaymentCreated records a PENDING payment and moves the reservation to
// AWAITING_PROOF. Reservations already past that point are left untouched.
func (engine *Engine) PaymentCreated(ctx context.Context, request PaymentRequest) (TransitionResult, error) {
	if request.AmountCents <= 0 {
		return TransitionResult{}, fmt.Errorf("%w: payment amount must be greater than zero", ErrInvalidAmount)
	}
	if _, err := ParsePaymentMethod(request.Method.String()); err != nil {
		return TransitionResult{}, err
	}
	transactionID := strings.TrimSpace(request.GatewayTransactionID)
	return engine.run(ctx, operationPaymentCreated, request.ReservationID, request.Operator, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		reservation, err := transactionStore.GetReservation(ctx, request.ReservationID)
		if err != nil {
			return err
		}
		payments, err := transactionStore.ListPayments(ctx, reservation.ID)
		if err != nil {
			return err
		}
		if transactionID != "" {
			for _, payment := range payments {
				if payment.GatewayTransactionID == transactionID {
					result.PaymentID = payment.ID
					result.Replayed = true
					return engine.describe(ctx, transactionStore, reservation, result)
				}
			}
		}
		next, err := NextReservationStatus(reservation.Status, EventPaymentCreated)
		if err != nil {
			if !reachedOrPassed(reservation.Status, ReservationStatusAwaitingProof) {
				return err
			}
			if reservation.Status != ReservationStatusAwaitingProof || hasOpenPayment(payments) {
				if len(payments) > 0 {
					result.PaymentID = payments[len(payments)-1].ID
				}
				result.Replayed = true
				return engine.describe(ctx, transactionStore, reservation, result)
			}
			// every earlier payment was denied by the gateway; take a fresh one
			next = reservation.Status
		}
		paymentID, err := NewPaymentID(engine.options.identifiers())
		if err != nil {
			return err
		}
		nowUTC := engine.nowFn().UTC()
		if err := transactionStore.CreatePayment(ctx, Payment{
			ID:                   paymentID,
			ReservationID:        reservation.ID,
			AmountCents:          request.AmountCents,
			Method:               request.Method,
			Status:               PaymentStatusPending,
			GatewayTransactionID: transactionID,
			CreatedAt:            nowUTC,
			UpdatedAt:            nowUTC,
		}); err != nil {
			return err
		}
		if next != reservation.Status {
			if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
				return err
			}
			reservation.Status = next
		}
		result.PaymentID = paymentID
		return engine.describe(ctx, transactionStore, reservation, result)
	})
}

// ProofUploaded attaches a proof of payment and puts reservation and proof
// IN_REVIEW. A resubmission after rejection reopens the denied payment.
func (engine *Engine) ProofUploaded(ctx context.Context, paymentID PaymentID, fileRef string, operator OperatorID) (TransitionResult, error) {
	fileRef = strings.TrimSpace(fileRef)
	if fileRef == "" {
		return TransitionResult{}, fmt.Errorf("%w: empty value", ErrInvalidFileReference)
	}
	payment, err := engine.store.GetPayment(ctx, paymentID)
	if err != nil {
		return TransitionResult{}, err
	}
	return engine.run(ctx, operationProofUploaded, payment.ReservationID, operator, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		payment, err := transactionStore.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		reservation, err := transactionStore.GetReservation(ctx, payment.ReservationID)
		if err != nil {
			return err
		}
		result.PaymentID = payment.ID
		if reservation.Status == ReservationStatusInReview {
			proofs, err := transactionStore.ListProofs(ctx, payment.ID)
			if err != nil {
				return err
			}
			for _, proof := range proofs {
				if proof.Status == ProofStatusInReview && proof.FileRef == fileRef {
					result.ProofID = proof.ID
					result.Replayed = true
					return engine.describe(ctx, transactionStore, reservation, result)
				}
			}
		}
		next, err := NextReservationStatus(reservation.Status, EventProofUploaded)
		if err != nil {
			return err
		}
		switch {
		case payment.Status == PaymentStatusPending:
		case payment.Status == PaymentStatusDenied && reservation.Status == ReservationStatusPaymentRejected:
			if err := transactionStore.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusDenied, PaymentStatusPending); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: payment %s is %s", ErrInvalidTransition, payment.ID, payment.Status)
		}
		proofID, err := NewProofID(engine.options.identifiers())
		if err != nil {
			return err
		}
		if err := transactionStore.CreateProof(ctx, Proof{
			ID:        proofID,
			PaymentID: payment.ID,
			FileRef:   fileRef,
			Status:    ProofStatusInReview,
			CreatedAt: engine.nowFn().UTC(),
		}); err != nil {
			return err
		}
		if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
			return err
		}
		reservation.Status = next
		result.ProofID = proofID
		return engine.describe(ctx, transactionStore, reservation, result)
	})
}

// ProofApproved confirms proof, payment and reservation together and makes
// sure the stay exists.
func (engine *Engine) ProofApproved(ctx context.Context, proofID ProofID, reviewer OperatorID) (TransitionResult, error) {
	if reviewer.String() == "" {
		return TransitionResult{}, fmt.Errorf("%w: reviewer is required", ErrInvalidOperatorID)
	}
	reservationID, err := engine.reservationForProof(ctx, proofID)
	if err != nil {
		return TransitionResult{}, err
	}
	return engine.run(ctx, operationProofApproved, reservationID, reviewer, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		proof, payment, reservation, err := loadProofChain(ctx, transactionStore, proofID)
		if err != nil {
			return err
		}
		result.ProofID = proof.ID
		result.PaymentID = payment.ID
		if proof.Status == ProofStatusApproved {
			result.Replayed = true
			return engine.describe(ctx, transactionStore, reservation, result)
		}
		if proof.Status != ProofStatusInReview {
			return fmt.Errorf("%w: proof %s is %s", ErrProofNotInReview, proof.ID, proof.Status)
		}
		if err := engine.confirm(ctx, transactionStore, payment, &reservation); err != nil {
			return err
		}
		if err := engine.closeProof(ctx, transactionStore, proof, ProofStatusApproved, reviewer, ""); err != nil {
			return err
		}
		return engine.describe(ctx, transactionStore, reservation, result)
	})
}

// ProofRejected rejects the proof, denies its payment and moves the
// reservation to PAYMENT_REJECTED so the client can resubmit.
func (engine *Engine) ProofRejected(ctx context.Context, proofID ProofID, reviewer OperatorID, note string) (TransitionResult, error) {
	if reviewer.String() == "" {
		return TransitionResult{}, fmt.Errorf("%w: reviewer is required", ErrInvalidOperatorID)
	}
	reservationID, err := engine.reservationForProof(ctx, proofID)
	if err != nil {
		return TransitionResult{}, err
	}
	return engine.run(ctx, operationProofRejected, reservationID, reviewer, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		proof, payment, reservation, err := loadProofChain(ctx, transactionStore, proofID)
		if err != nil {
			return err
		}
		result.ProofID = proof.ID
		result.PaymentID = payment.ID
		if proof.Status == ProofStatusRejected {
			result.Replayed = true
			return engine.describe(ctx, transactionStore, reservation, result)
		}
		if proof.Status != ProofStatusInReview {
			return fmt.Errorf("%w: proof %s is %s", ErrProofNotInReview, proof.ID, proof.Status)
		}
		if err := engine.deny(ctx, transactionStore, payment, &reservation); err != nil {
			return err
		}
		if err := engine.closeProof(ctx, transactionStore, proof, ProofStatusRejected, reviewer, note); err != nil {
			return err
		}
		return engine.describe(ctx, transactionStore, reservation, result)
	})
}

// CheckIn requires a CONFIRMED reservation, a confirmed payment and a FREE
// room. It occupies the room and starts the stay, creating it if missing.
func (engine *Engine) CheckIn(ctx context.Context, reservationID ReservationID, operator OperatorID, occupants int) (TransitionResult, error) {
	if operator.String() == "" {
		return TransitionResult{}, fmt.Errorf("%w: operator is required", ErrInvalidOperatorID)
	}
	if occupants < 0 {
		return TransitionResult{}, fmt.Errorf("%w: %d", ErrInvalidOccupants, occupants)
	}
	result, err := engine.run(ctx, operationCheckIn, reservationID, operator, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		next, err := NextReservationStatus(reservation.Status, EventCheckIn)
		if err != nil {
			return err
		}
		confirmed, err := hasConfirmedPayment(ctx, transactionStore, reservation.ID)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("%w: reservation %s", ErrNoConfirmedPayment, reservation.Code)
		}
		room, err := transactionStore.GetRoom(ctx, reservation.Room)
		if err != nil {
			return err
		}
		if room.Status != RoomStatusFree {
			return fmt.Errorf("%w: room %s is %s", ErrRoomNotFree, room.Number, room.Status)
		}
		stay, err := ensureStay(ctx, transactionStore, reservation)
		if err != nil {
			return err
		}
		nextStay, err := NextStayStatus(stay.Status, EventCheckIn)
		if err != nil {
			return err
		}
		if err := transactionStore.UpdateRoomStatus(ctx, room.Number, RoomStatusFree, RoomStatusOccupied); err != nil {
			return err
		}
		previousStay := stay.Status
		stay.Status = nextStay
		stay.CheckedInAt = engine.nowFn().UTC()
		stay.CheckedInBy = operator.String()
		if occupants > 0 {
			stay.Occupants = occupants
		}
		if err := transactionStore.UpdateStay(ctx, stay, previousStay); err != nil {
			return err
		}
		if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
			return err
		}
		reservation.Status = next
		return engine.describe(ctx, transactionStore, reservation, result)
	})
	if err == nil {
		engine.notifyReservation(ctx, notificationCheckedIn, reservationID)
	}
	return result, err
}

// CheckOut ends the stay, frees the room and credits loyalty points once.
// Repeating it on a finished stay is a no-op that reports the final state.
func (engine *Engine) CheckOut(ctx context.Context, reservationID ReservationID, operator OperatorID) (TransitionResult, error) {
	if operator.String() == "" {
		return TransitionResult{}, fmt.Errorf("%w: operator is required", ErrInvalidOperatorID)
	}
	result, err := engine.run(ctx, operationCheckOut, reservationID, operator, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		stay, err := transactionStore.GetStay(ctx, reservation.ID)
		if err != nil && !errors.Is(err, ErrUnknownStay) {
			return err
		}
		if stay.Status == StayStatusCheckedOut && reservation.Status == ReservationStatusCheckedOut {
			result.Replayed = true
			return engine.describe(ctx, transactionStore, reservation, result)
		}
		if stay.Status != StayStatusCheckedIn {
			return fmt.Errorf("%w: reservation %s stay is %s", ErrStayNotCheckedIn, reservation.Code, displayStayStatus(stay.Status))
		}
		next, err := NextReservationStatus(reservation.Status, EventCheckOut)
		if err != nil {
			return err
		}
		nextStay, err := NextStayStatus(stay.Status, EventCheckOut)
		if err != nil {
			return err
		}
		nowUTC := engine.nowFn().UTC()
		stay.Status = nextStay
		stay.CheckedOutAt = nowUTC
		stay.CheckedOutBy = operator.String()
		if err := transactionStore.UpdateStay(ctx, stay, StayStatusCheckedIn); err != nil {
			return err
		}
		if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
			return err
		}
		reservation.Status = next
		room, err := transactionStore.GetRoom(ctx, reservation.Room)
		if err != nil {
			return err
		}
		if room.Status == RoomStatusOccupied {
			if err := transactionStore.UpdateRoomStatus(ctx, room.Number, RoomStatusOccupied, RoomStatusFree); err != nil {
				return err
			}
		}
		points, err := creditCheckout(ctx, transactionStore, reservation, room.Tier, operator.String(), engine.options.identifiers(), nowUTC)
		if err != nil {
			return err
		}
		result.PointsCredited = points
		return engine.describe(ctx, transactionStore, reservation, result)
	})
	if err == nil && !result.Replayed {
		engine.notifyReservation(ctx, notificationCheckedOut, reservationID)
	}
	return result, err
}

// Cancel cancels a reservation that has not been checked in. Pending payments
// are denied and open proofs rejected in the same transaction; confirmed
// payments are left for external refund handling.
func (engine *Engine) Cancel(ctx context.Context, reservationID ReservationID, operator OperatorID, reason string) (TransitionResult, error) {
	if operator.String() == "" {
		return TransitionResult{}, fmt.Errorf("%w: operator is required", ErrInvalidOperatorID)
	}
	result, err := engine.run(ctx, operationCancel, reservationID, operator, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.Status == ReservationStatusCancelled {
			result.Replayed = true
			return engine.describe(ctx, transactionStore, reservation, result)
		}
		next, err := NextReservationStatus(reservation.Status, EventCancel)
		if err != nil {
			return err
		}
		payments, err := transactionStore.ListPayments(ctx, reservation.ID)
		if err != nil {
			return err
		}
		for _, payment := range payments {
			proofs, err := transactionStore.ListProofs(ctx, payment.ID)
			if err != nil {
				return err
			}
			for _, proof := range proofs {
				if proof.Status != ProofStatusAwaiting && proof.Status != ProofStatusInReview {
					continue
				}
				if err := engine.closeProof(ctx, transactionStore, proof, ProofStatusRejected, operator, reason); err != nil {
					return err
				}
			}
			if payment.Status == PaymentStatusPending {
				if err := transactionStore.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusPending, PaymentStatusDenied); err != nil {
					return err
				}
			}
		}
		if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
			return err
		}
		reservation.Status = next
		return engine.describe(ctx, transactionStore, reservation, result)
	})
	if err == nil && !result.Replayed {
		engine.notifyReservation(ctx, notificationCancelled, reservationID)
	}
	return result, err
}

// ReconcilePayment applies the gateway's settlement verdict for a payment.
// The gateway is queried before any lock is taken.
func (engine *Engine) ReconcilePayment(ctx context.Context, paymentID PaymentID, operator OperatorID) (TransitionResult, error) {
	if engine.options.gateway == nil {
		return TransitionResult{}, fmt.Errorf("%w: no gateway configured", ErrGatewayUnavailable)
	}
	payment, err := engine.store.GetPayment(ctx, paymentID)
	if err != nil {
		return TransitionResult{}, err
	}
	if payment.GatewayTransactionID == "" {
		return TransitionResult{}, fmt.Errorf("%w: payment %s", ErrMissingTransactionID, payment.ID)
	}
	verdict, err := engine.options.gateway.PaymentStatus(ctx, payment.GatewayTransactionID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	return engine.run(ctx, operationReconcilePayment, payment.ReservationID, operator, func(ctx context.Context, transactionStore Store, result *TransitionResult) error {
		payment, err := transactionStore.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		reservation, err := transactionStore.GetReservation(ctx, payment.ReservationID)
		if err != nil {
			return err
		}
		result.PaymentID = payment.ID
		proofs, err := transactionStore.ListProofs(ctx, payment.ID)
		if err != nil {
			return err
		}
		switch verdict {
		case GatewayStatusConfirmed:
			if payment.Status == PaymentStatusConfirmed && reachedOrPassed(reservation.Status, ReservationStatusConfirmed) {
				result.Replayed = true
				break
			}
			if err := engine.confirm(ctx, transactionStore, payment, &reservation); err != nil {
				return err
			}
			for _, proof := range proofs {
				if proof.Status == ProofStatusInReview {
					if err := engine.closeProof(ctx, transactionStore, proof, ProofStatusApproved, operator, ""); err != nil {
						return err
					}
				}
			}
		case GatewayStatusDenied:
			if payment.Status == PaymentStatusDenied {
				result.Replayed = true
				break
			}
			if err := engine.deny(ctx, transactionStore, payment, &reservation); err != nil {
				return err
			}
			for _, proof := range proofs {
				if proof.Status == ProofStatusInReview || proof.Status == ProofStatusAwaiting {
					if err := engine.closeProof(ctx, transactionStore, proof, ProofStatusRejected, operator, "denied by gateway"); err != nil {
						return err
					}
				}
			}
		case GatewayStatusPending:
		default:
			return fmt.Errorf("%w: gateway status %q", ErrInvalidStatus, verdict)
		}
		return engine.describe(ctx, transactionStore, reservation, result)
	})
}

func (engine *Engine) run(ctx context.Context, operation string, reservationID ReservationID, operator OperatorID, fn transitionFunc) (TransitionResult, error) {
	result := TransitionResult{ReservationID: reservationID}
	operationError := engine.locks.WithReservationLock(ctx, reservationID, func(ctx context.Context) error {
		return engine.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			return fn(ctx, transactionStore, &result)
		})
	})
	if operationError != nil {
		result = TransitionResult{ReservationID: reservationID}
	} else {
		result.Success = true
	}
	engine.options.logOperation(ctx, OperationLog{
		Operation:         operation,
		ReservationID:     reservationID.String(),
		Operator:          operator.String(),
		ReservationStatus: result.ReservationStatus,
		StayStatus:        result.StayStatus,
		PointsCredited:    result.PointsCredited,
		Replayed:          result.Replayed,
		Error:             operationError,
	}, engine.nowFn())
	return result, operationError
}

// confirm moves a payment to CONFIRMED and the reservation to CONFIRMED,
// creating the stay when missing. Reservations already confirmed or beyond
// keep their status.
func (engine *Engine) confirm(ctx context.Context, transactionStore Store, payment Payment, reservation *Reservation) error {
	switch payment.Status {
	case PaymentStatusPending:
		if err := transactionStore.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusPending, PaymentStatusConfirmed); err != nil {
			return err
		}
	case PaymentStatusConfirmed:
	default:
		return fmt.Errorf("%w: payment %s is %s", ErrInvalidTransition, payment.ID, payment.Status)
	}
	if !reachedOrPassed(reservation.Status, ReservationStatusConfirmed) {
		next, err := NextReservationStatus(reservation.Status, EventPaymentConfirmed)
		if err != nil {
			return err
		}
		if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
			return err
		}
		reservation.Status = next
	}
	_, err := ensureStay(ctx, transactionStore, *reservation)
	return err
}

// deny moves a pending payment to DENIED and an IN_REVIEW reservation to
// PAYMENT_REJECTED.
func (engine *Engine) deny(ctx context.Context, transactionStore Store, payment Payment, reservation *Reservation) error {
	if payment.Status != PaymentStatusPending {
		return fmt.Errorf("%w: payment %s is %s", ErrInvalidTransition, payment.ID, payment.Status)
	}
	if err := transactionStore.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusPending, PaymentStatusDenied); err != nil {
		return err
	}
	if reservation.Status != ReservationStatusInReview {
		return nil
	}
	next, err := NextReservationStatus(reservation.Status, EventPaymentDenied)
	if err != nil {
		return err
	}
	if err := transactionStore.UpdateReservationStatus(ctx, reservation.ID, reservation.Status, next); err != nil {
		return err
	}
	reservation.Status = next
	return nil
}

func (engine *Engine) closeProof(ctx context.Context, transactionStore Store, proof Proof, status ProofStatus, reviewer OperatorID, note string) error {
	previous := proof.Status
	proof.Status = status
	proof.ReviewedBy = reviewer.String()
	proof.ReviewedAt = engine.nowFn().UTC()
	proof.Note = strings.TrimSpace(note)
	return transactionStore.UpdateProof(ctx, proof, previous)
}

// describe fills the result with the reservation's current status and its stay's.
func (engine *Engine) describe(ctx context.Context, transactionStore Store, reservation Reservation, result *TransitionResult) error {
	result.ReservationID = reservation.ID
	result.ReservationStatus = reservation.Status
	stay, err := transactionStore.GetStay(ctx, reservation.ID)
	switch {
	case err == nil:
		result.StayStatus = stay.Status
	case errors.Is(err, ErrUnknownStay):
		result.StayStatus = ""
	default:
		return err
	}
	return nil
}

func (engine *Engine) reservationForProof(ctx context.Context, proofID ProofID) (ReservationID, error) {
	proof, err := engine.store.GetProof(ctx, proofID)
	if err != nil {
		return ReservationID{}, err
	}
	payment, err := engine.store.GetPayment(ctx, proof.PaymentID)
	if err != nil {
		return ReservationID{}, err
	}
	return payment.ReservationID, nil
}

func (engine *Engine) notifyReservation(ctx context.Context, event string, reservationID ReservationID) {
	if engine.options.notifier == nil {
		return
	}
	reservation, err := engine.store.GetReservation(ctx, reservationID)
	if err != nil {
		engine.options.logOperation(ctx, OperationLog{
			Operation:     operationNotify,
			ReservationID: reservationID.String(),
			Error:         err,
		}, engine.nowFn())
		return
	}
	engine.options.notify(ctx, Notification{
		Event:         event,
		ReservationID: reservation.ID.String(),
		Code:          reservation.Code,
		Room:          reservation.Room.String(),
		ClientID:      reservation.ClientID.String(),
		OccurredAt:    engine.nowFn().UTC(),
	})
}

func loadProofChain(ctx context.Context, store Store, proofID ProofID) (Proof, Payment, Reservation, error) {
	proof, err := store.GetProof(ctx, proofID)
	if err != nil {
		return Proof{}, Payment{}, Reservation{}, err
	}
	payment, err := store.GetPayment(ctx, proof.PaymentID)
	if err != nil {
		return Proof{}, Payment{}, Reservation{}, err
	}
	reservation, err := store.GetReservation(ctx, payment.ReservationID)
	if err != nil {
		return Proof{}, Payment{}, Reservation{}, err
	}
	return proof, payment, reservation, nil
}

func ensureStay(ctx context.Context, store Store, reservation Reservation) (Stay, error) {
	stay, err := store.GetStay(ctx, reservation.ID)
	if err == nil {
		return stay, nil
	}
	if !errors.Is(err, ErrUnknownStay) {
		return Stay{}, err
	}
	stay = Stay{
		ReservationID: reservation.ID,
		Status:        StayStatusNotStarted,
		Occupants:     reservation.Occupants,
	}
	if err := store.CreateStay(ctx, stay); err != nil {
		return Stay{}, err
	}
	return stay, nil
}

func hasConfirmedPayment(ctx context.Context, store Store, reservationID ReservationID) (bool, error) {
	payments, err := store.ListPayments(ctx, reservationID)
	if err != nil {
		return false, err
	}
	for _, payment := range payments {
		if payment.Status == PaymentStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func hasOpenPayment(payments []Payment) bool {
	for _, payment := range payments {
		if payment.Status != PaymentStatusDenied {
			return true
		}
	}
	return false
}

func displayStayStatus(status StayStatus) string {
	if status == "" {
		return "missing"
	}
	return status.String()
}
