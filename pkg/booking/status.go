package booking

import "fmt"

// RoomStatus defines the room's operational state.
type RoomStatus string

const (
	RoomStatusFree             RoomStatus = "FREE"
	RoomStatusOccupied         RoomStatus = "OCCUPIED"
	RoomStatusUnderMaintenance RoomStatus = "UNDER_MAINTENANCE"
	RoomStatusBlocked          RoomStatus = "BLOCKED"
)

// RoomTier defines the room class used for pricing and loyalty.
type RoomTier string

const (
	RoomTierStandard     RoomTier = "STANDARD"
	RoomTierSuperior     RoomTier = "SUPERIOR"
	RoomTierLuxo         RoomTier = "LUXO"
	RoomTierPresidencial RoomTier = "PRESIDENCIAL"
)

// ReservationStatus defines reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusPendingPayment  ReservationStatus = "PENDING_PAYMENT"
	ReservationStatusAwaitingProof   ReservationStatus = "AWAITING_PROOF"
	ReservationStatusInReview        ReservationStatus = "IN_REVIEW"
	ReservationStatusPaymentRejected ReservationStatus = "PAYMENT_REJECTED"
	ReservationStatusConfirmed       ReservationStatus = "CONFIRMED"
	ReservationStatusCheckedIn       ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut      ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled       ReservationStatus = "CANCELLED"
)

// PaymentStatus defines payment settlement state.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusDenied    PaymentStatus = "DENIED"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
)

// ProofStatus defines proof-of-payment review state.
type ProofStatus string

const (
	ProofStatusAwaiting ProofStatus = "AWAITING"
	ProofStatusInReview ProofStatus = "IN_REVIEW"
	ProofStatusApproved ProofStatus = "APPROVED"
	ProofStatusRejected ProofStatus = "REJECTED"
)

// StayStatus defines occupancy state.
type StayStatus string

const (
	StayStatusNotStarted StayStatus = "NOT_STARTED"
	StayStatusCheckedIn  StayStatus = "CHECKED_IN"
	StayStatusCheckedOut StayStatus = "CHECKED_OUT"
)

// LoyaltySource tags why a ledger entry exists.
type LoyaltySource string

const (
	LoyaltySourceCheckout         LoyaltySource = "CHECKOUT"
	LoyaltySourceManualAdjustment LoyaltySource = "MANUAL_ADJUSTMENT"
	LoyaltySourceRedemption       LoyaltySource = "REDEMPTION"
)

// ResolutionAction enumerates the back-office answers to an overbooking conflict.
type ResolutionAction string

const (
	ResolutionReassignRoom ResolutionAction = "REASSIGN_ROOM"
	ResolutionCancel       ResolutionAction = "CANCEL"
	ResolutionAcceptRisk   ResolutionAction = "ACCEPT_RISK"
)

var (
	roomStatuses        = []RoomStatus{RoomStatusFree, RoomStatusOccupied, RoomStatusUnderMaintenance, RoomStatusBlocked}
	roomTiers           = []RoomTier{RoomTierStandard, RoomTierSuperior, RoomTierLuxo, RoomTierPresidencial}
	reservationStatuses = []ReservationStatus{
		ReservationStatusPendingPayment,
		ReservationStatusAwaitingProof,
		ReservationStatusInReview,
		ReservationStatusPaymentRejected,
		ReservationStatusConfirmed,
		ReservationStatusCheckedIn,
		ReservationStatusCheckedOut,
		ReservationStatusCancelled,
	}
	paymentStatuses   = []PaymentStatus{PaymentStatusPending, PaymentStatusConfirmed, PaymentStatusDenied}
	paymentMethods    = []PaymentMethod{PaymentMethodPix, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCash}
	proofStatuses     = []ProofStatus{ProofStatusAwaiting, ProofStatusInReview, ProofStatusApproved, ProofStatusRejected}
	stayStatuses      = []StayStatus{StayStatusNotStarted, StayStatusCheckedIn, StayStatusCheckedOut}
	loyaltySources    = []LoyaltySource{LoyaltySourceCheckout, LoyaltySourceManualAdjustment, LoyaltySourceRedemption}
	resolutionActions = []ResolutionAction{ResolutionReassignRoom, ResolutionCancel, ResolutionAcceptRisk}
)

func parseEnum[T ~string](raw string, allowed []T, label string) (T, error) {
	for _, candidate := range allowed {
		if string(candidate) == raw {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidStatus, label, raw)
}

// ParseRoomStatus validates a persisted room status.
func ParseRoomStatus(raw string) (RoomStatus, error) {
	return parseEnum(raw, roomStatuses, "room status")
}

// ParseRoomTier validates a persisted room tier.
func ParseRoomTier(raw string) (RoomTier, error) {
	return parseEnum(raw, roomTiers, "room tier")
}

// ParseReservationStatus validates a persisted reservation status.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	return parseEnum(raw, reservationStatuses, "reservation status")
}

// ParsePaymentStatus validates a persisted payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	return parseEnum(raw, paymentStatuses, "payment status")
}

// ParsePaymentMethod validates a payment method.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	return parseEnum(raw, paymentMethods, "payment method")
}

// ParseProofStatus validates a persisted proof status.
func ParseProofStatus(raw string) (ProofStatus, error) {
	return parseEnum(raw, proofStatuses, "proof status")
}

// ParseStayStatus validates a persisted stay status.
func ParseStayStatus(raw string) (StayStatus, error) {
	return parseEnum(raw, stayStatuses, "stay status")
}

// ParseLoyaltySource validates a ledger source tag.
func ParseLoyaltySource(raw string) (LoyaltySource, error) {
	return parseEnum(raw, loyaltySources, "loyalty source")
}

// ParseResolutionAction validates a conflict resolution action.
func ParseResolutionAction(raw string) (ResolutionAction, error) {
	return parseEnum(raw, resolutionActions, "resolution action")
}

func (status RoomStatus) String() string        { return string(status) }
func (tier RoomTier) String() string            { return string(tier) }
func (status ReservationStatus) String() string { return string(status) }
func (status PaymentStatus) String() string     { return string(status) }
func (method PaymentMethod) String() string     { return string(method) }
func (status ProofStatus) String() string       { return string(status) }
func (status StayStatus) String() string        { return string(status) }
func (source LoyaltySource) String() string     { return string(source) }
func (action ResolutionAction) String() string  { return string(action) }

// IsActive reports whether a reservation in this status holds its room interval.
func (status ReservationStatus) IsActive() bool {
	switch status {
	case ReservationStatusPendingPayment,
		ReservationStatusAwaitingProof,
		ReservationStatusInReview,
		ReservationStatusConfirmed,
		ReservationStatusCheckedIn:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (status ReservationStatus) IsTerminal() bool {
	return status == ReservationStatusCheckedOut || status == ReservationStatusCancelled
}

// ActiveReservationStatuses lists the statuses that occupy a room interval.
func ActiveReservationStatuses() []ReservationStatus {
	active := make([]ReservationStatus, 0, len(reservationStatuses))
	for _, status := range reservationStatuses {
		if status.IsActive() {
			active = append(active, status)
		}
	}
	return active
}

// rank orders tiers for upgrade recommendations.
func (tier RoomTier) rank() int {
	for index, candidate := range roomTiers {
		if candidate == tier {
			return index
		}
	}
	return -1
}
