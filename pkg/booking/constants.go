package booking

const (
	operationCreateReservation = "create_reservation"
	operationReassignRoom      = "reassign_room"
	operationPaymentCreated    = "payment_created"
	operationProofUploaded     = "proof_uploaded"
	operationProofApproved     = "proof_approved"
	operationProofRejected     = "proof_rejected"
	operationReconcilePayment  = "reconcile_payment"
	operationCheckIn           = "check_in"
	operationCheckOut          = "check_out"
	operationCancel            = "cancel"
	operationResolveConflict   = "resolve_conflict"
	operationLoyaltyAdjust     = "loyalty_adjust"
	operationNotify            = "notify"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	notificationReservationCreated = "reservation.created"
	notificationCheckedIn          = "reservation.checked_in"
	notificationCheckedOut         = "reservation.checked_out"
	notificationCancelled          = "reservation.cancelled"

	reservationCodePrefix      = "HSP-"
	reservationCodeLength      = 6
	reservationCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	reservationCodeMaxAttempts = 5

	roomLockPrefix        = "room:"
	reservationLockPrefix = "reservation:"

	conflictIDDelimiter = "|"

	loyaltyBlockNights = 2
)
