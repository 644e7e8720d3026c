package gormstore

import (
	"encoding/json"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
)

func mapRoom(row Room) (booking.Room, error) {
	number, err := booking.NewRoomNumber(row.Number)
	if err != nil {
		return booking.Room{}, err
	}
	tier, err := booking.ParseRoomTier(row.Tier)
	if err != nil {
		return booking.Room{}, err
	}
	status, err := booking.ParseRoomStatus(row.Status)
	if err != nil {
		return booking.Room{}, err
	}
	return booking.Room{Number: number, Tier: tier, Status: status}, nil
}

func mapReservation(row Reservation) (booking.Reservation, error) {
	reservationID, err := booking.NewReservationID(row.ReservationID)
	if err != nil {
		return booking.Reservation{}, err
	}
	clientID, err := booking.NewClientID(row.ClientID)
	if err != nil {
		return booking.Reservation{}, err
	}
	room, err := booking.NewRoomNumber(row.RoomNumber)
	if err != nil {
		return booking.Reservation{}, err
	}
	status, err := booking.ParseReservationStatus(row.Status)
	if err != nil {
		return booking.Reservation{}, err
	}
	return booking.Reservation{
		ID:               reservationID,
		Code:             row.Code,
		ClientID:         clientID,
		Room:             room,
		CheckIn:          row.CheckIn.UTC(),
		CheckOut:         row.CheckOut.UTC(),
		NightlyRateCents: row.NightlyRateCents,
		Nights:           row.Nights,
		Occupants:        row.Occupants,
		Status:           status,
		Overbooked:       row.Overbooked,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}, nil
}

func mapPayment(row Payment) (booking.Payment, error) {
	paymentID, err := booking.NewPaymentID(row.PaymentID)
	if err != nil {
		return booking.Payment{}, err
	}
	reservationID, err := booking.NewReservationID(row.ReservationID)
	if err != nil {
		return booking.Payment{}, err
	}
	method, err := booking.ParsePaymentMethod(row.Method)
	if err != nil {
		return booking.Payment{}, err
	}
	status, err := booking.ParsePaymentStatus(row.Status)
	if err != nil {
		return booking.Payment{}, err
	}
	transactionID := ""
	if row.GatewayTransactionID != nil {
		transactionID = *row.GatewayTransactionID
	}
	return booking.Payment{
		ID:                   paymentID,
		ReservationID:        reservationID,
		AmountCents:          row.AmountCents,
		Method:               method,
		Status:               status,
		GatewayTransactionID: transactionID,
		CreatedAt:            row.CreatedAt.UTC(),
		UpdatedAt:            row.UpdatedAt.UTC(),
	}, nil
}

func mapProof(row Proof) (booking.Proof, error) {
	proofID, err := booking.NewProofID(row.ProofID)
	if err != nil {
		return booking.Proof{}, err
	}
	paymentID, err := booking.NewPaymentID(row.PaymentID)
	if err != nil {
		return booking.Proof{}, err
	}
	status, err := booking.ParseProofStatus(row.Status)
	if err != nil {
		return booking.Proof{}, err
	}
	return booking.Proof{
		ID:         proofID,
		PaymentID:  paymentID,
		FileRef:    row.FileRef,
		Status:     status,
		ReviewedBy: row.ReviewedBy,
		ReviewedAt: timeOrZero(row.ReviewedAt),
		Note:       row.Note,
		CreatedAt:  row.CreatedAt.UTC(),
	}, nil
}

func mapStay(row Stay) (booking.Stay, error) {
	reservationID, err := booking.NewReservationID(row.ReservationID)
	if err != nil {
		return booking.Stay{}, err
	}
	status, err := booking.ParseStayStatus(row.Status)
	if err != nil {
		return booking.Stay{}, err
	}
	return booking.Stay{
		ReservationID: reservationID,
		Status:        status,
		Occupants:     row.Occupants,
		CheckedInAt:   timeOrZero(row.CheckedInAt),
		CheckedInBy:   row.CheckedInBy,
		CheckedOutAt:  timeOrZero(row.CheckedOutAt),
		CheckedOutBy:  row.CheckedOutBy,
	}, nil
}

func mapLoyaltyEntry(row LoyaltyEntry) (booking.LoyaltyEntry, error) {
	clientID, err := booking.NewClientID(row.ClientID)
	if err != nil {
		return booking.LoyaltyEntry{}, err
	}
	source, err := booking.ParseLoyaltySource(row.Source)
	if err != nil {
		return booking.LoyaltyEntry{}, err
	}
	var reservationID *booking.ReservationID
	if row.ReservationID != nil {
		parsed, err := booking.NewReservationID(*row.ReservationID)
		if err != nil {
			return booking.LoyaltyEntry{}, err
		}
		reservationID = &parsed
	}
	return booking.LoyaltyEntry{
		ID:            row.EntryID,
		ClientID:      clientID,
		Delta:         row.Delta,
		Source:        source,
		ReservationID: reservationID,
		BalanceBefore: row.BalanceBefore,
		BalanceAfter:  row.BalanceAfter,
		Operator:      row.Operator,
		CreatedAt:     row.CreatedAt.UTC(),
	}, nil
}

func mapConflictResolution(row ConflictResolution) (booking.ConflictResolution, error) {
	action, err := booking.ParseResolutionAction(row.Action)
	if err != nil {
		return booking.ConflictResolution{}, err
	}
	room, err := booking.NewRoomNumber(row.RoomNumber)
	if err != nil {
		return booking.ConflictResolution{}, err
	}
	target, err := booking.NewReservationID(row.ReservationID)
	if err != nil {
		return booking.ConflictResolution{}, err
	}
	operator, err := booking.NewOperatorID(row.Operator)
	if err != nil {
		return booking.ConflictResolution{}, err
	}
	var details resolutionDetails
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &details); err != nil {
			return booking.ConflictResolution{}, err
		}
	}
	var targetRoom booking.RoomNumber
	if details.TargetRoom != "" {
		targetRoom, err = booking.NewRoomNumber(details.TargetRoom)
		if err != nil {
			return booking.ConflictResolution{}, err
		}
	}
	return booking.ConflictResolution{
		ID:         row.ResolutionID,
		ConflictID: row.ConflictID,
		Action:     action,
		Room:       room,
		Target:     target,
		TargetRoom: targetRoom,
		Operator:   operator,
		CreatedAt:  row.CreatedAt.UTC(),
	}, nil
}
