package httpapi

import (
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
)

type reservationRequest struct {
	ClientID         string `json:"client_id"`
	Room             string `json:"room"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	Occupants        int    `json:"occupants"`
	AllowOverbooking bool   `json:"allow_overbooking"`
}

type reassignRequest struct {
	Room string `json:"room"`
}

type paymentRequest struct {
	AmountCents          int64  `json:"amount_cents"`
	Method               string `json:"method"`
	GatewayTransactionID string `json:"gateway_transaction_id"`
}

type proofRequest struct {
	FileRef string `json:"file_ref"`
}

type reviewRequest struct {
	Note string `json:"note"`
}

type checkInRequest struct {
	Occupants int `json:"occupants"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type adjustmentRequest struct {
	Delta         int64  `json:"delta"`
	Source        string `json:"source"`
	ReservationID string `json:"reservation_id"`
}

type resolutionRequest struct {
	ConflictID          string `json:"conflict_id"`
	Action              string `json:"action"`
	TargetReservationID string `json:"target_reservation_id"`
	TargetRoom          string `json:"target_room"`
}

type roomPayload struct {
	Number string `json:"number"`
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

type reservationPayload struct {
	ReservationID    string    `json:"reservation_id"`
	Code             string    `json:"code"`
	ClientID         string    `json:"client_id"`
	Room             string    `json:"room"`
	CheckIn          string    `json:"check_in"`
	CheckOut         string    `json:"check_out"`
	NightlyRateCents int64     `json:"nightly_rate_cents"`
	Nights           int       `json:"nights"`
	Occupants        int       `json:"occupants"`
	Status           string    `json:"status"`
	Overbooked       bool      `json:"overbooked"`
	CreatedAt        time.Time `json:"created_at"`
}

type summaryPayload struct {
	ReservationID string `json:"reservation_id"`
	Code          string `json:"code"`
	ClientID      string `json:"client_id"`
	Room          string `json:"room"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Status        string `json:"status"`
	Overbooked    bool   `json:"overbooked"`
}

type paymentPayload struct {
	PaymentID            string `json:"payment_id"`
	AmountCents          int64  `json:"amount_cents"`
	Method               string `json:"method"`
	Status               string `json:"status"`
	GatewayTransactionID string `json:"gateway_transaction_id,omitempty"`
}

type proofPayload struct {
	ProofID    string `json:"proof_id"`
	PaymentID  string `json:"payment_id"`
	FileRef    string `json:"file_ref"`
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
	Note       string `json:"note,omitempty"`
}

type stayPayload struct {
	Status       string     `json:"status"`
	Occupants    int        `json:"occupants"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

type transitionPayload struct {
	Success           bool   `json:"success"`
	ReservationID     string `json:"reservation_id"`
	PaymentID         string `json:"payment_id,omitempty"`
	ProofID           string `json:"proof_id,omitempty"`
	ReservationStatus string `json:"reservation_status"`
	StayStatus        string `json:"stay_status,omitempty"`
	PointsCredited    int64  `json:"points_credited"`
	Replayed          bool   `json:"replayed"`
}

type availabilityPayload struct {
	Available  bool             `json:"available"`
	Room       string           `json:"room"`
	RoomStatus string           `json:"room_status"`
	Reason     string           `json:"reason,omitempty"`
	Conflicts  []summaryPayload `json:"conflicts"`
}

type loyaltyEntryPayload struct {
	EntryID       string    `json:"entry_id"`
	Delta         int64     `json:"delta"`
	Source        string    `json:"source"`
	ReservationID string    `json:"reservation_id,omitempty"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Operator      string    `json:"operator"`
	CreatedAt     time.Time `json:"created_at"`
}

type loyaltyPayload struct {
	ClientID string                `json:"client_id"`
	Balance  int64                 `json:"balance"`
	Entries  []loyaltyEntryPayload `json:"entries"`
}

type inconsistencyPayload struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type diagnosisPayload struct {
	Reservation     reservationPayload     `json:"reservation"`
	Room            roomPayload            `json:"room"`
	Payments        []paymentPayload       `json:"payments"`
	Proofs          []proofPayload         `json:"proofs"`
	Stay            *stayPayload           `json:"stay,omitempty"`
	CheckoutCredit  *loyaltyEntryPayload   `json:"checkout_credit,omitempty"`
	Consistent      bool                   `json:"consistent"`
	Inconsistencies []inconsistencyPayload `json:"inconsistencies"`
}

type conflictPayload struct {
	ConflictID   string         `json:"conflict_id"`
	Room         string         `json:"room"`
	Winner       summaryPayload `json:"winner"`
	Loser        summaryPayload `json:"loser"`
	OverlapStart string         `json:"overlap_start"`
	OverlapEnd   string         `json:"overlap_end"`
}

type recommendationPayload struct {
	ConflictID    string `json:"conflict_id"`
	ReservationID string `json:"reservation_id"`
	Action        string `json:"action"`
	TargetRoom    string `json:"target_room,omitempty"`
	Message       string `json:"message"`
}

type reportPayload struct {
	Start           string                  `json:"start"`
	End             string                  `json:"end"`
	Conflicts       []conflictPayload       `json:"conflicts"`
	Overbooked      int                     `json:"overbooked"`
	RiskScore       int                     `json:"risk_score"`
	RiskLevel       string                  `json:"risk_level"`
	Recommendations []recommendationPayload `json:"recommendations"`
}

type resolutionPayload struct {
	ResolutionID  string    `json:"resolution_id"`
	ConflictID    string    `json:"conflict_id"`
	Action        string    `json:"action"`
	Room          string    `json:"room"`
	ReservationID string    `json:"reservation_id"`
	TargetRoom    string    `json:"target_room,omitempty"`
	Operator      string    `json:"operator"`
	CreatedAt     time.Time `json:"created_at"`
}

type lockPayload struct {
	Key   string    `json:"key"`
	Since time.Time `json:"since"`
}

func newRoomPayload(room booking.Room) roomPayload {
	return roomPayload{Number: room.Number.String(), Tier: string(room.Tier), Status: string(room.Status)}
}

func newReservationPayload(reservation booking.Reservation) reservationPayload {
	return reservationPayload{
		ReservationID:    reservation.ID.String(),
		Code:             reservation.Code,
		ClientID:         reservation.ClientID.String(),
		Room:             reservation.Room.String(),
		CheckIn:          reservation.CheckIn.Format(dateLayout),
		CheckOut:         reservation.CheckOut.Format(dateLayout),
		NightlyRateCents: reservation.NightlyRateCents,
		Nights:           reservation.Nights,
		Occupants:        reservation.Occupants,
		Status:           string(reservation.Status),
		Overbooked:       reservation.Overbooked,
		CreatedAt:        reservation.CreatedAt,
	}
}

func newSummaryPayloads(summaries []booking.ReservationSummary) []summaryPayload {
	payloads := make([]summaryPayload, 0, len(summaries))
	for _, summary := range summaries {
		payloads = append(payloads, newSummaryPayload(summary))
	}
	return payloads
}

func newSummaryPayload(summary booking.ReservationSummary) summaryPayload {
	return summaryPayload{
		ReservationID: summary.ID.String(),
		Code:          summary.Code,
		ClientID:      summary.ClientID.String(),
		Room:          summary.Room.String(),
		CheckIn:       summary.CheckIn.Format(dateLayout),
		CheckOut:      summary.CheckOut.Format(dateLayout),
		Status:        string(summary.Status),
		Overbooked:    summary.Overbooked,
	}
}

func newTransitionPayload(result booking.TransitionResult) transitionPayload {
	return transitionPayload{
		Success:           result.Success,
		ReservationID:     result.ReservationID.String(),
		PaymentID:         result.PaymentID.String(),
		ProofID:           result.ProofID.String(),
		ReservationStatus: string(result.ReservationStatus),
		StayStatus:        string(result.StayStatus),
		PointsCredited:    result.PointsCredited,
		Replayed:          result.Replayed,
	}
}

func newAvailabilityPayload(availability booking.Availability) availabilityPayload {
	return availabilityPayload{
		Available:  availability.Available,
		Room:       availability.Room.String(),
		RoomStatus: string(availability.RoomStatus),
		Reason:     availability.Reason,
		Conflicts:  newSummaryPayloads(availability.Conflicts),
	}
}

func newLoyaltyEntryPayload(entry booking.LoyaltyEntry) loyaltyEntryPayload {
	payload := loyaltyEntryPayload{
		EntryID:       entry.ID,
		Delta:         entry.Delta,
		Source:        string(entry.Source),
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		Operator:      entry.Operator,
		CreatedAt:     entry.CreatedAt,
	}
	if entry.ReservationID != nil {
		payload.ReservationID = entry.ReservationID.String()
	}
	return payload
}

func newDiagnosisPayload(diagnosis booking.Diagnosis) diagnosisPayload {
	payload := diagnosisPayload{
		Reservation:     newReservationPayload(diagnosis.Reservation),
		Room:            newRoomPayload(diagnosis.Room),
		Payments:        make([]paymentPayload, 0, len(diagnosis.Payments)),
		Proofs:          make([]proofPayload, 0, len(diagnosis.Proofs)),
		Consistent:      diagnosis.Consistent(),
		Inconsistencies: make([]inconsistencyPayload, 0, len(diagnosis.Inconsistencies)),
	}
	for _, payment := range diagnosis.Payments {
		payload.Payments = append(payload.Payments, paymentPayload{
			PaymentID:            payment.ID.String(),
			AmountCents:          payment.AmountCents,
			Method:               string(payment.Method),
			Status:               string(payment.Status),
			GatewayTransactionID: payment.GatewayTransactionID,
		})
	}
	for _, proof := range diagnosis.Proofs {
		payload.Proofs = append(payload.Proofs, proofPayload{
			ProofID:    proof.ID.String(),
			PaymentID:  proof.PaymentID.String(),
			FileRef:    proof.FileRef,
			Status:     string(proof.Status),
			ReviewedBy: proof.ReviewedBy,
			Note:       proof.Note,
		})
	}
	if diagnosis.Stay != nil {
		payload.Stay = &stayPayload{
			Status:       string(diagnosis.Stay.Status),
			Occupants:    diagnosis.Stay.Occupants,
			CheckedInAt:  optionalTime(diagnosis.Stay.CheckedInAt),
			CheckedOutAt: optionalTime(diagnosis.Stay.CheckedOutAt),
		}
	}
	if diagnosis.CheckoutCredit != nil {
		credit := newLoyaltyEntryPayload(*diagnosis.CheckoutCredit)
		payload.CheckoutCredit = &credit
	}
	for _, inconsistency := range diagnosis.Inconsistencies {
		payload.Inconsistencies = append(payload.Inconsistencies, inconsistencyPayload{Code: inconsistency.Code, Detail: inconsistency.Detail})
	}
	return payload
}

func newReportPayload(report booking.OverbookingReport) reportPayload {
	payload := reportPayload{
		Start:           report.Range.Start.Format(dateLayout),
		End:             report.Range.End.Format(dateLayout),
		Conflicts:       make([]conflictPayload, 0, len(report.Conflicts)),
		Overbooked:      report.Overbooked,
		RiskScore:       report.RiskScore,
		RiskLevel:       string(report.RiskLevel),
		Recommendations: make([]recommendationPayload, 0, len(report.Recommendations)),
	}
	for _, conflict := range report.Conflicts {
		payload.Conflicts = append(payload.Conflicts, conflictPayload{
			ConflictID:   conflict.ID,
			Room:         conflict.Room.String(),
			Winner:       newSummaryPayload(conflict.Winner),
			Loser:        newSummaryPayload(conflict.Loser),
			OverlapStart: conflict.Overlap.Start.Format(dateLayout),
			OverlapEnd:   conflict.Overlap.End.Format(dateLayout),
		})
	}
	for _, recommendation := range report.Recommendations {
		payload.Recommendations = append(payload.Recommendations, recommendationPayload{
			ConflictID:    recommendation.ConflictID,
			ReservationID: recommendation.Reservation.String(),
			Action:        string(recommendation.Action),
			TargetRoom:    recommendation.TargetRoom.String(),
			Message:       recommendation.Message,
		})
	}
	return payload
}

func newResolutionPayload(resolution booking.ConflictResolution) resolutionPayload {
	return resolutionPayload{
		ResolutionID:  resolution.ID,
		ConflictID:    resolution.ConflictID,
		Action:        string(resolution.Action),
		Room:          resolution.Room.String(),
		ReservationID: resolution.Target.String(),
		TargetRoom:    resolution.TargetRoom.String(),
		Operator:      resolution.Operator.String(),
		CreatedAt:     resolution.CreatedAt,
	}
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return &value
}
