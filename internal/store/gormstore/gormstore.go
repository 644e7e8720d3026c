package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgUniqueViolationCode   = "23505"
	sqliteConstraintCode    = 19
	errorOperationStore     = "store"
	errorSubjectRoom        = "room"
	errorSubjectReservation = "reservation"
	errorSubjectPayment     = "payment"
	errorSubjectProof       = "proof"
	errorSubjectStay        = "stay"
	errorSubjectLoyalty     = "loyalty"
	errorSubjectResolution  = "resolution"
	errorCodeCreate         = "create"
	errorCodeDuplicate      = "duplicate"
	errorCodeGet            = "get"
	errorCodeInvalid        = "invalid"
	errorCodeList           = "list"
	errorCodeLookup         = "lookup"
	errorCodeSeed           = "seed"
	errorCodeUpdate         = "update"
	errorCodeUpdateStatus   = "update_status"
	lockingStrengthUpdate   = "UPDATE"
)

// Store implements booking.Store using GORM.
type Store struct {
	db   *gorm.DB
	inTx bool
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every table the store uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// WithTx executes fn within a transaction. Rooms, reservations and balances
// read through the transaction store are locked FOR UPDATE where supported.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction, inTx: true})
	})
}

func (store *Store) locking(db *gorm.DB) *gorm.DB {
	if !store.inTx {
		return db
	}
	return db.Clauses(clause.Locking{Strength: lockingStrengthUpdate})
}

// SeedRooms upserts the room catalog. Existing rooms keep their status.
func (store *Store) SeedRooms(ctx context.Context, rooms []booking.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		models = append(models, Room{Number: room.Number.String(), Tier: room.Tier.String(), Status: room.Status.String(), UpdatedAt: now})
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier", "updated_at"}),
		}).
		Create(&models).Error
	if err != nil {
		return wrapStoreError(errorSubjectRoom, errorCodeSeed, err)
	}
	return nil
}

func (store *Store) GetRoom(ctx context.Context, room booking.RoomNumber) (booking.Room, error) {
	var model Room
	err := store.locking(store.db.WithContext(ctx)).
		Where("number = ?", room.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Room{}, wrapStoreError(errorSubjectRoom, errorCodeGet, fmt.Errorf("%w: %s", booking.ErrUnknownRoom, room))
		}
		return booking.Room{}, wrapStoreError(errorSubjectRoom, errorCodeGet, err)
	}
	mapped, err := mapRoom(model)
	if err != nil {
		return booking.Room{}, wrapStoreError(errorSubjectRoom, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) ListRooms(ctx context.Context) ([]booking.Room, error) {
	var rows []Room
	if err := store.db.WithContext(ctx).Order("number ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRoom, errorCodeList, err)
	}
	rooms := make([]booking.Room, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapRoom(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRoom, errorCodeInvalid, err)
		}
		rooms = append(rooms, mapped)
	}
	return rooms, nil
}

func (store *Store) UpdateRoomStatus(ctx context.Context, room booking.RoomNumber, from, to booking.RoomStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Room{}).
		Where("number = ? AND status = ?", room.String(), from.String()).
		Updates(map[string]any{"status": to.String(), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return wrapStoreError(errorSubjectRoom, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.missedUpdate(ctx, &Room{}, "number", room.String(), booking.ErrUnknownRoom, errorSubjectRoom)
	}
	return nil
}

func (store *Store) CreateReservation(ctx context.Context, reservation booking.Reservation) error {
	model := Reservation{
		ReservationID:    reservation.ID.String(),
		Code:             reservation.Code,
		ClientID:         reservation.ClientID.String(),
		RoomNumber:       reservation.Room.String(),
		Status:           reservation.Status.String(),
		CheckIn:          reservation.CheckIn.UTC(),
		CheckOut:         reservation.CheckOut.UTC(),
		NightlyRateCents: reservation.NightlyRateCents,
		Nights:           reservation.Nights,
		Occupants:        reservation.Occupants,
		Overbooked:       reservation.Overbooked,
		CreatedAt:        reservation.CreatedAt.UTC(),
		UpdatedAt:        reservation.UpdatedAt.UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectReservation, errorCodeDuplicate, fmt.Errorf("%w: %s", booking.ErrReservationCodeTaken, reservation.Code))
	}
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetReservation(ctx context.Context, reservationID booking.ReservationID) (booking.Reservation, error) {
	var model Reservation
	err := store.locking(store.db.WithContext(ctx)).
		Where("reservation_id = ?", reservationID.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, fmt.Errorf("%w: %s", booking.ErrUnknownReservation, reservationID))
		}
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	mapped, err := mapReservation(model)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) ReservationCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := store.db.WithContext(ctx).Model(&Reservation{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, wrapStoreError(errorSubjectReservation, errorCodeLookup, err)
	}
	return count > 0, nil
}

func (store *Store) ListActiveReservations(ctx context.Context, room booking.RoomNumber) ([]booking.Reservation, error) {
	return store.listReservations(ctx, store.db.WithContext(ctx).
		Where("room_number = ? AND status IN ?", room.String(), activeStatuses()))
}

func (store *Store) ListActiveReservationsBetween(ctx context.Context, start, end time.Time) ([]booking.Reservation, error) {
	return store.listReservations(ctx, store.db.WithContext(ctx).
		Where("status IN ? AND check_in < ? AND check_out > ?", activeStatuses(), end.UTC(), start.UTC()))
}

func (store *Store) listReservations(_ context.Context, query *gorm.DB) ([]booking.Reservation, error) {
	var rows []Reservation
	if err := query.Order("created_at ASC").Order("reservation_id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	reservations := make([]booking.Reservation, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapReservation(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		reservations = append(reservations, mapped)
	}
	return reservations, nil
}

func (store *Store) UpdateReservationStatus(ctx context.Context, reservationID booking.ReservationID, from, to booking.ReservationStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ? AND status = ?", reservationID.String(), from.String()).
		Updates(map[string]any{"status": to.String(), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.missedUpdate(ctx, &Reservation{}, "reservation_id", reservationID.String(), booking.ErrUnknownReservation, errorSubjectReservation)
	}
	return nil
}

// UpdateReservationRoom moves a reservation and clears its overbooked flag.
func (store *Store) UpdateReservationRoom(ctx context.Context, reservationID booking.ReservationID, from, to booking.RoomNumber) error {
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ? AND room_number = ?", reservationID.String(), from.String()).
		Updates(map[string]any{"room_number": to.String(), "overbooked": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.missedUpdate(ctx, &Reservation{}, "reservation_id", reservationID.String(), booking.ErrUnknownReservation, errorSubjectReservation)
	}
	return nil
}

func (store *Store) CreatePayment(ctx context.Context, payment booking.Payment) error {
	model := Payment{
		PaymentID:            payment.ID.String(),
		ReservationID:        payment.ReservationID.String(),
		AmountCents:          payment.AmountCents,
		Method:               payment.Method.String(),
		Status:               payment.Status.String(),
		GatewayTransactionID: optionalString(payment.GatewayTransactionID),
		CreatedAt:            payment.CreatedAt.UTC(),
		UpdatedAt:            payment.UpdatedAt.UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectPayment, errorCodeDuplicate, fmt.Errorf("%w: %s", booking.ErrDuplicateTransactionID, payment.GatewayTransactionID))
	}
	if err != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetPayment(ctx context.Context, paymentID booking.PaymentID) (booking.Payment, error) {
	var model Payment
	err := store.db.WithContext(ctx).Where("payment_id = ?", paymentID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeGet, fmt.Errorf("%w: %s", booking.ErrUnknownPayment, paymentID))
		}
		return booking.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeGet, err)
	}
	mapped, err := mapPayment(model)
	if err != nil {
		return booking.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) ListPayments(ctx context.Context, reservationID booking.ReservationID) ([]booking.Payment, error) {
	var rows []Payment
	err := store.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID.String()).
		Order("created_at ASC").Order("payment_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPayment, errorCodeList, err)
	}
	payments := make([]booking.Payment, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapPayment(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPayment, errorCodeInvalid, err)
		}
		payments = append(payments, mapped)
	}
	return payments, nil
}

func (store *Store) UpdatePaymentStatus(ctx context.Context, paymentID booking.PaymentID, from, to booking.PaymentStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Payment{}).
		Where("payment_id = ? AND status = ?", paymentID.String(), from.String()).
		Updates(map[string]any{"status": to.String(), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.missedUpdate(ctx, &Payment{}, "payment_id", paymentID.String(), booking.ErrUnknownPayment, errorSubjectPayment)
	}
	return nil
}

func (store *Store) CreateProof(ctx context.Context, proof booking.Proof) error {
	model := Proof{
		ProofID:    proof.ID.String(),
		PaymentID:  proof.PaymentID.String(),
		FileRef:    proof.FileRef,
		Status:     proof.Status.String(),
		ReviewedBy: proof.ReviewedBy,
		ReviewedAt: optionalTime(proof.ReviewedAt),
		Note:       proof.Note,
		CreatedAt:  proof.CreatedAt.UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectProof, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetProof(ctx context.Context, proofID booking.ProofID) (booking.Proof, error) {
	var model Proof
	err := store.db.WithContext(ctx).Where("proof_id = ?", proofID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Proof{}, wrapStoreError(errorSubjectProof, errorCodeGet, fmt.Errorf("%w: %s", booking.ErrUnknownProof, proofID))
		}
		return booking.Proof{}, wrapStoreError(errorSubjectProof, errorCodeGet, err)
	}
	mapped, err := mapProof(model)
	if err != nil {
		return booking.Proof{}, wrapStoreError(errorSubjectProof, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) ListProofs(ctx context.Context, paymentID booking.PaymentID) ([]booking.Proof, error) {
	var rows []Proof
	err := store.db.WithContext(ctx).
		Where("payment_id = ?", paymentID.String()).
		Order("created_at ASC").Order("proof_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectProof, errorCodeList, err)
	}
	proofs := make([]booking.Proof, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapProof(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectProof, errorCodeInvalid, err)
		}
		proofs = append(proofs, mapped)
	}
	return proofs, nil
}

func (store *Store) UpdateProof(ctx context.Context, proof booking.Proof, from booking.ProofStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Proof{}).
		Where("proof_id = ? AND status = ?", proof.ID.String(), from.String()).
		Updates(map[string]any{
			"status":      proof.Status.String(),
			"file_ref":    proof.FileRef,
			"reviewed_by": proof.ReviewedBy,
			"reviewed_at": optionalTime(proof.ReviewedAt),
			"note":        proof.Note,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectProof, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.missedUpdate(ctx, &Proof{}, "proof_id", proof.ID.String(), booking.ErrUnknownProof, errorSubjectProof)
	}
	return nil
}

func (store *Store) CreateStay(ctx context.Context, stay booking.Stay) error {
	model := Stay{
		ReservationID: stay.ReservationID.String(),
		Status:        stay.Status.String(),
		Occupants:     stay.Occupants,
		CheckedInAt:   optionalTime(stay.CheckedInAt),
		CheckedInBy:   stay.CheckedInBy,
		CheckedOutAt:  optionalTime(stay.CheckedOutAt),
		CheckedOutBy:  stay.CheckedOutBy,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectStay, errorCodeDuplicate, fmt.Errorf("%w: stay for %s", booking.ErrConcurrentUpdate, stay.ReservationID))
	}
	if err != nil {
		return wrapStoreError(errorSubjectStay, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetStay(ctx context.Context, reservationID booking.ReservationID) (booking.Stay, error) {
	var model Stay
	err := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Stay{}, wrapStoreError(errorSubjectStay, errorCodeGet, fmt.Errorf("%w: %s", booking.ErrUnknownStay, reservationID))
		}
		return booking.Stay{}, wrapStoreError(errorSubjectStay, errorCodeGet, err)
	}
	mapped, err := mapStay(model)
	if err != nil {
		return booking.Stay{}, wrapStoreError(errorSubjectStay, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) UpdateStay(ctx context.Context, stay booking.Stay, from booking.StayStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Stay{}).
		Where("reservation_id = ? AND status = ?", stay.ReservationID.String(), from.String()).
		Updates(map[string]any{
			"status":         stay.Status.String(),
			"occupants":      stay.Occupants,
			"checked_in_at":  optionalTime(stay.CheckedInAt),
			"checked_in_by":  stay.CheckedInBy,
			"checked_out_at": optionalTime(stay.CheckedOutAt),
			"checked_out_by": stay.CheckedOutBy,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectStay, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.missedUpdate(ctx, &Stay{}, "reservation_id", stay.ReservationID.String(), booking.ErrUnknownStay, errorSubjectStay)
	}
	return nil
}

func (store *Store) AppendLoyaltyEntry(ctx context.Context, entry booking.LoyaltyEntry) error {
	var reservationID, checkoutReservationID *string
	if entry.ReservationID != nil {
		reservationID = optionalString(entry.ReservationID.String())
		if entry.Source == booking.LoyaltySourceCheckout {
			checkoutReservationID = reservationID
		}
	}
	model := LoyaltyEntry{
		EntryID:               entry.ID,
		ClientID:              entry.ClientID.String(),
		Delta:                 entry.Delta,
		Source:                entry.Source.String(),
		ReservationID:         reservationID,
		CheckoutReservationID: checkoutReservationID,
		BalanceBefore:         entry.BalanceBefore,
		BalanceAfter:          entry.BalanceAfter,
		Operator:              entry.Operator,
		CreatedAt:             entry.CreatedAt.UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectLoyalty, errorCodeDuplicate, fmt.Errorf("%w: %s", booking.ErrDuplicateLoyaltyCredit, entry.ReservationID))
	}
	if err != nil {
		return wrapStoreError(errorSubjectLoyalty, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) FindLoyaltyEntry(ctx context.Context, reservationID booking.ReservationID, source booking.LoyaltySource) (booking.LoyaltyEntry, bool, error) {
	var model LoyaltyEntry
	err := store.db.WithContext(ctx).
		Where("reservation_id = ? AND source = ?", reservationID.String(), source.String()).
		Order("created_at ASC").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.LoyaltyEntry{}, false, nil
	}
	if err != nil {
		return booking.LoyaltyEntry{}, false, wrapStoreError(errorSubjectLoyalty, errorCodeLookup, err)
	}
	mapped, err := mapLoyaltyEntry(model)
	if err != nil {
		return booking.LoyaltyEntry{}, false, wrapStoreError(errorSubjectLoyalty, errorCodeInvalid, err)
	}
	return mapped, true, nil
}

func (store *Store) ListLoyaltyEntries(ctx context.Context, clientID booking.ClientID, limit int) ([]booking.LoyaltyEntry, error) {
	var rows []LoyaltyEntry
	err := store.db.WithContext(ctx).
		Where("client_id = ?", clientID.String()).
		Order("created_at DESC").Order("entry_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLoyalty, errorCodeList, err)
	}
	entries := make([]booking.LoyaltyEntry, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapLoyaltyEntry(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectLoyalty, errorCodeInvalid, err)
		}
		entries = append(entries, mapped)
	}
	return entries, nil
}

func (store *Store) GetLoyaltyBalance(ctx context.Context, clientID booking.ClientID) (int64, error) {
	var model LoyaltyBalance
	err := store.locking(store.db.WithContext(ctx)).
		Where("client_id = ?", clientID.String()).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectLoyalty, errorCodeGet, err)
	}
	return model.Points, nil
}

func (store *Store) SetLoyaltyBalance(ctx context.Context, clientID booking.ClientID, points int64) error {
	model := LoyaltyBalance{ClientID: clientID.String(), Points: points, UpdatedAt: time.Now().UTC()}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"points", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectLoyalty, errorCodeUpdate, err)
	}
	return nil
}

type resolutionDetails struct {
	TargetRoom string `json:"target_room,omitempty"`
}

func (store *Store) RecordConflictResolution(ctx context.Context, resolution booking.ConflictResolution) error {
	details, err := json.Marshal(resolutionDetails{TargetRoom: resolution.TargetRoom.String()})
	if err != nil {
		return wrapStoreError(errorSubjectResolution, errorCodeInvalid, err)
	}
	model := ConflictResolution{
		ResolutionID:  resolution.ID,
		ConflictID:    resolution.ConflictID,
		Action:        resolution.Action.String(),
		RoomNumber:    resolution.Room.String(),
		ReservationID: resolution.Target.String(),
		Operator:      resolution.Operator.String(),
		Details:       datatypes.JSON(details),
		CreatedAt:     resolution.CreatedAt.UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectResolution, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) ListConflictResolutions(ctx context.Context, conflictIDs []string) ([]booking.ConflictResolution, error) {
	if len(conflictIDs) == 0 {
		return []booking.ConflictResolution{}, nil
	}
	var rows []ConflictResolution
	err := store.db.WithContext(ctx).
		Where("conflict_id IN ?", conflictIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectResolution, errorCodeList, err)
	}
	resolutions := make([]booking.ConflictResolution, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapConflictResolution(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectResolution, errorCodeInvalid, err)
		}
		resolutions = append(resolutions, mapped)
	}
	return resolutions, nil
}

// missedUpdate distinguishes a missing row from a lost conditional update.
func (store *Store) missedUpdate(ctx context.Context, model any, column string, identifier string, unknown error, subject string) error {
	var count int64
	if err := store.db.WithContext(ctx).Model(model).Where(column+" = ?", identifier).Count(&count).Error; err != nil {
		return wrapStoreError(subject, errorCodeUpdateStatus, err)
	}
	if count == 0 {
		return wrapStoreError(subject, errorCodeUpdateStatus, fmt.Errorf("%w: %s", unknown, identifier))
	}
	return wrapStoreError(subject, errorCodeUpdateStatus, fmt.Errorf("%w: %s %s", booking.ErrConcurrentUpdate, subject, identifier))
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func activeStatuses() []string {
	statuses := booking.ActiveReservationStatuses()
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status.String())
	}
	return values
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func timeOrZero(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return value.UTC()
}
