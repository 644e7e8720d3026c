package booking

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// loyaltyPointsPerBlock is the credit for each full two-night block, by tier.
var loyaltyPointsPerBlock = map[RoomTier]int64{
	RoomTierStandard:     3,
	RoomTierSuperior:     4,
	RoomTierLuxo:         4,
	RoomTierPresidencial: 5,
}

// PointsForStay returns the check-out credit for a stay. Partial blocks are
// truncated, so odd nights never earn extra points.
func PointsForStay(tier RoomTier, nights int) int64 {
	perBlock, ok := loyaltyPointsPerBlock[tier]
	if !ok || nights < loyaltyBlockNights {
		return 0
	}
	return int64(nights/loyaltyBlockNights) * perBlock
}

// LoyaltyAdjustment is a manual change to a client's points balance.
type LoyaltyAdjustment struct {
	ClientID      ClientID
	Delta         int64
	Source        LoyaltySource
	ReservationID *ReservationID
	Operator      OperatorID
}

// LoyaltyLedger exposes balances and manual adjustments. Check-out credits are
// written by the Engine in the check-out transaction.
type LoyaltyLedger struct {
	store   Store
	nowFn   func() time.Time
	options serviceOptions
}

// NewLoyaltyLedger wires a LoyaltyLedger.
func NewLoyaltyLedger(store Store, now func() time.Time, options ...ServiceOption) (*LoyaltyLedger, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &LoyaltyLedger{store: store, nowFn: now, options: applyOptions(options)}, nil
}

// Balance returns the client's cached balance.
func (ledger *LoyaltyLedger) Balance(ctx context.Context, clientID ClientID) (int64, error) {
	if clientID.String() == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidClientID)
	}
	return ledger.store.GetLoyaltyBalance(ctx, clientID)
}

// Entries lists the client's ledger lines, newest first.
func (ledger *LoyaltyLedger) Entries(ctx context.Context, clientID ClientID, limit int) ([]LoyaltyEntry, error) {
	if clientID.String() == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidClientID)
	}
	if limit <= 0 {
		limit = 50
	}
	return ledger.store.ListLoyaltyEntries(ctx, clientID, limit)
}

// Adjust appends a MANUAL_ADJUSTMENT or REDEMPTION entry. Redemptions carry a
// negative delta, and no adjustment may take the balance below zero.
func (ledger *LoyaltyLedger) Adjust(ctx context.Context, adjustment LoyaltyAdjustment) (LoyaltyEntry, error) {
	var appended LoyaltyEntry
	operationError := ledger.adjust(ctx, adjustment, &appended)
	entryReservation := ""
	if adjustment.ReservationID != nil {
		entryReservation = adjustment.ReservationID.String()
	}
	ledger.options.logOperation(ctx, OperationLog{
		Operation:      operationLoyaltyAdjust,
		ReservationID:  entryReservation,
		Operator:       adjustment.Operator.String(),
		PointsCredited: appended.Delta,
		Error:          operationError,
	}, ledger.nowFn())
	if operationError != nil {
		return LoyaltyEntry{}, operationError
	}
	return appended, nil
}

func (ledger *LoyaltyLedger) adjust(ctx context.Context, adjustment LoyaltyAdjustment, appended *LoyaltyEntry) error {
	if adjustment.ClientID.String() == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidClientID)
	}
	if adjustment.Operator.String() == "" {
		return fmt.Errorf("%w: operator is required", ErrInvalidOperatorID)
	}
	switch adjustment.Source {
	case LoyaltySourceManualAdjustment:
		if adjustment.Delta == 0 {
			return fmt.Errorf("%w: adjustment must be non-zero", ErrInvalidAmount)
		}
	case LoyaltySourceRedemption:
		if adjustment.Delta >= 0 {
			return fmt.Errorf("%w: redemption must be negative", ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("%w: source %q cannot be adjusted manually", ErrInvalidStatus, adjustment.Source)
	}
	return ledger.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		entry, err := appendLoyaltyEntry(ctx, transactionStore, LoyaltyEntry{
			ID:            ledger.options.identifiers(),
			ClientID:      adjustment.ClientID,
			Delta:         adjustment.Delta,
			Source:        adjustment.Source,
			ReservationID: adjustment.ReservationID,
			Operator:      adjustment.Operator.String(),
			CreatedAt:     ledger.nowFn().UTC(),
		})
		if err != nil {
			return err
		}
		*appended = entry
		return nil
	})
}

// creditCheckout writes the exactly-once CHECKOUT credit for a reservation.
// A zero credit and an already-credited reservation are both skipped.
func creditCheckout(ctx context.Context, store Store, reservation Reservation, tier RoomTier, operator string, entryID string, now time.Time) (int64, error) {
	points := PointsForStay(tier, reservation.Nights)
	if points == 0 {
		return 0, nil
	}
	_, found, err := store.FindLoyaltyEntry(ctx, reservation.ID, LoyaltySourceCheckout)
	if err != nil {
		return 0, err
	}
	if found {
		return 0, nil
	}
	reservationID := reservation.ID
	if _, err := appendLoyaltyEntry(ctx, store, LoyaltyEntry{
		ID:            entryID,
		ClientID:      reservation.ClientID,
		Delta:         points,
		Source:        LoyaltySourceCheckout,
		ReservationID: &reservationID,
		Operator:      operator,
		CreatedAt:     now,
	}); err != nil {
		return 0, err
	}
	return points, nil
}

// appendLoyaltyEntry stamps balance before and after, appends the entry and
// updates the cached balance. Callers run it inside a transaction.
func appendLoyaltyEntry(ctx context.Context, store Store, entry LoyaltyEntry) (LoyaltyEntry, error) {
	balance, err := store.GetLoyaltyBalance(ctx, entry.ClientID)
	if err != nil {
		return LoyaltyEntry{}, err
	}
	after := balance + entry.Delta
	if after < 0 {
		return LoyaltyEntry{}, fmt.Errorf("%w: balance %d, delta %d", ErrInsufficientPoints, balance, entry.Delta)
	}
	entry.Operator = strings.TrimSpace(entry.Operator)
	entry.BalanceBefore = balance
	entry.BalanceAfter = after
	if err := store.AppendLoyaltyEntry(ctx, entry); err != nil {
		return LoyaltyEntry{}, err
	}
	if err := store.SetLoyaltyBalance(ctx, entry.ClientID, after); err != nil {
		return LoyaltyEntry{}, err
	}
	return entry, nil
}
