package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPointsForStayTruncatesPartialBlocks(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name   string
		tier   RoomTier
		nights int
		want   int64
	}{
		{name: "luxo three nights", tier: RoomTierLuxo, nights: 3, want: 4},
		{name: "luxo one night", tier: RoomTierLuxo, nights: 1, want: 0},
		{name: "luxo two nights", tier: RoomTierLuxo, nights: 2, want: 4},
		{name: "standard five nights", tier: RoomTierStandard, nights: 5, want: 6},
		{name: "superior four nights", tier: RoomTierSuperior, nights: 4, want: 8},
		{name: "presidencial seven nights", tier: RoomTierPresidencial, nights: 7, want: 15},
		{name: "zero nights", tier: RoomTierPresidencial, nights: 0, want: 0},
		{name: "unknown tier", tier: RoomTier("PENTHOUSE"), nights: 4, want: 0},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if got := PointsForStay(testCase.tier, testCase.nights); got != testCase.want {
				test.Fatalf("PointsForStay(%s, %d) = %d, want %d", testCase.tier, testCase.nights, got, testCase.want)
			}
		})
	}
}

func TestOneNightCheckOutCreditsNothing(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	ctx := context.Background()
	operator := mustOperator(test, operatorValue)
	reservation := fixture.reserve(test, roomLuxoValue, "2026-02-01", "2026-02-02", false)
	fixture.confirm(test, reservation)
	if _, err := fixture.engine.CheckIn(ctx, reservation.ID, operator, 1); err != nil {
		test.Fatalf("check in: %v", err)
	}
	result, err := fixture.engine.CheckOut(ctx, reservation.ID, operator)
	if err != nil || result.PointsCredited != 0 {
		test.Fatalf("expected silent zero credit: %+v (%v)", result, err)
	}
	if fixture.store.callCount("AppendLoyaltyEntry") != 0 {
		test.Fatalf("zero credits must not write an entry")
	}
	if diagnosis, err := fixture.engine.Diagnose(ctx, reservation.ID); err != nil || !diagnosis.Consistent() {
		test.Fatalf("a one-night stay without credit is consistent: %v %v", err, diagnosis.Err())
	}
}

func TestThreeNightLuxoCheckOutCreditsOneBlock(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	ctx := context.Background()
	operator := mustOperator(test, operatorValue)
	reservation := fixture.reserve(test, roomLuxoValue, "2026-02-01", "2026-02-04", false)
	fixture.confirm(test, reservation)
	if _, err := fixture.engine.CheckIn(ctx, reservation.ID, operator, 1); err != nil {
		test.Fatalf("check in: %v", err)
	}
	result, err := fixture.engine.CheckOut(ctx, reservation.ID, operator)
	if err != nil || result.PointsCredited != 4 {
		test.Fatalf("expected 4 points: %+v (%v)", result, err)
	}
}

func TestHotelHoursStayCreditsEveryNight(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	ctx := context.Background()
	operator := mustOperator(test, operatorValue)
	reservation, err := fixture.allocator.CreateReservation(ctx, ReservationRequest{
		ClientID:         mustClientID(test, clientValue),
		Room:             mustRoom(test, roomLuxoValue),
		CheckIn:          time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC),
		CheckOut:         time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		NightlyRateCents: 45000,
		Occupants:        2,
		Operator:         operator,
	}, false)
	if err != nil {
		test.Fatalf("create reservation: %v", err)
	}
	if reservation.Nights != 2 {
		test.Fatalf("expected 2 nights, got %d", reservation.Nights)
	}
	fixture.confirm(test, reservation)
	if _, err := fixture.engine.CheckIn(ctx, reservation.ID, operator, 2); err != nil {
		test.Fatalf("check in: %v", err)
	}
	result, err := fixture.engine.CheckOut(ctx, reservation.ID, operator)
	if err != nil || result.PointsCredited != 4 {
		test.Fatalf("expected 4 points: %+v (%v)", result, err)
	}
}

func TestOneNightHotelHoursStayIsAccepted(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	reservation, err := fixture.allocator.CreateReservation(context.Background(), ReservationRequest{
		ClientID:         mustClientID(test, clientValue),
		Room:             mustRoom(test, roomLuxoValue),
		CheckIn:          time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC),
		CheckOut:         time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC),
		NightlyRateCents: 45000,
		Operator:         mustOperator(test, operatorValue),
	}, false)
	if err != nil || reservation.Nights != 1 {
		test.Fatalf("expected a one-night reservation: %+v (%v)", reservation, err)
	}
}

func TestCreditCheckoutSkipsExistingCredit(test *testing.T) {
	test.Parallel()
	store := newMemoryStore(test, defaultRooms(test)...)
	reservation := Reservation{
		ID:       mustReservationID(test, "reservation-1"),
		ClientID: mustClientID(test, clientValue),
		Nights:   4,
	}
	ctx := context.Background()
	first, err := creditCheckout(ctx, store, reservation, RoomTierStandard, operatorValue, "entry-1", mustDate(test, "2026-02-05"))
	if err != nil || first != 6 {
		test.Fatalf("first credit: %d (%v)", first, err)
	}
	second, err := creditCheckout(ctx, store, reservation, RoomTierStandard, operatorValue, "entry-2", mustDate(test, "2026-02-05"))
	if err != nil || second != 0 {
		test.Fatalf("second credit must be skipped: %d (%v)", second, err)
	}
	balance, err := store.GetLoyaltyBalance(ctx, reservation.ClientID)
	if err != nil || balance != 6 {
		test.Fatalf("expected balance 6, got %d (%v)", balance, err)
	}
}

func TestLoyaltyAdjust(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	ctx := context.Background()
	client := mustClientID(test, otherClientValue)
	operator := mustOperator(test, operatorValue)

	granted, err := fixture.ledger.Adjust(ctx, LoyaltyAdjustment{ClientID: client, Delta: 20, Source: LoyaltySourceManualAdjustment, Operator: operator})
	if err != nil || granted.BalanceBefore != 0 || granted.BalanceAfter != 20 {
		test.Fatalf("manual adjustment: %+v (%v)", granted, err)
	}
	redeemed, err := fixture.ledger.Adjust(ctx, LoyaltyAdjustment{ClientID: client, Delta: -15, Source: LoyaltySourceRedemption, Operator: operator})
	if err != nil || redeemed.BalanceBefore != 20 || redeemed.BalanceAfter != 5 {
		test.Fatalf("redemption: %+v (%v)", redeemed, err)
	}
	_, err = fixture.ledger.Adjust(ctx, LoyaltyAdjustment{ClientID: client, Delta: -6, Source: LoyaltySourceRedemption, Operator: operator})
	if !errors.Is(err, ErrInsufficientPoints) || KindOf(err) != KindPrecondition {
		test.Fatalf("expected insufficient points, got %v", err)
	}
	balance, err := fixture.ledger.Balance(ctx, client)
	if err != nil || balance != 5 {
		test.Fatalf("failed redemption must not change balance, got %d (%v)", balance, err)
	}
	entries, err := fixture.ledger.Entries(ctx, client, 0)
	if err != nil || len(entries) != 2 || entries[0].Source != LoyaltySourceRedemption {
		test.Fatalf("expected two entries newest first, got %+v (%v)", entries, err)
	}
}

func TestLoyaltyAdjustValidation(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	ctx := context.Background()
	client := mustClientID(test, clientValue)
	operator := mustOperator(test, operatorValue)
	testCases := []struct {
		name       string
		adjustment LoyaltyAdjustment
		wantErr    error
	}{
		{name: "checkout source is reserved", adjustment: LoyaltyAdjustment{ClientID: client, Delta: 5, Source: LoyaltySourceCheckout, Operator: operator}, wantErr: ErrInvalidStatus},
		{name: "positive redemption", adjustment: LoyaltyAdjustment{ClientID: client, Delta: 5, Source: LoyaltySourceRedemption, Operator: operator}, wantErr: ErrInvalidAmount},
		{name: "zero adjustment", adjustment: LoyaltyAdjustment{ClientID: client, Delta: 0, Source: LoyaltySourceManualAdjustment, Operator: operator}, wantErr: ErrInvalidAmount},
		{name: "missing operator", adjustment: LoyaltyAdjustment{ClientID: client, Delta: 5, Source: LoyaltySourceManualAdjustment}, wantErr: ErrInvalidOperatorID},
		{name: "missing client", adjustment: LoyaltyAdjustment{Delta: 5, Source: LoyaltySourceManualAdjustment, Operator: operator}, wantErr: ErrInvalidClientID},
	}
	for _, testCase := range testCases {
		if _, err := fixture.ledger.Adjust(ctx, testCase.adjustment); !errors.Is(err, testCase.wantErr) {
			test.Fatalf("%s: expected %v, got %v", testCase.name, testCase.wantErr, err)
		}
	}
	if fixture.store.callCount("AppendLoyaltyEntry") != 0 {
		test.Fatalf("invalid adjustments must not write")
	}
}
