package booking

import (
	"errors"
	"testing"
	"time"
)

func TestOverlapsHalfOpen(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{name: "identical", a: mustInterval(test, "2026-02-01", "2026-02-03"), b: mustInterval(test, "2026-02-01", "2026-02-03"), want: true},
		{name: "partial", a: mustInterval(test, "2026-02-01", "2026-02-03"), b: mustInterval(test, "2026-02-02", "2026-02-04"), want: true},
		{name: "contained", a: mustInterval(test, "2026-02-01", "2026-02-10"), b: mustInterval(test, "2026-02-03", "2026-02-04"), want: true},
		{name: "touching checkout equals checkin", a: mustInterval(test, "2026-02-01", "2026-02-03"), b: mustInterval(test, "2026-02-03", "2026-02-05"), want: false},
		{name: "touching reversed", a: mustInterval(test, "2026-02-03", "2026-02-05"), b: mustInterval(test, "2026-02-01", "2026-02-03"), want: false},
		{name: "disjoint", a: mustInterval(test, "2026-02-01", "2026-02-02"), b: mustInterval(test, "2026-03-01", "2026-03-02"), want: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if got := Overlaps(testCase.a, testCase.b); got != testCase.want {
				test.Fatalf("Overlaps = %v, want %v", got, testCase.want)
			}
			if got := Overlaps(testCase.b, testCase.a); got != testCase.want {
				test.Fatalf("Overlaps is not symmetric")
			}
			formula := testCase.a.Start.Before(testCase.b.End) && testCase.b.Start.Before(testCase.a.End)
			if formula != testCase.want {
				test.Fatalf("formula disagrees with expectation")
			}
		})
	}
}

func TestNewIntervalRejectsMalformedBounds(test *testing.T) {
	test.Parallel()
	start := mustDate(test, "2026-02-03")
	testCases := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{name: "equal bounds", start: start, end: start},
		{name: "reversed", start: start, end: start.Add(-24 * time.Hour)},
		{name: "zero start", start: time.Time{}, end: start},
		{name: "zero end", start: start, end: time.Time{}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			_, err := NewInterval(testCase.start, testCase.end)
			if !errors.Is(err, ErrInvalidInterval) || KindOf(err) != KindValidation {
				test.Fatalf("expected invalid interval validation error, got %v", err)
			}
		})
	}
}

func TestIntervalNights(test *testing.T) {
	test.Parallel()
	if nights := mustInterval(test, "2026-02-01", "2026-02-04").Nights(); nights != 3 {
		test.Fatalf("expected 3 nights, got %d", nights)
	}
	location := time.FixedZone("BRT", -3*60*60)
	interval, err := NewInterval(time.Date(2026, 2, 1, 14, 0, 0, 0, location), time.Date(2026, 2, 2, 12, 0, 0, 0, location))
	if err != nil {
		test.Fatalf("interval: %v", err)
	}
	if interval.Start.Location() != time.UTC {
		test.Fatalf("expected UTC bounds")
	}
	if interval.Nights() != 1 {
		test.Fatalf("a 14:00 to 12:00 stay is one night, got %d", interval.Nights())
	}
}

func TestIntervalNightsUsesCalendarDates(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{name: "one night hotel hours", checkIn: time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC), checkOut: time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC), want: 1},
		{name: "two nights hotel hours", checkIn: time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC), checkOut: time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC), want: 2},
		{name: "late checkout", checkIn: time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC), checkOut: time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC), want: 1},
		{name: "same day use", checkIn: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), checkOut: time.Date(2026, 2, 1, 17, 0, 0, 0, time.UTC), want: 0},
		{name: "across month end", checkIn: time.Date(2026, 2, 27, 15, 0, 0, 0, time.UTC), checkOut: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), want: 3},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			interval, err := NewInterval(testCase.checkIn, testCase.checkOut)
			if err != nil {
				test.Fatalf("interval: %v", err)
			}
			if got := interval.Nights(); got != testCase.want {
				test.Fatalf("Nights() = %d, want %d", got, testCase.want)
			}
		})
	}
}

func TestIdentifiersTrimAndRejectEmpty(test *testing.T) {
	test.Parallel()
	room, err := NewRoomNumber("  101 ")
	if err != nil || room.String() != "101" {
		test.Fatalf("expected trimmed room number, got %q (%v)", room.String(), err)
	}
	if _, err := NewReservationID("   "); !errors.Is(err, ErrInvalidReservationID) {
		test.Fatalf("expected invalid reservation id, got %v", err)
	}
	if _, err := NewClientID(""); !errors.Is(err, ErrInvalidClientID) {
		test.Fatalf("expected invalid client id, got %v", err)
	}
	if _, err := NewOperatorID(""); !errors.Is(err, ErrInvalidOperatorID) {
		test.Fatalf("expected invalid operator id, got %v", err)
	}
}

func TestIdentifiersRejectConflictDelimiter(test *testing.T) {
	test.Parallel()
	if _, err := NewRoomNumber("A|1"); !errors.Is(err, ErrInvalidRoomNumber) || KindOf(err) != KindValidation {
		test.Fatalf("expected invalid room number, got %v", err)
	}
	if _, err := NewReservationID("res|1"); !errors.Is(err, ErrInvalidReservationID) {
		test.Fatalf("expected invalid reservation id, got %v", err)
	}
	room := mustRoom(test, "A-1")
	first := mustReservationID(test, "res-1")
	second := mustReservationID(test, "res-2")
	conflict := newConflict(
		Reservation{ID: first, Room: room, CheckIn: mustDate(test, "2026-02-01"), CheckOut: mustDate(test, "2026-02-03"), CreatedAt: mustDate(test, "2026-01-01")},
		Reservation{ID: second, Room: room, CheckIn: mustDate(test, "2026-02-02"), CheckOut: mustDate(test, "2026-02-04"), CreatedAt: mustDate(test, "2026-01-02")},
	)
	parsedRoom, parsedFirst, parsedSecond, err := parseConflictID(conflict.ID)
	if err != nil || parsedRoom != room || parsedFirst != first || parsedSecond != second {
		test.Fatalf("conflict id %q did not round trip: %v", conflict.ID, err)
	}
}

func TestParseEnumsRejectUnknownValues(test *testing.T) {
	test.Parallel()
	if status, err := ParseReservationStatus("CONFIRMED"); err != nil || status != ReservationStatusConfirmed {
		test.Fatalf("expected CONFIRMED, got %s (%v)", status, err)
	}
	if _, err := ParseReservationStatus("confirmed"); !errors.Is(err, ErrInvalidStatus) {
		test.Fatalf("expected case-sensitive rejection, got %v", err)
	}
	if _, err := ParseRoomTier("PENTHOUSE"); !errors.Is(err, ErrInvalidStatus) {
		test.Fatalf("expected unknown tier rejection, got %v", err)
	}
	if _, err := ParsePaymentMethod("CHEQUE"); !errors.Is(err, ErrInvalidStatus) {
		test.Fatalf("expected unknown method rejection, got %v", err)
	}
}

func TestActiveReservationStatuses(test *testing.T) {
	test.Parallel()
	active := ActiveReservationStatuses()
	want := []ReservationStatus{
		ReservationStatusPendingPayment,
		ReservationStatusAwaitingProof,
		ReservationStatusInReview,
		ReservationStatusConfirmed,
		ReservationStatusCheckedIn,
	}
	if len(active) != len(want) {
		test.Fatalf("expected %d active statuses, got %v", len(want), active)
	}
	for index := range want {
		if active[index] != want[index] {
			test.Fatalf("expected %v, got %v", want, active)
		}
	}
	if ReservationStatusPaymentRejected.IsActive() {
		test.Fatalf("PAYMENT_REJECTED must not hold the room")
	}
}
