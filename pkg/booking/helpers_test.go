package booking

import (
	"context"
	"sync"
	"testing"
	"time"
)

const (
	roomLuxoValue         = "101"
	roomStandardValue     = "102"
	roomMaintenanceValue  = "103"
	roomSuperiorValue     = "201"
	roomPresidencialValue = "301"
	clientValue           = "client-1"
	otherClientValue      = "client-2"
	operatorValue         = "frontdesk-1"
	reviewerValue         = "finance-1"
	dateLayout            = "2006-01-02"
)

type recorderLogger struct {
	mutex   sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.entries = append(logger.entries, entry)
}

func (logger *recorderLogger) operations() []OperationLog {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	return append([]OperationLog(nil), logger.entries...)
}

type recorderNotifier struct {
	mutex         sync.Mutex
	notifications []Notification
	err           error
}

func (notifier *recorderNotifier) Notify(_ context.Context, notification Notification) error {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	notifier.notifications = append(notifier.notifications, notification)
	return notifier.err
}

func (notifier *recorderNotifier) events() []string {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	events := make([]string, 0, len(notifier.notifications))
	for _, notification := range notifier.notifications {
		events = append(events, notification.Event)
	}
	return events
}

type stubGateway struct {
	status GatewayStatus
	err    error
}

func (gateway stubGateway) PaymentStatus(context.Context, string) (GatewayStatus, error) {
	return gateway.status, gateway.err
}

// steppingClock advances one minute per reading so creation order is stable.
type steppingClock struct {
	mutex   sync.Mutex
	current time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{current: time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)}
}

func (clock *steppingClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.current = clock.current.Add(time.Minute)
	return clock.current
}

type fixture struct {
	store     *memoryStore
	locks     *LockManager
	allocator *Allocator
	engine    *Engine
	ledger    *LoyaltyLedger
	auditor   *Auditor
	logger    *recorderLogger
	notifier  *recorderNotifier
}

func defaultRooms(test *testing.T) []Room {
	test.Helper()
	return []Room{
		{Number: mustRoom(test, roomLuxoValue), Tier: RoomTierLuxo, Status: RoomStatusFree},
		{Number: mustRoom(test, roomStandardValue), Tier: RoomTierStandard, Status: RoomStatusFree},
		{Number: mustRoom(test, roomMaintenanceValue), Tier: RoomTierLuxo, Status: RoomStatusUnderMaintenance},
		{Number: mustRoom(test, roomSuperiorValue), Tier: RoomTierSuperior, Status: RoomStatusFree},
		{Number: mustRoom(test, roomPresidencialValue), Tier: RoomTierPresidencial, Status: RoomStatusFree},
	}
}

func newFixture(test *testing.T, options ...ServiceOption) *fixture {
	test.Helper()
	store := newMemoryStore(test, defaultRooms(test)...)
	return newFixtureWithStore(test, store, options...)
}

func newFixtureWithStore(test *testing.T, store *memoryStore, options ...ServiceOption) *fixture {
	test.Helper()
	clock := newSteppingClock()
	logger := &recorderLogger{}
	notifier := &recorderNotifier{}
	options = append([]ServiceOption{WithOperationLogger(logger), WithNotifier(notifier)}, options...)
	locks := NewLockManager(2 * time.Second)
	allocator, err := NewAllocator(store, locks, clock.Now, options...)
	if err != nil {
		test.Fatalf("allocator init failed: %v", err)
	}
	engine, err := NewEngine(store, locks, clock.Now, options...)
	if err != nil {
		test.Fatalf("engine init failed: %v", err)
	}
	ledger, err := NewLoyaltyLedger(store, clock.Now, options...)
	if err != nil {
		test.Fatalf("ledger init failed: %v", err)
	}
	auditor, err := NewAuditor(store, allocator, engine, clock.Now, options...)
	if err != nil {
		test.Fatalf("auditor init failed: %v", err)
	}
	return &fixture{
		store:     store,
		locks:     locks,
		allocator: allocator,
		engine:    engine,
		ledger:    ledger,
		auditor:   auditor,
		logger:    logger,
		notifier:  notifier,
	}
}

func (fixture *fixture) reserve(test *testing.T, room string, checkIn string, checkOut string, allowOverbooking bool) Reservation {
	test.Helper()
	reservation, err := fixture.allocator.CreateReservation(context.Background(), ReservationRequest{
		ClientID:         mustClientID(test, clientValue),
		Room:             mustRoom(test, room),
		CheckIn:          mustDate(test, checkIn),
		CheckOut:         mustDate(test, checkOut),
		NightlyRateCents: 45000,
		Occupants:        2,
		Operator:         mustOperator(test, operatorValue),
	}, allowOverbooking)
	if err != nil {
		test.Fatalf("create reservation failed: %v", err)
	}
	return reservation
}

// confirm walks a reservation through payment, proof upload and approval.
func (fixture *fixture) confirm(test *testing.T, reservation Reservation) (PaymentID, ProofID) {
	test.Helper()
	ctx := context.Background()
	created, err := fixture.engine.PaymentCreated(ctx, PaymentRequest{
		ReservationID: reservation.ID,
		AmountCents:   reservation.NightlyRateCents * int64(reservation.Nights),
		Method:        PaymentMethodPix,
		Operator:      mustOperator(test, operatorValue),
	})
	if err != nil {
		test.Fatalf("payment created failed: %v", err)
	}
	uploaded, err := fixture.engine.ProofUploaded(ctx, created.PaymentID, "proofs/"+reservation.Code+".pdf", mustOperator(test, operatorValue))
	if err != nil {
		test.Fatalf("proof uploaded failed: %v", err)
	}
	if _, err := fixture.engine.ProofApproved(ctx, uploaded.ProofID, mustOperator(test, reviewerValue)); err != nil {
		test.Fatalf("proof approved failed: %v", err)
	}
	return created.PaymentID, uploaded.ProofID
}

func (fixture *fixture) reservation(test *testing.T, reservationID ReservationID) Reservation {
	test.Helper()
	reservation, err := fixture.store.GetReservation(context.Background(), reservationID)
	if err != nil {
		test.Fatalf("get reservation: %v", err)
	}
	return reservation
}

func (fixture *fixture) room(test *testing.T, room string) Room {
	test.Helper()
	record, err := fixture.store.GetRoom(context.Background(), mustRoom(test, room))
	if err != nil {
		test.Fatalf("get room: %v", err)
	}
	return record
}

func (fixture *fixture) stay(test *testing.T, reservationID ReservationID) Stay {
	test.Helper()
	stay, err := fixture.store.GetStay(context.Background(), reservationID)
	if err != nil {
		test.Fatalf("get stay: %v", err)
	}
	return stay
}

func (fixture *fixture) payment(test *testing.T, paymentID PaymentID) Payment {
	test.Helper()
	payment, err := fixture.store.GetPayment(context.Background(), paymentID)
	if err != nil {
		test.Fatalf("get payment: %v", err)
	}
	return payment
}

func (fixture *fixture) proof(test *testing.T, proofID ProofID) Proof {
	test.Helper()
	proof, err := fixture.store.GetProof(context.Background(), proofID)
	if err != nil {
		test.Fatalf("get proof: %v", err)
	}
	return proof
}

func mustRoom(test *testing.T, raw string) RoomNumber {
	test.Helper()
	room, err := NewRoomNumber(raw)
	if err != nil {
		test.Fatalf("room number: %v", err)
	}
	return room
}

func mustClientID(test *testing.T, raw string) ClientID {
	test.Helper()
	clientID, err := NewClientID(raw)
	if err != nil {
		test.Fatalf("client id: %v", err)
	}
	return clientID
}

func mustOperator(test *testing.T, raw string) OperatorID {
	test.Helper()
	operator, err := NewOperatorID(raw)
	if err != nil {
		test.Fatalf("operator id: %v", err)
	}
	return operator
}

func mustReservationID(test *testing.T, raw string) ReservationID {
	test.Helper()
	reservationID, err := NewReservationID(raw)
	if err != nil {
		test.Fatalf("reservation id: %v", err)
	}
	return reservationID
}

func mustDate(test *testing.T, raw string) time.Time {
	test.Helper()
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		test.Fatalf("date %q: %v", raw, err)
	}
	return parsed
}

func mustInterval(test *testing.T, start string, end string) Interval {
	test.Helper()
	interval, err := NewInterval(mustDate(test, start), mustDate(test, end))
	if err != nil {
		test.Fatalf("interval: %v", err)
	}
	return interval
}
