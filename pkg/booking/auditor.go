package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RiskLevel buckets the overbooking risk score.
type RiskLevel string

const (
	RiskLevelNone   RiskLevel = "NONE"
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// RecommendationAction is the remediation suggested for a conflict.
type RecommendationAction string

const (
	RecommendUpgrade  RecommendationAction = "UPGRADE"
	RecommendRelocate RecommendationAction = "RELOCATE"
	RecommendCancel   RecommendationAction = "CANCEL"
)

const (
	riskPerPair       = 10
	riskPerRoom       = 5
	riskPerOverbooked = 15
	riskScoreCap      = 100
)

// Conflict is a pair of active reservations overlapping on one room. First is
// the earlier-created reservation; Loser is the one recommended for resolution.
type Conflict struct {
	ID      string
	Room    RoomNumber
	First   ReservationSummary
	Second  ReservationSummary
	Winner  ReservationSummary
	Loser   ReservationSummary
	Overlap Interval
}

// Recommendation is a suggested remediation for one conflict.
type Recommendation struct {
	ConflictID  string
	Reservation ReservationID
	Action      RecommendationAction
	TargetRoom  RoomNumber
	Message     string
}

// OverbookingReport summarises conflicts in a date range.
type OverbookingReport struct {
	Range           Interval
	ConflictsByRoom map[RoomNumber][]Conflict
	Conflicts       []Conflict
	Overbooked      int
	RiskScore       int
	RiskLevel       RiskLevel
	Recommendations []Recommendation
}

// ConflictResolutionRequest asks the auditor to act on one conflict. Target
// defaults to the conflict's loser; TargetRoom is required for REASSIGN_ROOM.
type ConflictResolutionRequest struct {
	ConflictID string
	Action     ResolutionAction
	Operator   OperatorID
	Target     *ReservationID
	TargetRoom RoomNumber
}

// Auditor reports overbooking conflicts and applies operator resolutions
// through the Allocator and Engine. It never mutates reservations itself.
type Auditor struct {
	store     Store
	allocator *Allocator
	engine    *Engine
	nowFn     func() time.Time
	options   serviceOptions
}

// NewAuditor wires an Auditor.
func NewAuditor(store Store, allocator *Allocator, engine *Engine, now func() time.Time, options ...ServiceOption) (*Auditor, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if allocator == nil || engine == nil {
		return nil, fmt.Errorf("%w: allocator and engine are required", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &Auditor{store: store, allocator: allocator, engine: engine, nowFn: now, options: applyOptions(options)}, nil
}

// AnalyzeRange re-runs overlap detection over every active reservation
// touching [start, end) without taking any lock. Pairs an operator accepted
// as a risk are left out.
func (auditor *Auditor) AnalyzeRange(ctx context.Context, start time.Time, end time.Time) (OverbookingReport, error) {
	window, err := NewInterval(start, end)
	if err != nil {
		return OverbookingReport{}, err
	}
	reservations, err := auditor.store.ListActiveReservationsBetween(ctx, window.Start, window.End)
	if err != nil {
		return OverbookingReport{}, err
	}
	candidates := detectConflicts(reservations)
	accepted, err := auditor.acceptedConflicts(ctx, candidates)
	if err != nil {
		return OverbookingReport{}, err
	}

	report := OverbookingReport{
		Range:           window,
		ConflictsByRoom: make(map[RoomNumber][]Conflict),
		Conflicts:       make([]Conflict, 0, len(candidates)),
		Recommendations: make([]Recommendation, 0),
	}
	overbooked := make(map[ReservationID]struct{})
	for _, conflict := range candidates {
		if _, skip := accepted[conflict.ID]; skip {
			continue
		}
		report.Conflicts = append(report.Conflicts, conflict)
		report.ConflictsByRoom[conflict.Room] = append(report.ConflictsByRoom[conflict.Room], conflict)
		for _, side := range []ReservationSummary{conflict.First, conflict.Second} {
			if side.Overbooked {
				overbooked[side.ID] = struct{}{}
			}
		}
	}
	report.Overbooked = len(overbooked)
	report.RiskScore = riskScore(len(report.Conflicts), len(report.ConflictsByRoom), report.Overbooked)
	report.RiskLevel = riskLevel(report.RiskScore)
	if len(report.Conflicts) == 0 {
		return report, nil
	}

	rooms, err := auditor.store.ListRooms(ctx)
	if err != nil {
		return OverbookingReport{}, err
	}
	for _, conflict := range report.Conflicts {
		recommendation, err := auditor.recommend(ctx, conflict, rooms)
		if err != nil {
			return OverbookingReport{}, err
		}
		report.Recommendations = append(report.Recommendations, recommendation)
	}
	return report, nil
}

// ResolveConflict applies an operator decision to a conflict that still
// exists and records it. Cancellation goes through Engine.Cancel so payments,
// proofs and the stay follow the reservation.
func (auditor *Auditor) ResolveConflict(ctx context.Context, request ConflictResolutionRequest) (ConflictResolution, error) {
	resolution, operationError := auditor.resolve(ctx, request)
	auditor.options.logOperation(ctx, OperationLog{
		Operation:     operationResolveConflict,
		ReservationID: resolution.Target.String(),
		Room:          resolution.Room.String(),
		Operator:      request.Operator.String(),
		Error:         operationError,
	}, auditor.nowFn())
	if operationError != nil {
		return ConflictResolution{}, operationError
	}
	return resolution, nil
}

func (auditor *Auditor) resolve(ctx context.Context, request ConflictResolutionRequest) (ConflictResolution, error) {
	if request.Operator.String() == "" {
		return ConflictResolution{}, fmt.Errorf("%w: operator is required", ErrInvalidOperatorID)
	}
	if _, err := ParseResolutionAction(request.Action.String()); err != nil {
		return ConflictResolution{}, err
	}
	room, firstID, secondID, err := parseConflictID(request.ConflictID)
	if err != nil {
		return ConflictResolution{}, err
	}
	first, err := auditor.store.GetReservation(ctx, firstID)
	if err != nil {
		return ConflictResolution{}, err
	}
	second, err := auditor.store.GetReservation(ctx, secondID)
	if err != nil {
		return ConflictResolution{}, err
	}
	if first.Room != room || second.Room != room || !first.Status.IsActive() || !second.Status.IsActive() || !Overlaps(first.Interval(), second.Interval()) {
		return ConflictResolution{}, fmt.Errorf("%w: %s", ErrConflictResolved, request.ConflictID)
	}
	conflict := newConflict(first, second)

	target := conflict.Loser.ID
	if request.Target != nil {
		if *request.Target != first.ID && *request.Target != second.ID {
			return ConflictResolution{}, fmt.Errorf("%w: reservation %s is not part of %s", ErrInvalidResolution, request.Target.String(), request.ConflictID)
		}
		target = *request.Target
	}

	switch request.Action {
	case ResolutionReassignRoom:
		if request.TargetRoom.IsZero() {
			return ConflictResolution{}, fmt.Errorf("%w: target room is required", ErrInvalidResolution)
		}
		if _, err := auditor.allocator.ReassignRoom(ctx, target, request.TargetRoom, request.Operator); err != nil {
			return ConflictResolution{}, err
		}
	case ResolutionCancel:
		if _, err := auditor.engine.Cancel(ctx, target, request.Operator, "overbooking conflict "+conflict.ID); err != nil {
			return ConflictResolution{}, err
		}
	case ResolutionAcceptRisk:
	}

	resolution := ConflictResolution{
		ID:         auditor.options.identifiers(),
		ConflictID: conflict.ID,
		Action:     request.Action,
		Room:       room,
		Target:     target,
		TargetRoom: request.TargetRoom,
		Operator:   request.Operator,
		CreatedAt:  auditor.nowFn().UTC(),
	}
	if err := auditor.store.RecordConflictResolution(ctx, resolution); err != nil {
		return ConflictResolution{}, err
	}
	return resolution, nil
}

func (auditor *Auditor) acceptedConflicts(ctx context.Context, conflicts []Conflict) (map[string]struct{}, error) {
	accepted := make(map[string]struct{})
	if len(conflicts) == 0 {
		return accepted, nil
	}
	identifiers := make([]string, 0, len(conflicts))
	for _, conflict := range conflicts {
		identifiers = append(identifiers, conflict.ID)
	}
	resolutions, err := auditor.store.ListConflictResolutions(ctx, identifiers)
	if err != nil {
		return nil, err
	}
	for _, resolution := range resolutions {
		if resolution.Action == ResolutionAcceptRisk {
			accepted[resolution.ConflictID] = struct{}{}
		}
	}
	return accepted, nil
}

// recommend prefers an upgrade to the lowest higher tier with a free room,
// then a same-tier relocation, then cancelling the losing reservation.
func (auditor *Auditor) recommend(ctx context.Context, conflict Conflict, rooms []Room) (Recommendation, error) {
	loser := conflict.Loser
	recommendation := Recommendation{ConflictID: conflict.ID, Reservation: loser.ID}
	currentTier := RoomTier("")
	for _, room := range rooms {
		if room.Number == loser.Room {
			currentTier = room.Tier
			break
		}
	}

	upgrades := make([]Room, 0)
	relocations := make([]Room, 0)
	for _, room := range rooms {
		if room.Number == loser.Room || room.Status != RoomStatusFree {
			continue
		}
		switch {
		case room.Tier.rank() > currentTier.rank():
			upgrades = append(upgrades, room)
		case room.Tier == currentTier:
			relocations = append(relocations, room)
		}
	}
	sort.SliceStable(upgrades, func(left, right int) bool {
		if upgrades[left].Tier.rank() != upgrades[right].Tier.rank() {
			return upgrades[left].Tier.rank() < upgrades[right].Tier.rank()
		}
		return upgrades[left].Number.String() < upgrades[right].Number.String()
	})
	sort.SliceStable(relocations, func(left, right int) bool {
		return relocations[left].Number.String() < relocations[right].Number.String()
	})

	interval := Interval{Start: loser.CheckIn, End: loser.CheckOut}
	candidate, err := auditor.firstAvailable(ctx, upgrades, interval, loser.ID)
	if err != nil {
		return Recommendation{}, err
	}
	if candidate != nil {
		recommendation.Action = RecommendUpgrade
		recommendation.TargetRoom = candidate.Number
		recommendation.Message = fmt.Sprintf("upgrade %s to room %s (%s)", loser.Code, candidate.Number, candidate.Tier)
		return recommendation, nil
	}
	candidate, err = auditor.firstAvailable(ctx, relocations, interval, loser.ID)
	if err != nil {
		return Recommendation{}, err
	}
	if candidate != nil {
		recommendation.Action = RecommendRelocate
		recommendation.TargetRoom = candidate.Number
		recommendation.Message = fmt.Sprintf("relocate %s to room %s", loser.Code, candidate.Number)
		return recommendation, nil
	}
	recommendation.Action = RecommendCancel
	recommendation.Message = fmt.Sprintf("cancel lowest-priority booking %s", loser.Code)
	return recommendation, nil
}

func (auditor *Auditor) firstAvailable(ctx context.Context, rooms []Room, interval Interval, exclude ReservationID) (*Room, error) {
	for index := range rooms {
		availability, err := checkAvailability(ctx, auditor.store, rooms[index].Number, interval, &exclude)
		if err != nil {
			return nil, err
		}
		if availability.Available {
			return &rooms[index], nil
		}
	}
	return nil, nil
}

// detectConflicts groups reservations by room and returns every overlapping
// pair. Conflicts touching an overbooked reservation come first.
func detectConflicts(reservations []Reservation) []Conflict {
	byRoom := make(map[RoomNumber][]Reservation)
	for _, reservation := range reservations {
		if !reservation.Status.IsActive() {
			continue
		}
		byRoom[reservation.Room] = append(byRoom[reservation.Room], reservation)
	}
	conflicts := make([]Conflict, 0)
	for _, roomReservations := range byRoom {
		sort.Slice(roomReservations, func(left, right int) bool {
			return createdBefore(roomReservations[left], roomReservations[right])
		})
		for leftIndex := 0; leftIndex < len(roomReservations); leftIndex++ {
			for rightIndex := leftIndex + 1; rightIndex < len(roomReservations); rightIndex++ {
				left, right := roomReservations[leftIndex], roomReservations[rightIndex]
				if Overlaps(left.Interval(), right.Interval()) {
					conflicts = append(conflicts, newConflict(left, right))
				}
			}
		}
	}
	sort.SliceStable(conflicts, func(left, right int) bool {
		leftFlagged := conflicts[left].Loser.Overbooked
		rightFlagged := conflicts[right].Loser.Overbooked
		if leftFlagged != rightFlagged {
			return leftFlagged
		}
		if conflicts[left].Room != conflicts[right].Room {
			return conflicts[left].Room.String() < conflicts[right].Room.String()
		}
		return conflicts[left].ID < conflicts[right].ID
	})
	return conflicts
}

// newConflict orders the pair by creation. The earlier reservation wins
// unless exactly one side carries the overbooked flag, which then loses.
func newConflict(a Reservation, b Reservation) Conflict {
	first, second := a, b
	if createdBefore(b, a) {
		first, second = b, a
	}
	winner, loser := first, second
	if first.Overbooked && !second.Overbooked {
		winner, loser = second, first
	}
	return Conflict{
		ID:     strings.Join([]string{first.Room.String(), first.ID.String(), second.ID.String()}, conflictIDDelimiter),
		Room:   first.Room,
		First:  first.Summary(),
		Second: second.Summary(),
		Winner: winner.Summary(),
		Loser:  loser.Summary(),
		Overlap: Interval{
			Start: latest(first.CheckIn, second.CheckIn),
			End:   earliest(first.CheckOut, second.CheckOut),
		},
	}
}

func parseConflictID(raw string) (RoomNumber, ReservationID, ReservationID, error) {
	parts := strings.Split(strings.TrimSpace(raw), conflictIDDelimiter)
	if len(parts) != 3 {
		return RoomNumber{}, ReservationID{}, ReservationID{}, fmt.Errorf("%w: malformed conflict id %q", ErrInvalidResolution, raw)
	}
	room, err := NewRoomNumber(parts[0])
	if err != nil {
		return RoomNumber{}, ReservationID{}, ReservationID{}, err
	}
	first, err := NewReservationID(parts[1])
	if err != nil {
		return RoomNumber{}, ReservationID{}, ReservationID{}, err
	}
	second, err := NewReservationID(parts[2])
	if err != nil {
		return RoomNumber{}, ReservationID{}, ReservationID{}, err
	}
	return room, first, second, nil
}

func riskScore(pairs int, rooms int, overbooked int) int {
	score := riskPerPair*pairs + riskPerRoom*rooms + riskPerOverbooked*overbooked
	if score > riskScoreCap {
		return riskScoreCap
	}
	return score
}

func riskLevel(score int) RiskLevel {
	switch {
	case score == 0:
		return RiskLevelNone
	case score <= 30:
		return RiskLevelLow
	case score <= 60:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

func createdBefore(left Reservation, right Reservation) bool {
	if !left.CreatedAt.Equal(right.CreatedAt) {
		return left.CreatedAt.Before(right.CreatedAt)
	}
	return left.ID.String() < right.ID.String()
}

func latest(left time.Time, right time.Time) time.Time {
	if left.After(right) {
		return left
	}
	return right
}

func earliest(left time.Time, right time.Time) time.Time {
	if left.Before(right) {
		return left
	}
	return right
}
