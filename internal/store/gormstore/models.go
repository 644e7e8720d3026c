package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Room mirrors the rooms table.
type Room struct {
	Number    string    `gorm:"primaryKey"`
	Tier      string    `gorm:"not null"`
	Status    string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Room) TableName() string { return "rooms" }

// Reservation mirrors the reservations table.
type Reservation struct {
	ReservationID    string    `gorm:"primaryKey"`
	Code             string    `gorm:"not null;uniqueIndex:idx_reservations_code"`
	ClientID         string    `gorm:"not null;index:idx_reservations_client"`
	RoomNumber       string    `gorm:"not null;index:idx_reservations_room_status,priority:1"`
	Status           string    `gorm:"not null;index:idx_reservations_room_status,priority:2"`
	CheckIn          time.Time `gorm:"not null;index:idx_reservations_window,priority:1"`
	CheckOut         time.Time `gorm:"not null;index:idx_reservations_window,priority:2"`
	NightlyRateCents int64     `gorm:"not null"`
	Nights           int       `gorm:"not null"`
	Occupants        int       `gorm:"not null"`
	Overbooked       bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }

func (reservation *Reservation) BeforeCreate(tx *gorm.DB) error {
	if reservation.ReservationID == "" {
		reservation.ReservationID = uuid.NewString()
	}
	return nil
}

// Payment mirrors the payments table. The gateway transaction id is unique
// when present.
type Payment struct {
	PaymentID            string    `gorm:"primaryKey"`
	ReservationID        string    `gorm:"not null;index:idx_payments_reservation"`
	AmountCents          int64     `gorm:"not null"`
	Method               string    `gorm:"not null"`
	Status               string    `gorm:"not null"`
	GatewayTransactionID *string   `gorm:"uniqueIndex:idx_payments_gateway_transaction"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

func (payment *Payment) BeforeCreate(tx *gorm.DB) error {
	if payment.PaymentID == "" {
		payment.PaymentID = uuid.NewString()
	}
	return nil
}

// Proof mirrors the proofs table.
type Proof struct {
	ProofID    string     `gorm:"primaryKey"`
	PaymentID  string     `gorm:"not null;index:idx_proofs_payment"`
	FileRef    string     `gorm:"not null"`
	Status     string     `gorm:"not null"`
	ReviewedBy string     `gorm:"not null;default:''"`
	ReviewedAt *time.Time `gorm:""`
	Note       string     `gorm:"not null;default:''"`
	CreatedAt  time.Time  `gorm:"not null"`
}

func (Proof) TableName() string { return "proofs" }

// Stay mirrors the stays table, keyed by its reservation.
type Stay struct {
	ReservationID string     `gorm:"primaryKey"`
	Status        string     `gorm:"not null"`
	Occupants     int        `gorm:"not null"`
	CheckedInAt   *time.Time `gorm:""`
	CheckedInBy   string     `gorm:"not null;default:''"`
	CheckedOutAt  *time.Time `gorm:""`
	CheckedOutBy  string     `gorm:"not null;default:''"`
}

func (Stay) TableName() string { return "stays" }

// LoyaltyEntry mirrors the loyalty_entries table. CheckoutReservationID is
// only set for CHECKOUT credits so the unique index allows one per reservation.
type LoyaltyEntry struct {
	EntryID               string    `gorm:"primaryKey"`
	ClientID              string    `gorm:"not null;index:idx_loyalty_client_created,priority:1"`
	Delta                 int64     `gorm:"not null"`
	Source                string    `gorm:"not null"`
	ReservationID         *string   `gorm:"index:idx_loyalty_reservation"`
	CheckoutReservationID *string   `gorm:"uniqueIndex:idx_loyalty_checkout_credit"`
	BalanceBefore         int64     `gorm:"not null"`
	BalanceAfter          int64     `gorm:"not null"`
	Operator              string    `gorm:"not null"`
	CreatedAt             time.Time `gorm:"not null;index:idx_loyalty_client_created,priority:2"`
}

func (LoyaltyEntry) TableName() string { return "loyalty_entries" }

func (entry *LoyaltyEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	return nil
}

// LoyaltyBalance caches the running balance per client.
type LoyaltyBalance struct {
	ClientID  string    `gorm:"primaryKey"`
	Points    int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (LoyaltyBalance) TableName() string { return "loyalty_balances" }

// ConflictResolution mirrors the conflict_resolutions table. Action-specific
// parameters live in Details.
type ConflictResolution struct {
	ResolutionID  string         `gorm:"primaryKey"`
	ConflictID    string         `gorm:"not null;index:idx_conflict_resolutions_conflict"`
	Action        string         `gorm:"not null"`
	RoomNumber    string         `gorm:"not null"`
	ReservationID string         `gorm:"not null"`
	Operator      string         `gorm:"not null"`
	Details       datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (ConflictResolution) TableName() string { return "conflict_resolutions" }

func (resolution *ConflictResolution) BeforeCreate(tx *gorm.DB) error {
	if resolution.ResolutionID == "" {
		resolution.ResolutionID = uuid.NewString()
	}
	return nil
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&Room{},
		&Reservation{},
		&Payment{},
		&Proof{},
		&Stay{},
		&LoyaltyEntry{},
		&LoyaltyBalance{},
		&ConflictResolution{},
	}
}
