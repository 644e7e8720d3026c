package booking

import (
	"context"
	"time"
)

// OperationLogger records domain-level events emitted by booking operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing booking operation.
type OperationLog struct {
	Operation         string
	ReservationID     string
	Room              string
	Operator          string
	ReservationStatus ReservationStatus
	StayStatus        StayStatus
	PointsCredited    int64
	Replayed          bool
	Status            string
	Error             error
	OccurredAt        time.Time
}

// Notification is a best-effort side-channel event.
type Notification struct {
	Event         string
	ReservationID string
	Code          string
	Room          string
	ClientID      string
	OccurredAt    time.Time
}

// Notifier dispatches notifications. Failures are logged, never returned to callers.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// GatewayStatus is the settlement state reported by the card gateway.
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "PENDING"
	GatewayStatusConfirmed GatewayStatus = "CONFIRMED"
	GatewayStatusDenied    GatewayStatus = "DENIED"
)

// PaymentGateway reports settlement status for gateway-backed payments.
type PaymentGateway interface {
	PaymentStatus(ctx context.Context, transactionID string) (GatewayStatus, error)
}

// ServiceOption configures the booking services.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger      OperationLogger
	notifier    Notifier
	gateway     PaymentGateway
	codes       func() (string, error)
	identifiers func() string
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(options *serviceOptions) {
		options.logger = logger
	}
}

// WithNotifier wires the notification dispatcher.
func WithNotifier(notifier Notifier) ServiceOption {
	return func(options *serviceOptions) {
		options.notifier = notifier
	}
}

// WithPaymentGateway wires the gateway used by ReconcilePayment.
func WithPaymentGateway(gateway PaymentGateway) ServiceOption {
	return func(options *serviceOptions) {
		options.gateway = gateway
	}
}

// WithCodeGenerator overrides reservation code generation.
func WithCodeGenerator(generate func() (string, error)) ServiceOption {
	return func(options *serviceOptions) {
		options.codes = generate
	}
}

// WithIDGenerator overrides identifier generation for new rows.
func WithIDGenerator(generate func() string) ServiceOption {
	return func(options *serviceOptions) {
		options.identifiers = generate
	}
}

func applyOptions(options []ServiceOption) serviceOptions {
	resolved := serviceOptions{
		codes:       generateReservationCode,
		identifiers: newIdentifier,
	}
	for _, option := range options {
		if option != nil {
			option(&resolved)
		}
	}
	return resolved
}

func (options serviceOptions) logOperation(ctx context.Context, entry OperationLog, now time.Time) {
	if options.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = now
	}
	options.logger.LogOperation(ctx, entry)
}

func (options serviceOptions) notify(ctx context.Context, notification Notification) {
	if options.notifier == nil {
		return
	}
	if err := options.notifier.Notify(ctx, notification); err != nil {
		options.logOperation(ctx, OperationLog{
			Operation:     operationNotify,
			ReservationID: notification.ReservationID,
			Room:          notification.Room,
			Error:         err,
		}, notification.OccurredAt)
	}
}
