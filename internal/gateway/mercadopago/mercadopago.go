package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

// ErrMissingAccessToken is returned when no access token is configured.
var ErrMissingAccessToken = errors.New("mercado pago access token is required")

// PaymentReader is the slice of payment.Client the gateway needs.
type PaymentReader interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Gateway reports Mercado Pago settlement status for card payments.
type Gateway struct {
	payments PaymentReader
}

// New builds a Gateway backed by the Mercado Pago SDK.
func New(accessToken string) (*Gateway, error) {
	trimmed := strings.TrimSpace(accessToken)
	if trimmed == "" {
		return nil, ErrMissingAccessToken
	}
	sdkConfig, err := config.New(trimmed)
	if err != nil {
		return nil, fmt.Errorf("mercado pago config: %w", err)
	}
	return NewWithReader(payment.NewClient(sdkConfig))
}

// NewWithReader wraps an existing payment reader.
func NewWithReader(payments PaymentReader) (*Gateway, error) {
	if payments == nil {
		return nil, fmt.Errorf("%w: payment reader is nil", booking.ErrInvalidServiceConfig)
	}
	return &Gateway{payments: payments}, nil
}

// PaymentStatus implements booking.PaymentGateway. Mercado Pago payment ids
// are numeric.
func (gateway *Gateway) PaymentStatus(ctx context.Context, transactionID string) (booking.GatewayStatus, error) {
	paymentID, err := strconv.Atoi(strings.TrimSpace(transactionID))
	if err != nil {
		return "", fmt.Errorf("%w: transaction id %q is not numeric", booking.ErrMissingTransactionID, transactionID)
	}
	response, err := gateway.payments.Get(ctx, paymentID)
	if err != nil {
		return "", fmt.Errorf("get payment %d: %w", paymentID, err)
	}
	if response == nil {
		return "", fmt.Errorf("get payment %d: empty response", paymentID)
	}
	return mapStatus(response.Status), nil
}

func mapStatus(status string) booking.GatewayStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved", "authorized":
		return booking.GatewayStatusConfirmed
	case "rejected", "cancelled", "refunded", "charged_back":
		return booking.GatewayStatusDenied
	default:
		return booking.GatewayStatusPending
	}
}
