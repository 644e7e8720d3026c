package redisnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the pub/sub channel notifications are published on.
const DefaultChannel = "hospedagem.notifications"

// ErrMissingChannel is returned when the publisher is built without a channel.
var ErrMissingChannel = errors.New("redis notification channel is required")

// Publisher is satisfied by *redis.Client.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type message struct {
	Event         string    `json:"event"`
	ReservationID string    `json:"reservation_id"`
	Code          string    `json:"code,omitempty"`
	Room          string    `json:"room,omitempty"`
	ClientID      string    `json:"client_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier publishes booking notifications as JSON on a redis channel.
type Notifier struct {
	client  Publisher
	channel string
}

// New returns a Notifier publishing on channel.
func New(client Publisher, channel string) (*Notifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is nil", booking.ErrInvalidServiceConfig)
	}
	trimmed := strings.TrimSpace(channel)
	if trimmed == "" {
		return nil, ErrMissingChannel
	}
	return &Notifier{client: client, channel: trimmed}, nil
}

// NewClient builds a redis client for addr.
func NewClient(addr string, password string, database int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})
}

// Notify implements booking.Notifier.
func (notifier *Notifier) Notify(ctx context.Context, notification booking.Notification) error {
	payload, err := json.Marshal(message{
		Event:         notification.Event,
		ReservationID: notification.ReservationID,
		Code:          notification.Code,
		Room:          notification.Room,
		ClientID:      notification.ClientID,
		OccurredAt:    notification.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := notifier.client.Publish(ctx, notifier.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", notification.Event, err)
	}
	return nil
}
