package redisnotify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/go-redis/redis/v8"
)

type recordingPublisher struct {
	channel string
	payload []byte
	err     error
}

func (publisher *recordingPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	publisher.channel = channel
	publisher.payload = message.([]byte)
	command := redis.NewIntCmd(ctx)
	if publisher.err != nil {
		command.SetErr(publisher.err)
		return command
	}
	command.SetVal(1)
	return command
}

func TestNotifyPublishesJSON(test *testing.T) {
	test.Parallel()
	publisher := &recordingPublisher{}
	notifier, err := New(publisher, " "+DefaultChannel+" ")
	if err != nil {
		test.Fatalf("new: %v", err)
	}
	occurredAt := time.Date(2026, time.March, 4, 11, 0, 0, 0, time.UTC)
	err = notifier.Notify(context.Background(), booking.Notification{
		Event:         "reservation.checked_out",
		ReservationID: "reservation-1",
		Code:          "HSP-ABC234",
		Room:          "101",
		ClientID:      "client-1",
		OccurredAt:    occurredAt,
	})
	if err != nil {
		test.Fatalf("notify: %v", err)
	}
	if publisher.channel != DefaultChannel {
		test.Fatalf("unexpected channel %q", publisher.channel)
	}
	var decoded message
	if err := json.Unmarshal(publisher.payload, &decoded); err != nil {
		test.Fatalf("decode: %v", err)
	}
	if decoded.Event != "reservation.checked_out" || decoded.Code != "HSP-ABC234" || !decoded.OccurredAt.Equal(occurredAt) {
		test.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestNotifyReturnsPublishError(test *testing.T) {
	test.Parallel()
	failure := errors.New("connection reset")
	notifier, err := New(&recordingPublisher{err: failure}, DefaultChannel)
	if err != nil {
		test.Fatalf("new: %v", err)
	}
	if err := notifier.Notify(context.Background(), booking.Notification{Event: "reservation.created"}); !errors.Is(err, failure) {
		test.Fatalf("expected publish error, got %v", err)
	}
}

func TestNewValidatesInputs(test *testing.T) {
	test.Parallel()
	if _, err := New(nil, DefaultChannel); !errors.Is(err, booking.ErrInvalidServiceConfig) {
		test.Fatalf("expected invalid config, got %v", err)
	}
	if _, err := New(&recordingPublisher{}, "  "); !errors.Is(err, ErrMissingChannel) {
		test.Fatalf("expected missing channel, got %v", err)
	}
	client := NewClient("localhost:6379", "", 0)
	if client.Options().Addr != "localhost:6379" {
		test.Fatalf("unexpected client options %+v", client.Options())
	}
	_ = client.Close()
}
