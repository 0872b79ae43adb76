package queue

import (
	"context"
	"time"
)

// Publisher hands a message to the broker.  Publish returns once the broker
// has accepted the message; it never waits for subscribers.
type Publisher interface {
	Publish(ctx context.Context, subject string, body []byte) error
	Close() error
}

// Subscriber yields every message published on a subject at least once.
// The returned channel is closed after ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string) <-chan Delivery
	Close() error
}

// Bus is a broker connection usable for both directions.
type Bus interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
}

// Delivery is one message received from the broker.  Exactly one of Ack or
// Nack must be called.  Nack drops the message without requeueing it.
type Delivery struct {
	Subject   string
	MessageID string
	Body      []byte

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error
}

// NewDelivery wraps a broker message.  Nil callbacks are treated as no-ops.
func NewDelivery(subject, messageID string, body []byte, ack, nack func(ctx context.Context) error) Delivery {
	return Delivery{Subject: subject, MessageID: messageID, Body: body, ack: ack, nack: nack}
}

func (d Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

func (d Delivery) Nack(ctx context.Context) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}

// maxBackoff caps the reconnect delay of subscription loops.
const maxBackoff = 30 * time.Second

// sleepCtx waits for d or until ctx is done; it reports whether the full
// delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d *= 2; d > maxBackoff {
		return maxBackoff
	}
	return d
}
