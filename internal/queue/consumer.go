package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// NotificationStore persists notifications idempotently per booking and
// kind.
type NotificationStore interface {
	CreateIfAbsent(ctx context.Context, n *model.Notification) (created bool, err error)
}

// NotificationConsumer turns booking events into notification rows.  It
// runs one subscription loop per subject; each loop handles its deliveries
// one at a time in delivery order.
type NotificationConsumer struct {
	sub          Subscriber
	store        NotificationStore
	storeTimeout time.Duration
	log          *zap.Logger
}

func NewNotificationConsumer(sub Subscriber, store NotificationStore, storeTimeout time.Duration, log *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{sub: sub, store: store, storeTimeout: storeTimeout, log: log.Named("notification-consumer")}
}

// Run blocks until ctx is cancelled and every subscription loop has
// drained.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, subject := range Subjects {
		g.Go(func() error {
			c.consume(gctx, subject)
			return nil
		})
	}
	return g.Wait()
}

func (c *NotificationConsumer) consume(ctx context.Context, subject string) {
	c.log.Info("subscribed", zap.String("subject", subject))
	for d := range c.sub.Subscribe(ctx, subject) {
		c.process(ctx, d)
	}
	c.log.Info("subscription closed", zap.String("subject", subject))
}

// process acks a delivery once its notification exists and nacks it
// otherwise.  A nacked delivery is dropped; no retry queue exists.  A
// delivery already in hand is finished even if ctx is cancelled meanwhile,
// bounded by the store timeout, and a failure during shutdown leaves it
// unacknowledged so the broker redelivers it.
func (c *NotificationConsumer) process(ctx context.Context, d Delivery) {
	log := c.log.With(zap.String("subject", d.Subject), zap.String("message_id", d.MessageID))
	hctx := context.WithoutCancel(ctx)
	if err := c.Handle(hctx, d); err != nil {
		if ctx.Err() != nil {
			log.Warn("handle delivery failed during shutdown, leaving for redelivery", zap.Error(err))
			return
		}
		log.Error("handle delivery failed, dropping", zap.Error(err))
		if err := d.Nack(hctx); err != nil {
			log.Warn("nack failed", zap.Error(err))
		}
		return
	}
	if err := d.Ack(hctx); err != nil {
		log.Warn("ack failed", zap.Error(err))
	}
}

// Handle decodes one delivery and stores its notification.  A redelivered
// event finds the existing row and succeeds without writing.
func (c *NotificationConsumer) Handle(ctx context.Context, d Delivery) error {
	var ev BookingEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" {
		ev.Kind = d.Subject
	}
	if ev.Kind != d.Subject {
		return fmt.Errorf("event kind %q received on subject %q", ev.Kind, d.Subject)
	}
	if ev.BookingID == 0 {
		return errors.New("event without booking_id")
	}

	n := &model.Notification{
		BookingID: ev.BookingID,
		UserID:    ev.UserID,
		Kind:      ev.Kind,
		Message:   NotificationMessage(ev),
	}

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	created, err := c.store.CreateIfAbsent(sctx, n)
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if created {
		c.log.Info("notification created",
			zap.Uint64("notification_id", n.ID),
			zap.Uint64("booking_id", n.BookingID),
			zap.String("kind", n.Kind))
	} else {
		c.log.Debug("duplicate delivery ignored",
			zap.Uint64("booking_id", n.BookingID),
			zap.String("kind", n.Kind))
	}
	return nil
}

// NotificationMessage renders the text shown to the user for ev.
func NotificationMessage(ev BookingEvent) string {
	if ev.Kind == SubjectBookingCancelled {
		return fmt.Sprintf("Your booking for \"%s\" has been cancelled. %d seat(s) released.", ev.EventTitle, ev.Seats())
	}
	return fmt.Sprintf("Your booking for \"%s\" has been confirmed. %d seat(s) reserved.", ev.EventTitle, ev.Seats())
}
