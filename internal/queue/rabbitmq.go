package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/config"
)

// RabbitMQ publishes to a durable topic exchange keyed by subject.  Every
// subscriber binds its own durable queue named "<prefix>.<subject>" so
// messages published while the consumer is down wait in the broker.
type RabbitMQ struct {
	cfg config.BusConfig
	log *zap.Logger

	mu   sync.Mutex // guards the publishing connection and channel
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialRabbitMQ connects the publishing channel and declares the exchange.
func DialRabbitMQ(cfg config.BusConfig, log *zap.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{cfg: cfg, log: log.Named("rabbitmq")}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.connectLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

// QueueName returns the durable queue a subscriber consumes subject from.
func QueueName(prefix, subject string) string { return prefix + "." + subject }

func (r *RabbitMQ) connectLocked() error {
	if r.conn != nil && !r.conn.IsClosed() {
		_ = r.conn.Close()
	}
	conn, err := amqp.Dial(r.cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel open: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq confirm mode: %w", err)
	}
	if err := r.declareExchange(ch); err != nil {
		_ = conn.Close()
		return err
	}
	r.conn, r.ch = conn, ch
	return nil
}

func (r *RabbitMQ) declareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(r.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq exchange declare %s: %w", r.cfg.Exchange, err)
	}
	return nil
}

// Publish sends body as a persistent message and waits for the broker's
// publisher confirm.  A closed channel is reopened once before publishing.
func (r *RabbitMQ) Publish(ctx context.Context, subject string, body []byte) error {
	r.mu.Lock()
	if r.ch == nil || r.ch.IsClosed() {
		if err := r.connectLocked(); err != nil {
			r.mu.Unlock()
			return err
		}
	}
	conf, err := r.ch.PublishWithDeferredConfirmWithContext(ctx, r.cfg.Exchange, subject, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", subject, err)
	}
	if conf == nil {
		return nil
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq confirm %s: %w", subject, err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq publish %s: nacked by broker", subject)
	}
	return nil
}

// Subscribe consumes subject on a dedicated connection.  Connection loss is
// retried with exponential backoff until ctx is cancelled; unacknowledged
// messages are redelivered by the broker after a reconnect.
func (r *RabbitMQ) Subscribe(ctx context.Context, subject string) <-chan Delivery {
	out := make(chan Delivery)
	log := r.log.With(zap.String("subject", subject))
	go func() {
		defer close(out)
		backoff := time.Second
		for ctx.Err() == nil {
			conn, err := amqp.Dial(r.cfg.RabbitMQURL)
			if err != nil {
				log.Warn("dial failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
				if !sleepCtx(ctx, backoff) {
					return
				}
				backoff = nextBackoff(backoff)
				continue
			}
			backoff = time.Second

			err = r.consume(ctx, conn, subject, out)
			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}
			log.Warn("consume loop ended, reconnecting", zap.Error(err))
			if !sleepCtx(ctx, 2*time.Second) {
				return
			}
		}
	}()
	return out
}

func (r *RabbitMQ) consume(ctx context.Context, conn *amqp.Connection, subject string, out chan<- Delivery) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(r.cfg.Prefetch, 0, false); err != nil {
		r.log.Warn("set QoS failed", zap.Error(err))
	}
	if err := r.declareExchange(ch); err != nil {
		return err
	}
	queue := QueueName(r.cfg.QueuePrefix, subject)
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, subject, r.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			dl := NewDelivery(subject, d.MessageId, d.Body,
				func(context.Context) error { return d.Ack(false) },
				// dropped, not requeued
				func(context.Context) error { return d.Nack(false, false) })
			select {
			case out <- dl:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Ping reports whether the publishing connection is open.
func (r *RabbitMQ) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil || r.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}
