package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/config"
)

const messageIDHeader = "message-id"

// Kafka publishes each subject to the topic of the same name.  Subscribers
// join the consumer group named by the queue prefix and commit offsets on
// Ack or Nack, so a nacked message is dropped like on RabbitMQ.
type Kafka struct {
	cfg    config.BusConfig
	log    *zap.Logger
	writer *kafka.Writer
}

// DialKafka checks that the first broker is reachable and returns a bus
// whose writer connects lazily.
func DialKafka(ctx context.Context, cfg config.BusConfig, log *zap.Logger) (*Kafka, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	k := &Kafka{
		cfg: cfg,
		log: log.Named("kafka"),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
	if err := k.Ping(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

// Ping dials the first configured broker.
func (k *Kafka) Ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.cfg.KafkaBrokers[0])
	if err != nil {
		return fmt.Errorf("kafka dial %s: %w", k.cfg.KafkaBrokers[0], err)
	}
	return conn.Close()
}

// Publish writes body to the subject topic and returns once the partition
// leader has acknowledged it.
func (k *Kafka) Publish(ctx context.Context, subject string, body []byte) error {
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic:   subject,
		Value:   body,
		Time:    time.Now().UTC(),
		Headers: []kafka.Header{{Key: messageIDHeader, Value: []byte(uuid.NewString())}},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe reads subject as a member of the consumer group.  Offsets are
// committed only after the handler acknowledges, so uncommitted messages are
// redelivered after a restart.
func (k *Kafka) Subscribe(ctx context.Context, subject string) <-chan Delivery {
	out := make(chan Delivery)
	log := k.log.With(zap.String("subject", subject))
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.cfg.KafkaBrokers,
		GroupID:     k.cfg.QueuePrefix,
		Topic:       subject,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	go func() {
		defer close(out)
		defer func() { _ = reader.Close() }()
		backoff := time.Second
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("fetch failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
				if !sleepCtx(ctx, backoff) {
					return
				}
				backoff = nextBackoff(backoff)
				continue
			}
			backoff = time.Second

			commit := func(c context.Context) error { return reader.CommitMessages(c, m) }
			d := NewDelivery(subject, headerValue(m.Headers, messageIDHeader), m.Value, commit, commit)
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (k *Kafka) Close() error { return k.writer.Close() }

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
