package publisher

import (
	"context"
	"strconv"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const batchSize = 100

type EventStore interface {
	GetUnpublishedEvents(ctx context.Context, limit int) ([]*domain.OrderEvent, error)
	MarkEventPublished(ctx context.Context, id int64) error
}

// MessageWriter is the subset of *kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller drains the order_events table into Kafka. Events stay
// unpublished until the write succeeds, so delivery is at-least-once.
type OutboxPoller struct {
	tick   time.Duration
	store  EventStore
	writer MessageWriter
	log    zerolog.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(store EventStore, writer MessageWriter, tick time.Duration, log zerolog.Logger) *OutboxPoller {
	return &OutboxPoller{
		tick:   tick,
		store:  store,
		writer: writer,
		log:    log.With().Str("component", "outbox_poller").Logger(),
	}
}

// Run polls until ctx is cancelled, then closes the writer.
func (p *OutboxPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.log.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}()

	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.store.GetUnpublishedEvents(ctx, batchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch events")
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to publish event")
			continue
		}

		if err := p.store.MarkEventPublished(ctx, event.ID); err != nil {
			p.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event *domain.OrderEvent) error {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)), // order id keeps per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
