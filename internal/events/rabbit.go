package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shopcarts/internal/models"
	"shopcarts/pkg/lib/logger/sl"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 3 * time.Second

func Dial(url string) (*amqp.Connection, error) {
	const op = "events.Dial"

	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}

// Publisher sends checkout events to a durable queue through the default exchange.
type Publisher struct {
	log   *slog.Logger
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewPublisher(log *slog.Logger, conn *amqp.Connection, queue string) (*Publisher, error) {
	const op = "events.NewPublisher"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: open channel: %w", op, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("%s: declare %s: %w", op, queue, err)
	}

	return &Publisher{
		log:   log,
		queue: queue,
		ch:    ch,
	}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCheckedOut(ctx context.Context, shopcartId int, items []models.ShopcartItem) error {
	const op = "events.Publisher.PublishCheckedOut"
	log := p.log.With("op", op, "shopcart_id", shopcartId)

	ev := NewShopcartCheckedOut(shopcartId, items, time.Now())

	body, err := json.Marshal(ev)
	if err != nil {
		log.Error("Failed to marshal event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.publishJSON(ctx, ev.EventID, body); err != nil {
		log.Error("Failed to publish event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("Event published", "event_id", ev.EventID)
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, messageId string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		pubCtx,
		"",      // default exchange
		p.queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageId,
			Timestamp:    time.Now().UTC(),
			AppId:        Producer,
			Body:         body,
		},
	)
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCheckedOut(context.Context, int, []models.ShopcartItem) error {
	return nil
}
