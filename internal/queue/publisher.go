package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
)

// Publisher sends parking events to RabbitMQ.  Each Publish opens its own
// connection and declares the queue before publishing.
type Publisher struct {
	url     string
	timeout time.Duration
}

// NewPublisher returns a publisher for the broker at url.  An empty url
// returns nil, which callers treat as "events disabled".
func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, timeout: 3 * time.Second}
}

// Publish sends ev as a persistent JSON message on QueueName.  Errors are
// logged and returned so the caller can decide to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev ParkingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
