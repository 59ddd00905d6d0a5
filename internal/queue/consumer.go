package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
)

// ReceiptLog appends receipt lines to a file, creating its directory on
// first use.
type ReceiptLog struct {
	Path string
}

// Append writes one line for ev.
func (l ReceiptLog) Append(ev ParkingEvent) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteReceipt(f, ev)
}

// WriteReceipt formats ev as a single human readable line.
func WriteReceipt(w io.Writer, ev ParkingEvent) error {
	var line string
	switch ev.Kind {
	case KindBooked:
		line = fmt.Sprintf("[%s] Spot booked | reservation_id=%d | user_id=%d | lot=%q | spot_id=%d | vehicle=%s | rate=%.2f/h\n",
			ev.OccurredAt.UTC().Format(time.RFC3339), ev.ReservationID, ev.UserID, ev.Location, ev.SpotID, ev.Vehicle, ev.PricePerHour)
	case KindReleased:
		dur := time.Duration(0)
		if ev.EndTime != nil {
			dur = ev.EndTime.Sub(ev.StartTime).Round(time.Second)
		}
		line = fmt.Sprintf("[%s] Spot released | reservation_id=%d | user_id=%d | lot=%q | vehicle=%s | duration=%s | total=%.2f Cash\n",
			ev.OccurredAt.UTC().Format(time.RFC3339), ev.ReservationID, ev.UserID, ev.Location, ev.Vehicle, dur, ev.Amount)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	_, err := io.WriteString(w, line)
	return err
}

// Consumer drains QueueName into a ReceiptLog.
type Consumer struct {
	URL string
	Log ReceiptLog
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.  It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			logging.Warn().Err(err).Dur("retry_in", backoff).Msg("receipts: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("receipts: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logging.Warn().Err(err).Msg("receipts: set QoS failed")
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logging.Info().Str("queue", QueueName).Str("file", c.Log.Path).Msg("receipts: consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				logging.Error().Err(err).Msg("receipts: handle message failed")
				_ = d.Nack(false, false) // do not requeue, avoids a poison loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev ParkingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.Log.Append(ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
