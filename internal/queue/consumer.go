package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Consumer reads the events queue and appends one line per event to a log
// file.
type Consumer struct {
	URL     string
	Queue   string
	LogPath string
}

// NewConsumer returns a Consumer writing to logs/events.log.
func NewConsumer(url string) *Consumer {
	return &Consumer{URL: url, Queue: DefaultQueue, LogPath: filepath.Join("logs", "events.log")}
}

// Run connects to RabbitMQ and consumes until ctx is canceled.  It runs a
// reconnect loop with exponential backoff; a message that cannot be handled
// is rejected without requeue so the loop keeps going.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.WithError(err).Warnf("event-consumer: failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("event-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("event-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				log.WithError(err).Error("event-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteLine(f, ev)
}

// WriteLine renders ev as one human-friendly line.
func WriteLine(w io.Writer, ev Event) error {
	var line string
	switch ev.Type {
	case OrderCreated, OrderCanceled:
		seats := "[]"
		if len(ev.Seats) > 0 {
			seats = "[" + strings.Join(ev.Seats, ",") + "]"
		}
		line = fmt.Sprintf("[%s] %s | event_id=%s | order_id=%d | flight_id=%s | customer=%q (%s) | total=%.2f | status=%q | seats=%s\n",
			ev.OccurredAt.Format(time.RFC3339), ev.Type, ev.ID, ev.OrderID, ev.FlightID,
			ev.CustomerEmail, ev.CustomerType, ev.TotalPrice, ev.Status, seats)
	case FlightCanceled:
		line = fmt.Sprintf("[%s] %s | event_id=%s | flight_id=%s | orders=%d\n",
			ev.OccurredAt.Format(time.RFC3339), ev.Type, ev.ID, ev.FlightID, ev.OrdersCount)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	_, err := io.WriteString(w, line)
	return err
}
