package queue

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the durable queue every event is published to.
const DefaultQueue = "flytau.events"

// Publisher publishes events to RabbitMQ.  It dials per publish so a broker
// outage never outlives the request that hit it.
type Publisher struct {
	URL   string
	Queue string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, Queue: DefaultQueue}
}

// Publish sends ev as a persistent JSON message through the default
// exchange.  Errors are logged and returned so the caller can choose to
// ignore them.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	logger := log.WithFields(log.Fields{"event_id": ev.ID, "type": ev.Type})

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logger.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		logger.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		logger.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	logger.Debug("event published")
	return nil
}
