// Package service holds outbound integrations used by the handlers.
package service

import (
    "context" // deadlines and cancellation
    "time"    // timeouts and clocks

    "github.com/goccy/go-json"            // fast JSON encoding
    amqp "github.com/rabbitmq/amqp091-go" // RabbitMQ client

    "github.com/iliyamo/cms-auth/internal/logging" // structured logging
    "github.com/iliyamo/cms-auth/internal/queue"   // audit events
)

// Publisher sends auth audit events to RabbitMQ.  Each call dials, declares
// the durable queue and publishes one persistent message; login traffic is
// low enough that a pooled connection is not worth its reconnect handling.
type Publisher struct {
    URL   string
    Queue string
}

// NewPublisher returns a publisher for url targeting queue.AuthEventsQueue.
func NewPublisher(url string) *Publisher {
    return &Publisher{URL: url, Queue: queue.AuthEventsQueue}
}

// publishing builds the broker message for ev.
func publishing(ev queue.AuthEvent) (amqp.Publishing, error) {
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.OccurredAt,
        Type:         string(ev.Type),
        Body:         body,
    }, nil
}

// Publish sends ev.  Errors are logged and returned; callers treat audit
// delivery as best effort.
func (p *Publisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
    msg, err := publishing(ev)
    if err != nil {
        logging.Error().Err(err).Msg("rabbitmq: marshal event failed")
        return err
    }

    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
    if err != nil {
        logging.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        logging.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
        logging.Warn().Err(err).Msg("rabbitmq: queue declare failed")
        return err
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, msg); err != nil {
        logging.Warn().Err(err).Msg("rabbitmq: publish failed")
        return err
    }
    return nil
}

// Discard drops every event.  It stands in for Publisher when auditing is off.
type Discard struct{}

func (Discard) Publish(context.Context, queue.AuthEvent) error { return nil }
