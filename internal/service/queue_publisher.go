// Package queue_publisher publishes domain events to RabbitMQ.
// Publishing is always best-effort: errors are logged and returned so
// callers can ignore them without interrupting the request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/flatmate/flatmate-backend/internal/queue"
)

// PublishListingModerated publishes a ListingModeratedEvent to the
// listing.moderated queue.
func PublishListingModerated(ctx context.Context, ev q.ListingModeratedEvent) error {
	return publish(ctx, "listing.moderated", ev)
}

// PublishBookingCreated publishes a BookingCreatedEvent to the
// booking.created queue.
func PublishBookingCreated(ctx context.Context, ev q.BookingCreatedEvent) error {
	return publish(ctx, "booking.created", ev)
}

// publish dials the broker, declares the durable queue (idempotent)
// and publishes a persistent JSON message. A fresh connection per
// publish keeps the function robust against broker restarts at the
// cost of latency on a path that is explicitly fire-and-forget.
func publish(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
