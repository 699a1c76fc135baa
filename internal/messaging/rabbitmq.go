package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes and consumes JSON messages on durable queues
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
}

// NewRabbitMQClient dials url and declares queue
func NewRabbitMQClient(url, queue string) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &RabbitMQClient{conn: conn, channel: channel, queue: queue}
	if _, err := c.declareQueue(queue); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return c, nil
}

func (c *RabbitMQClient) declareQueue(name string) (amqp.Queue, error) {
	return c.channel.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Close closes the channel and connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishSessionClosed publishes ev as persistent JSON on the session queue
func (c *RabbitMQClient) PublishSessionClosed(ctx context.Context, ev SessionClosedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.channel.PublishWithContext(
		ctx,
		"",      // exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// ConsumeSessionClosed delivers decoded events to handler until ctx ends.
// Messages are acked after handler returns nil; undecodable messages are dropped.
func (c *RabbitMQClient) ConsumeSessionClosed(ctx context.Context, handler func(context.Context, SessionClosedEvent) error) error {
	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var ev SessionClosedEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				d.Nack(false, false)
				continue
			}
			if err := handler(ctx, ev); err != nil {
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}
