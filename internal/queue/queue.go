// Package queue carries outbox events over RabbitMQ and runs the
// notification worker that consumes them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	connectionName = "opsboard-services"
	prefetch       = 8
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	// amqp channels are not safe for concurrent publishes.
	pubMu sync.Mutex
}

func New(url string) (*Client, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  10 * time.Second,
		Properties: amqp.Table{"connection_name": connectionName},
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type Exchange struct {
	Name string
	Kind string
}

type Binding struct {
	Exchange string
	Key      string
}

type Queue struct {
	Name     string
	Args     amqp.Table
	Bindings []Binding
}

// Topology lists durable exchanges and queues. Exchanges are declared first
// so queue bindings can refer to them.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
}

func (c *Client) Declare(t Topology) error {
	for _, ex := range t.Exchanges {
		kind := ex.Kind
		if kind == "" {
			kind = amqp.ExchangeTopic
		}
		if err := c.ch.ExchangeDeclare(ex.Name, kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}
	for _, q := range t.Queues {
		if _, err := c.ch.QueueDeclare(q.Name, true, false, false, false, q.Args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}
		for _, b := range q.Bindings {
			if err := c.ch.QueueBind(q.Name, b.Key, b.Exchange, false, nil); err != nil {
				return fmt.Errorf("bind %s to %s (%s): %w", q.Name, b.Exchange, b.Key, err)
			}
		}
	}
	return nil
}

// PublishJSON sends a persistent JSON message. messageID may be empty.
func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey, messageID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Body:         body,
		Timestamp:    time.Now(),
	})
}

func (c *Client) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}
