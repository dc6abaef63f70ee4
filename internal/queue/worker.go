package queue

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	retryHeader = "x-retry-count"
	consumerTag = "opsboard-notifier"
)

type HandlerFunc func(ctx context.Context, body []byte) error

// ConsumeWithRetry feeds deliveries to handler until ctx is cancelled. A
// failed delivery is republished with an incremented retry header; after
// maxRetries it is rejected and lands in the queue's dead-letter exchange.
func (c *Client) ConsumeWithRetry(ctx context.Context, queue string, handler HandlerFunc, maxRetries int, retryDelay time.Duration) error {
	msgs, err := c.ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer c.ch.Cancel(consumerTag, false)

	for {
		var msg amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok = <-msgs:
			if !ok {
				return errors.New("consumer closed")
			}
		}

		if err := handler(ctx, msg.Body); err == nil {
			_ = msg.Ack(false)
			continue
		}

		retry, ok := retryPublishing(msg, maxRetries)
		if !ok {
			_ = msg.Nack(false, false)
			continue
		}

		select {
		case <-ctx.Done():
			_ = msg.Nack(false, true)
			return ctx.Err()
		case <-time.After(retryDelay):
		}
		if err := c.publish(ctx, "", queue, retry); err != nil {
			_ = msg.Nack(false, true)
			continue
		}
		_ = msg.Ack(false)
	}
}

// retryPublishing copies a failed delivery with its retry count bumped. It
// reports false once the delivery has used up maxRetries.
func retryPublishing(msg amqp.Delivery, maxRetries int) (amqp.Publishing, bool) {
	count := getRetryCount(msg.Headers)
	if count >= maxRetries {
		return amqp.Publishing{}, false
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(count + 1)

	return amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageId,
		Body:         msg.Body,
		Headers:      headers,
		Timestamp:    time.Now(),
	}, true
}

func getRetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
