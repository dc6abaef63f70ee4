package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange     = "opsboard.events"
	NotificationsQueue = "opsboard.notifications"
	DeadLetterExchange = "opsboard.notifications.dlx"
	DeadLetterQueue    = "opsboard.notifications.dlq"
	DeadLetterRK       = "dead"

	MaxRetries = 5
	RetryDelay = 5 * time.Second
)

// NotificationBindings uses '#' so multi-segment keys such as
// order.status.updated match.
var NotificationBindings = []string{"booking.#", "order.#"}

func NotificationsTopology() Topology {
	bindings := make([]Binding, 0, len(NotificationBindings))
	for _, key := range NotificationBindings {
		bindings = append(bindings, Binding{Exchange: EventsExchange, Key: key})
	}
	return Topology{
		Exchanges: []Exchange{
			{Name: EventsExchange, Kind: amqp.ExchangeTopic},
			{Name: DeadLetterExchange, Kind: amqp.ExchangeDirect},
		},
		Queues: []Queue{
			{
				Name:     DeadLetterQueue,
				Bindings: []Binding{{Exchange: DeadLetterExchange, Key: DeadLetterRK}},
			},
			{
				Name: NotificationsQueue,
				Args: amqp.Table{
					"x-dead-letter-exchange":    DeadLetterExchange,
					"x-dead-letter-routing-key": DeadLetterRK,
				},
				Bindings: bindings,
			},
		},
	}
}

func EnsureTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	return qc.Declare(NotificationsTopology())
}
