package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/mailer"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{name: "nil headers", headers: nil, want: 0},
		{name: "missing", headers: amqp.Table{}, want: 0},
		{name: "int32", headers: amqp.Table{retryHeader: int32(3)}, want: 3},
		{name: "int64", headers: amqp.Table{retryHeader: int64(4)}, want: 4},
		{name: "int", headers: amqp.Table{retryHeader: 2}, want: 2},
		{name: "unexpected type", headers: amqp.Table{retryHeader: "5"}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, getRetryCount(tc.headers))
		})
	}
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, msg)
	return "id", nil
}

func eventBody(t *testing.T, evtType string, payload map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(Event{ID: "e1", Type: evtType, Payload: payload, CreatedAt: time.Now()})
	require.NoError(t, err)
	return body
}

func TestNotifierBookingConfirmation(t *testing.T) {
	m := &recordingMailer{}
	n := NewNotifier(m, nil)

	body := eventBody(t, domain.EventBookingCreated, map[string]any{
		"guestEmail":   "guest@example.com",
		"propertyName": "Lake House",
		"nights":       3,
	})
	require.NoError(t, n.Process(context.Background(), body))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "guest@example.com", m.sent[0].To)
	assert.Equal(t, domain.TemplateBookingConfirmation, m.sent[0].Template)
	assert.Equal(t, "Your booking at Lake House", m.sent[0].Subject)
}

func TestNotifierSkipsWithoutEmail(t *testing.T) {
	m := &recordingMailer{}
	n := NewNotifier(m, nil)
	require.NoError(t, n.Process(context.Background(), eventBody(t, domain.EventBookingCreated, map[string]any{"guestEmail": ""})))
	require.NoError(t, n.Process(context.Background(), eventBody(t, domain.EventOrderCreated, nil)))
	require.NoError(t, n.Process(context.Background(), []byte("not json")))
	assert.Empty(t, m.sent)
}

func TestNotifierRetriesUpstreamFailure(t *testing.T) {
	n := NewNotifier(&recordingMailer{err: domain.UpstreamFailure("down", errors.New("503"))}, nil)
	err := n.Process(context.Background(), eventBody(t, domain.EventBookingCreated, map[string]any{"guestEmail": "g@example.com"}))
	assert.Error(t, err)

	n = NewNotifier(&recordingMailer{err: domain.ValidationError("bad", nil)}, nil)
	err = n.Process(context.Background(), eventBody(t, domain.EventBookingCreated, map[string]any{"guestEmail": "g@example.com"}))
	assert.NoError(t, err)
}

func TestEventFromOutbox(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	evt := EventFromOutbox(domain.OutboxEvent{ID: "x", Type: "order.created", Payload: map[string]any{"a": 1}, CreatedAt: created, Attempts: 2})
	assert.Equal(t, Event{ID: "x", Type: "order.created", Payload: map[string]any{"a": 1}, CreatedAt: created}, evt)
}

func TestRetryPublishing(t *testing.T) {
	msg := amqp.Delivery{
		ContentType: "application/json",
		MessageId:   "evt-1",
		Body:        []byte(`{"id":"evt-1"}`),
		Headers:     amqp.Table{"trace": "abc", retryHeader: int32(2)},
	}

	retry, ok := retryPublishing(msg, MaxRetries)
	require.True(t, ok)
	assert.Equal(t, int32(3), retry.Headers[retryHeader])
	assert.Equal(t, "abc", retry.Headers["trace"])
	assert.Equal(t, "evt-1", retry.MessageId)
	assert.Equal(t, amqp.Persistent, retry.DeliveryMode)
	assert.Equal(t, int32(2), msg.Headers[retryHeader])

	msg.Headers[retryHeader] = int32(MaxRetries)
	_, ok = retryPublishing(msg, MaxRetries)
	assert.False(t, ok)
}

func TestNotificationsTopology(t *testing.T) {
	topo := NotificationsTopology()
	require.Len(t, topo.Exchanges, 2)
	assert.Equal(t, Exchange{Name: EventsExchange, Kind: amqp.ExchangeTopic}, topo.Exchanges[0])

	require.Len(t, topo.Queues, 2)
	assert.Equal(t, DeadLetterQueue, topo.Queues[0].Name)
	notifications := topo.Queues[1]
	assert.Equal(t, NotificationsQueue, notifications.Name)
	assert.Equal(t, DeadLetterExchange, notifications.Args["x-dead-letter-exchange"])
	assert.ElementsMatch(t, []Binding{
		{Exchange: EventsExchange, Key: "booking.#"},
		{Exchange: EventsExchange, Key: "order.#"},
	}, notifications.Bindings)
}
