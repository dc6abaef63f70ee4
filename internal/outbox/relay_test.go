package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/queue"
	"opsboard-services/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.OutboxEvent
	failOn    map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, evt domain.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[evt.Type] {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, evt)
	return nil
}

func seed(t *testing.T, mem *store.Memory, types ...string) {
	t.Helper()
	err := mem.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for i, typ := range types {
			if err := tx.EnqueueEvent(ctx, domain.OutboxEvent{
				ID:        typ + "-" + string(rune('a'+i)),
				Type:      typ,
				Payload:   map[string]any{"n": i},
				CreatedAt: time.Now(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestDrainPublishesAndMarks(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, domain.EventOrderCreated, domain.EventBookingCreated)
	pub := &fakePublisher{}
	m := metrics.New()
	relay := NewRelay(mem, pub, nil, m, time.Second, 10)

	n, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, pub.published, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxEvents.WithLabelValues("published")))

	pending, err := mem.PendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainKeepsFailedEventsPending(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, domain.EventOrderCreated, domain.EventBookingCreated)
	pub := &fakePublisher{failOn: map[string]bool{domain.EventBookingCreated: true}}
	relay := NewRelay(mem, pub, nil, nil, time.Second, 10)

	n, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := mem.PendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.EventBookingCreated, pending[0].Type)
	assert.Equal(t, int32(1), pending[0].Attempts)

	pub.failOn = nil
	n, err = relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, domain.EventSaleCreated)
	pub := &fakePublisher{}
	relay := NewRelay(mem, pub, nil, nil, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.published) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestLocalPublisherEncodesEnvelope(t *testing.T) {
	var got queue.Event
	pub := LocalPublisher{Handler: func(_ context.Context, body []byte) error {
		return json.Unmarshal(body, &got)
	}}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := pub.Publish(context.Background(), domain.OutboxEvent{ID: "e1", Type: domain.EventOrderCreated, Payload: map[string]any{"orderId": "o1"}, CreatedAt: created})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, domain.EventOrderCreated, got.Type)
	assert.Equal(t, "o1", got.Payload["orderId"])
	assert.True(t, created.Equal(got.CreatedAt))
}
