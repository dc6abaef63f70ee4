package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "realtime-secret"

type fakeFeed struct {
	listening chan func(string)
}

func (f *fakeFeed) Listen(ctx context.Context, fn func(string)) error {
	f.listening <- fn
	<-ctx.Done()
	return ctx.Err()
}

func TestParseCollections(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "empty means all", raw: "", want: domain.Collections},
		{name: "only separators", raw: " , ,", want: domain.Collections},
		{name: "sorted and deduped", raw: "sales, orders,sales", want: []string{"orders", "sales"}},
		{name: "unknown", raw: "orders,payroll", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCollections(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsCode(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBroadcastFiltersAndNeverBlocks(t *testing.T) {
	h := NewHub(&fakeFeed{}, nil, nil, testSecret, time.Second)
	orders := &client{collections: map[string]struct{}{"orders": {}}, send: make(chan Message, 1)}
	sales := &client{collections: map[string]struct{}{"sales": {}}, send: make(chan Message, 1)}
	h.register(orders)
	h.register(sales)

	h.Broadcast("orders")
	h.Broadcast("orders")

	require.Len(t, orders.send, 1)
	msg := <-orders.send
	assert.Equal(t, MessageChanged, msg.Type)
	assert.Equal(t, "orders", msg.Collection)
	assert.NotNil(t, msg.UpdatedAt)
	assert.Empty(t, sales.send)

	h.unregister(orders)
	h.unregister(orders)
	assert.Equal(t, 1, h.ClientCount())
}

func dial(t *testing.T, srv *httptest.Server, query url.Values) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/changes?" + query.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeChangesPushesSubscribedCollections(t *testing.T) {
	feed := &fakeFeed{listening: make(chan func(string), 1)}
	m := metrics.New()
	h := NewHub(feed, nil, m, testSecret, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()
	notify := <-feed.listening

	srv := httptest.NewServer(http.HandlerFunc(h.ServeChanges))
	defer srv.Close()

	token, err := auth.IssueAccessToken(auth.Identity{Subject: "u1", Role: auth.RoleManager}, testSecret, time.Minute)
	require.NoError(t, err)
	conn := dial(t, srv, url.Values{"token": {token}, "collections": {"orders,sales"}})

	ready := readMessage(t, conn)
	assert.Equal(t, MessageReady, ready.Type)
	assert.Equal(t, []string{"orders", "sales"}, ready.Collections)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RealtimeClients))

	notify("expenses")
	notify("sales")

	msg := readMessage(t, conn)
	assert.Equal(t, MessageChanged, msg.Type)
	assert.Equal(t, "sales", msg.Collection)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RealtimeClients))
}

func TestServeChangesRejectsBadToken(t *testing.T) {
	h := NewHub(&fakeFeed{}, nil, nil, testSecret, time.Second)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeChanges))
	defer srv.Close()

	conn := dial(t, srv, url.Values{"token": {"not-a-jwt"}})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "unauthorized", msg.Message)
}

func TestServeChangesRejectsUnknownCollection(t *testing.T) {
	h := NewHub(&fakeFeed{}, nil, nil, testSecret, time.Second)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeChanges))
	defer srv.Close()

	token, err := auth.IssueAccessToken(auth.Identity{Subject: "u1"}, testSecret, time.Minute)
	require.NoError(t, err)
	conn := dial(t, srv, url.Values{"token": {"Bearer " + token}, "collections": {"payroll"}})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "Unknown collection", msg.Message)
}
