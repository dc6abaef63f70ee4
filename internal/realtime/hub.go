// Package realtime pushes collection change notifications to websocket
// clients.
package realtime

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MessageChanged = "collection.changed"
	MessageReady   = "ready"
	MessageError   = "error"

	writeWait  = 10 * time.Second
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Message struct {
	Type        string     `json:"type"`
	Collection  string     `json:"collection,omitempty"`
	Collections []string   `json:"collections,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Message     string     `json:"message,omitempty"`
}

type client struct {
	conn        *websocket.Conn
	collections map[string]struct{}
	send        chan Message
}

func (c *client) wants(collection string) bool {
	_, ok := c.collections[collection]
	return ok
}

type Hub struct {
	feed      store.ChangeFeed
	logger    *zap.Logger
	metrics   *metrics.Metrics
	jwtSecret string
	heartbeat time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(feed store.ChangeFeed, logger *zap.Logger, m *metrics.Metrics, jwtSecret string, heartbeat time.Duration) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		feed:      feed,
		logger:    logger,
		metrics:   m,
		jwtSecret: jwtSecret,
		heartbeat: heartbeat,
		now:       time.Now,
		clients:   make(map[*client]struct{}),
	}
}

// Run relays committed changes from the store until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	err := h.feed.Listen(ctx, h.Broadcast)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Broadcast queues a change notification for every interested client. It
// never blocks: a client whose buffer is full already has a pending
// notification to refetch on.
func (h *Hub) Broadcast(collection string) {
	now := h.now().UTC()
	msg := Message{Type: MessageChanged, Collection: collection, UpdatedAt: &now}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(collection) {
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientConnected()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		h.metrics.ClientDisconnected()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ParseCollections reads a comma separated subscription list. An empty list
// subscribes to every collection.
func ParseCollections(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]string(nil), domain.Collections...), nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if !domain.IsCollection(name) {
			return nil, domain.ValidationError("Unknown collection", map[string]any{"collection": name})
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return append([]string(nil), domain.Collections...), nil
	}
	sort.Strings(out)
	return out, nil
}

func tokenFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if raw == "" {
		return auth.ParseBearerToken(r.Header.Get("Authorization"))
	}
	if bearer := auth.ParseBearerToken(raw); bearer != "" {
		return bearer
	}
	return raw
}

// ServeChanges handles GET /ws/changes?token=...&collections=a,b.
func (h *Hub) ServeChanges(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	claims, err := auth.VerifyAccessToken(tokenFromRequest(r), h.jwtSecret)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(Message{Type: MessageError, Message: "unauthorized"})
		return
	}
	collections, err := ParseCollections(r.URL.Query().Get("collections"))
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(Message{Type: MessageError, Message: err.Error()})
		return
	}

	c := &client{
		conn:        conn,
		collections: make(map[string]struct{}, len(collections)),
		send:        make(chan Message, sendBuffer),
	}
	for _, name := range collections {
		c.collections[name] = struct{}{}
	}
	h.register(c)
	defer h.unregister(c)

	h.logger.Debug("realtime client connected",
		zap.String("subject", claims.Subject),
		zap.Strings("collections", collections),
	)

	readyAt := h.now().UTC()
	c.send <- Message{Type: MessageReady, Collections: collections, UpdatedAt: &readyAt}

	pongWait := h.heartbeat * 2
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	h.writeLoop(r.Context(), c, clientClosed)
}

func (h *Hub) writeLoop(ctx context.Context, c *client, closed <-chan struct{}) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
