package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

type client struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub broadcasts JSON messages to every connected websocket client.
type Hub struct {
	log      *logger.Logger
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

// New creates a hub accepting connections from allowedOrigins.
// "*" allows every origin.
func New(log *logger.Logger, rec *metrics.Recorder, allowedOrigins []string) *Hub {
	h := &Hub{
		log:     log,
		metrics: rec,
		clients: make(map[*client]bool),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWS upgrades the request, sends greeting when not nil and keeps the
// client registered until its connection breaks.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, greeting any) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}
	c := &client{conn: conn}
	h.add(c)

	if greeting != nil {
		payload, err := json.Marshal(greeting)
		if err == nil {
			err = c.write(payload)
		}
		if err != nil {
			h.remove(c)
			return fmt.Errorf("failed to greet websocket client: %w", err)
		}
	}

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(c)
			return nil
		}
	}
}

// Broadcast sends v to every client. Clients that fail to receive it are dropped.
func (h *Hub) Broadcast(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast: %w", err)
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			h.log.Debug("Dropping websocket client", logger.Err(err))
			h.remove(c)
		}
	}
	return nil
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
	h.metrics.SetWebSocketClients(0)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetWebSocketClients(n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.metrics.SetWebSocketClients(n)
	}
	c.conn.Close()
}
