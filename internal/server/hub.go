package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/meshmap/pkg/observability"
)

// keepAlive is the interval of SSE comment lines that keep proxies from
// closing idle streams.
var keepAlive = 30 * time.Second

// client is one connected SSE stream.
type client struct {
	id     string
	events chan []byte
}

// Hub fans encoded frames out to SSE clients. Each client holds at most one
// pending message; a slow client skips to the newest frame.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
	logger  *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Broadcast sends msg, a complete SSE message, to every client and keeps it
// for clients connecting later.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(ctx context.Context) *client {
	c := &client{id: uuid.NewString(), events: make(chan []byte, 1)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.events <- h.last
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("SSE client connected", "client", c.id, "total", n)
	observability.HTTP().OnStream(ctx, n, true)
	return c
}

func (h *Hub) unregister(ctx context.Context, c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("SSE client disconnected", "client", c.id, "total", n)
	observability.HTTP().OnStream(ctx, n, false)
}

// ServeHTTP streams frames to one client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	ctx := r.Context()
	c := h.register(ctx)
	defer h.unregister(context.WithoutCancel(ctx), c)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.events:
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-ctx.Done():
			return
		}
	}
}
