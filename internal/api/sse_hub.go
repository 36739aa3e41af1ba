// Package api holds the HTTP plumbing shared by the live preview server.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"physlab/domain/plot"
	"physlab/internal"
)

// DefaultPingInterval is how often an idle stream sends a keepalive
const DefaultPingInterval = 30 * time.Second

// FrameEvent announces a newly rendered live frame
type FrameEvent struct {
	Seq        int       `json:"seq"`
	Hash       string    `json:"hash"`
	Format     string    `json:"format"`
	URL        string    `json:"url"`
	RenderedAt time.Time `json:"rendered_at"`
}

// NewFrameEvent describes frame as served at url
func NewFrameEvent(frame plot.Frame, url string) FrameEvent {
	return FrameEvent{
		Seq:        frame.Seq,
		Hash:       frame.Hash.String(),
		Format:     string(frame.Format),
		URL:        url,
		RenderedAt: frame.RenderedAt,
	}
}

// SSEHub fans frame events out to every connected Server-Sent Events client
type SSEHub struct {
	clients      map[chan FrameEvent]bool
	clientsMu    sync.RWMutex
	register     chan chan FrameEvent
	unregister   chan chan FrameEvent
	broadcast    chan FrameEvent
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	logger       *internal.Logger
}

// NewSSEHub creates a hub and starts its dispatch loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:      make(map[chan FrameEvent]bool),
		register:     make(chan chan FrameEvent, 10),
		unregister:   make(chan chan FrameEvent, 10),
		broadcast:    make(chan FrameEvent, 100),
		done:         make(chan struct{}),
		pingInterval: DefaultPingInterval,
		logger:       logger,
	}

	go hub.run()
	return hub
}

// SetPingInterval changes the keepalive period for new streams
func (h *SSEHub) SetPingInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	h.clientsMu.Lock()
	h.pingInterval = d
	h.clientsMu.Unlock()
}

func (h *SSEHub) pingEvery() time.Duration {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return h.pingInterval
}

func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			h.clientsMu.Lock()
			for ch := range h.clients {
				delete(h.clients, ch)
				close(ch)
			}
			h.clientsMu.Unlock()
			return

		case ch := <-h.register:
			h.clientsMu.Lock()
			h.clients[ch] = true
			h.logger.Debug("[SSE] Client registered (total clients: %d)", len(h.clients))
			h.clientsMu.Unlock()

		case ch := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[ch] {
				delete(h.clients, ch)
				close(ch)
				h.logger.Debug("[SSE] Client unregistered (remaining clients: %d)", len(h.clients))
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for ch := range h.clients {
				select {
				case ch <- event:
				default:
					// a slow client misses this frame and picks up the next one
					h.logger.Debug("[SSE] Client channel full, skipping frame %d", event.Seq)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Broadcast queues an event for every client
func (h *SSEHub) Broadcast(event FrameEvent) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		h.logger.Warn("[SSE] Broadcast channel full, dropping frame %d", event.Seq)
	}
}

// Close disconnects every client and stops the dispatch loop
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams frame events until the client goes away
func (h *SSEHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	clientChan := make(chan FrameEvent, 10)
	select {
	case h.register <- clientChan:
	case <-h.done:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server shutting down"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- clientChan:
		case <-h.done:
		}
	}()

	// an initial comment flushes the headers so clients see the stream open
	_, _ = io.WriteString(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.pingEvery())
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("frame", string(eventJSON))
			return true

		case <-ticker.C:
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
