package ui

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/frudas24/deskpilot/internal/eventloop"
	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

// client is the attached page.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub serves the UI websocket. One page drives the client at a time; a newer
// page replaces the older one.
type Hub struct {
	upgrader websocket.Upgrader
	loop     *eventloop.Loop
	handle   func(Message)

	mu     sync.Mutex
	client *client
}

var _ notify.Sink = (*Hub)(nil)

// NewHub returns a hub posting decoded messages to handle on loop.
func NewHub(loop *eventloop.Loop, handle func(Message)) *Hub {
	return &Hub{
		loop:   loop,
		handle: handle,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and processes UI messages.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.acceptClient(c)
	defer h.cleanupClient(c)
	log.Info().Str("conn", c.id).Str("remote", r.RemoteAddr).Msg("ui attached")

	go h.writeLoop(c)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Info().Str("conn", c.id).Msg("ui detached")
			return
		}
		h.loop.Post(func() { h.handle(msg) })
	}
}

// acceptClient installs c, evicting any previous page.
func (h *Hub) acceptClient(c *client) {
	h.mu.Lock()
	prev := h.client
	h.client = c
	h.mu.Unlock()
	if prev != nil {
		log.Info().Str("conn", prev.id).Msg("ui replaced")
		_ = prev.conn.Close()
	}
}

// cleanupClient clears the active client when its connection ends.
func (h *Hub) cleanupClient(c *client) {
	h.mu.Lock()
	if h.client == c {
		h.client = nil
	}
	h.mu.Unlock()
	close(c.done)
	_ = c.conn.Close()
}

// writeLoop writes queued events to c until it is closed.
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// Notify pushes ev to the attached page. Events are dropped when no page is
// attached or its buffer is full.
func (h *Hub) Notify(ev notify.Event) {
	h.mu.Lock()
	c := h.client
	h.mu.Unlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("encode ui event")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Debug().Str("t", ev.T).Msg("ui event dropped")
	}
}

// Attached reports whether a page is connected.
func (h *Hub) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client != nil
}
