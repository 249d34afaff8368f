package sse

import (
	"path"
	"sync"
	"sync/atomic"

	"github.com/kbukum/audiopen/logger"
)

// Event names written on the stream.
const (
	EventConnected = "connected"
	EventMessage   = "message"
)

// ClientBuffer is the number of undelivered messages a client may hold.
const ClientBuffer = 256

// Broadcaster publishes data to the subscribers of topic.
type Broadcaster interface {
	Broadcast(topic string, data []byte) bool
}

// Client is one connected subscriber.
type Client struct {
	id     string
	filter string
	events chan []byte
}

// NewClient creates a client receiving topics that match filter. An empty
// filter matches every topic.
func NewClient(id, filter string) *Client {
	if filter == "" {
		filter = "*"
	}
	return &Client{id: id, filter: filter, events: make(chan []byte, ClientBuffer)}
}

// ID returns the client's identifier.
func (c *Client) ID() string { return c.id }

// Filter returns the client's topic pattern.
func (c *Client) Filter() string { return c.filter }

// Events returns the channel messages are delivered on.
func (c *Client) Events() <-chan []byte { return c.events }

// Matches reports whether topic is delivered to the client.
func (c *Client) Matches(topic string) bool {
	ok, err := path.Match(c.filter, topic)
	return err == nil && ok
}

// Send queues data and reports false when the client's buffer is full.
func (c *Client) Send(data []byte) bool {
	select {
	case c.events <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() { close(c.events) }

// ValidFilter reports whether filter is a well-formed pattern.
func ValidFilter(filter string) bool {
	_, err := path.Match(filter, "")
	return err == nil
}

type message struct {
	topic string
	data  []byte
}

// Hub routes broadcasts to clients from a single goroutine started by Run.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	dropped    atomic.Int64
	log        *logger.Logger
}

// NewHub creates a hub. Nothing is delivered until Run is called.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, ClientBuffer),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run delivers messages until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "filter", c.filter, "clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				c.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "clients", n))

		case m := <-h.broadcast:
			h.deliver(m)
		}
	}
}

// Stop closes every client and makes Run return. It is safe to call more
// than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

// Register adds c and reports false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues data for the clients whose filter matches topic. It
// reports false when the message was dropped because the hub is stopped
// or its queue is full.
func (h *Hub) Broadcast(topic string, data []byte) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- message{topic: topic, data: data}:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded for a full queue or a
// slow client.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) deliver(m message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.Matches(m.topic) {
			continue
		}
		if !c.Send(m.data) {
			h.dropped.Add(1)
			h.log.Warn("client buffer full, dropping message", logger.Fields("client_id", c.id, "topic", m.topic))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

var _ Broadcaster = (*Hub)(nil)
