package live

import (
	"context"

	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/metrics"
)

// Hub tracks the connected clients of every group. All of its state is owned
// by the Run goroutine.
type Hub struct {
	groups     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        log.Named("live.hub"),
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.groups {
				for c := range clients {
					h.remove(c)
				}
			}
			return
		case c := <-h.register:
			clients, ok := h.groups[c.group]
			if !ok {
				clients = make(map[*Client]struct{})
				h.groups[c.group] = clients
			}
			clients[c] = struct{}{}
			metrics.LiveConnections.Inc()
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			for c := range h.groups[msg.group] {
				select {
				case c.send <- msg.payload:
				default:
					h.log.Warn("Dropping slow client", zap.String("group", msg.group))
					metrics.LiveDroppedTotal.Inc()
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.groups[c.group]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.groups, c.group)
	}
	close(c.send)
	metrics.LiveConnections.Dec()
}

// Broadcast queues payload for every client of group. It is the Handler
// passed to Broker.Subscribe.
func (h *Hub) Broadcast(group string, payload []byte) {
	select {
	case h.broadcast <- message{group: group, payload: payload}:
	case <-h.done:
	}
}

// Register returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
