package ws

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
)

// MessageRouter validates, persists, and fans out a message. Implemented by
// service.MessageService.
type MessageRouter interface {
	Route(ctx context.Context, senderID, recipientID uuid.UUID, body, nonce string, originConn uuid.UUID) (*domain.Message, error)
}

// PresenceCoordinator reacts to a user's first connection arriving and last
// connection going away. Implemented by service.PresenceService.
type PresenceCoordinator interface {
	HandleOnline(ctx context.Context, userID uuid.UUID)
	HandleOffline(ctx context.Context, userID uuid.UUID)
}

// Hub ties the connection registry to the presence coordinator and hands
// inbound client events to the message router.
type Hub struct {
	registry *Registry
	presence PresenceCoordinator
	router   MessageRouter

	mu     sync.Mutex
	queues map[uuid.UUID]*presenceQueue
}

// presenceQueue holds a user's pending transitions (true = online) in
// arrival order. One drainer per user applies them strictly in that order.
type presenceQueue struct {
	jobs    []bool
	running bool
}

func NewHub(registry *Registry, presence PresenceCoordinator, router MessageRouter) *Hub {
	return &Hub{
		registry: registry,
		presence: presence,
		router:   router,
		queues:   make(map[uuid.UUID]*presenceQueue),
	}
}

// Connect registers the client. The presence transition runs off the
// connection path so the handshake never waits on the durable store.
func (h *Hub) Connect(c *Client) {
	cameOnline := h.registry.Register(c.userID, c)
	log.Printf("ws hub: %s connected (conn %s)", c.username, c.id)

	if cameOnline {
		h.queueTransition(c.userID, true)
	}
}

// Disconnect unregisters the client. Safe to call more than once per client;
// the registry guarantees a single offline transition.
func (h *Hub) Disconnect(c *Client) {
	wentOffline := h.registry.Unregister(c.userID, c)
	log.Printf("ws hub: %s disconnected (conn %s)", c.username, c.id)

	if wentOffline {
		h.queueTransition(c.userID, false)
	}
}

// queueTransition hands the transition to the user's drainer. Transitions
// for one user never run concurrently or out of arrival order; otherwise a
// connect chased by an immediate disconnect could reach the store reversed
// and leave the user durably online with no live connection.
func (h *Hub) queueTransition(userID uuid.UUID, online bool) {
	if h.presence == nil {
		return
	}

	h.mu.Lock()
	q, ok := h.queues[userID]
	if !ok {
		q = &presenceQueue{}
		h.queues[userID] = q
	}
	q.jobs = append(q.jobs, online)
	if q.running {
		h.mu.Unlock()
		return
	}
	q.running = true
	h.mu.Unlock()

	go h.drainTransitions(userID, q)
}

func (h *Hub) drainTransitions(userID uuid.UUID, q *presenceQueue) {
	for {
		h.mu.Lock()
		if len(q.jobs) == 0 {
			delete(h.queues, userID)
			h.mu.Unlock()
			return
		}
		online := q.jobs[0]
		q.jobs = q.jobs[1:]
		h.mu.Unlock()

		if online {
			h.presence.HandleOnline(context.Background(), userID)
		} else {
			h.presence.HandleOffline(context.Background(), userID)
		}
	}
}
