package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
)

// HubNotifier implements service.Notifier on top of the connection registry.
type HubNotifier struct {
	registry *Registry
}

func NewHubNotifier(registry *Registry) *HubNotifier {
	return &HubNotifier{registry: registry}
}

// MessageDelivered pushes a new_message event to every connection of the
// recipient and to the sender's connections other than the originating one.
// The originating client already holds an optimistic local copy, so skipping
// it removes the duplicate echo at the source.
func (n *HubNotifier) MessageDelivered(msg *domain.Message, nonce string, originConn uuid.UUID) {
	data, ok := n.marshal(EventTypeNewMessage, MessagePayload{Message: *msg, Nonce: nonce})
	if !ok {
		return
	}

	for _, c := range n.registry.ConnectionsFor(msg.ToID) {
		c.enqueue(data)
	}
	for _, c := range n.registry.ConnectionsFor(msg.FromID) {
		if c.id == originConn {
			continue
		}
		c.enqueue(data)
	}
}

func (n *HubNotifier) FriendRequestReceived(req *domain.FriendRequest) {
	n.sendToUser(req.ToID, EventTypeFriendRequest, FriendRequestPayload{FriendRequest: *req})
}

// FriendAdded notifies both parties of the now-accepted relation.
func (n *HubNotifier) FriendAdded(req *domain.FriendRequest) {
	payload := FriendRequestPayload{FriendRequest: *req}
	n.sendToUser(req.FromID, EventTypeFriendAdded, payload)
	n.sendToUser(req.ToID, EventTypeFriendAdded, payload)
}

func (n *HubNotifier) FriendRemoved(userID, removedBy uuid.UUID) {
	n.sendToUser(userID, EventTypeFriendRemoved, FriendRemovedPayload{UserID: removedBy})
}

func (n *HubNotifier) PresenceChanged(recipients []uuid.UUID, userID uuid.UUID, online bool, lastSeen time.Time) {
	eventType := EventTypeFriendOffline
	if online {
		eventType = EventTypeFriendOnline
	}
	data, ok := n.marshal(eventType, PresencePayload{UserID: userID, LastSeen: lastSeen})
	if !ok {
		return
	}
	for _, id := range recipients {
		for _, c := range n.registry.ConnectionsFor(id) {
			c.enqueue(data)
		}
	}
}

func (n *HubNotifier) sendToUser(userID uuid.UUID, eventType string, payload any) {
	data, ok := n.marshal(eventType, payload)
	if !ok {
		return
	}
	for _, c := range n.registry.ConnectionsFor(userID) {
		c.enqueue(data)
	}
}

func (n *HubNotifier) marshal(eventType string, payload any) ([]byte, bool) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return nil, false
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return nil, false
	}
	return data, true
}
