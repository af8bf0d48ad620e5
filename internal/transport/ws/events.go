package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeSendMessage = "send_message"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeNewMessage    = "new_message"
	EventTypeFriendRequest = "friend_request_received"
	EventTypeFriendAdded   = "friend_added"
	EventTypeFriendRemoved = "friend_removed"
	EventTypeFriendOnline  = "friend_online"
	EventTypeFriendOffline = "friend_offline"
	EventTypePong          = "pong"
	EventTypeError         = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type SendMessagePayload struct {
	To      uuid.UUID `json:"to"`
	Message string    `json:"message"`
	// Nonce is the client-generated provisional id; it rides back on the
	// new_message event so other sessions can reconcile optimistic copies.
	Nonce string `json:"nonce,omitempty"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
	Nonce string `json:"nonce,omitempty"`
}

type FriendRequestPayload struct {
	domain.FriendRequest
}

type FriendRemovedPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type PresencePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
