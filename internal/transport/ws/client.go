package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/service"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client is a single live WebSocket connection for an authenticated user.
// The id is the connection handle: distinct per connection even when one
// user holds several.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	id       uuid.UUID
	userID   uuid.UUID
	username string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, user *domain.User) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       uuid.New(),
		userID:   user.ID,
		username: user.Username,
		send:     make(chan []byte, sendBufSize),
		done:     make(chan struct{}),
	}
}

// close tears the connection down exactly once, no matter whether the read
// pump, the write pump, or both hit an error.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.hub.Disconnect(c)
		close(c.done)
	})
}

// ReadPump reads events from the WebSocket until the connection dies.
func (c *Client) ReadPump() {
	defer func() {
		c.close()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("ws: client %s disconnected", c.username)
			} else {
				log.Printf("ws: read error from %s: %v", c.username, err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error to %s: %v", c.username, err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error to %s: %v", c.username, err)
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid send_message payload")
			return
		}

		_, err := c.hub.router.Route(context.Background(), c.userID, p.To, p.Message, p.Nonce, c.id)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyMessage):
				c.sendError("EMPTY_MESSAGE", "message is empty")
			case errors.Is(err, service.ErrNotFriends):
				c.sendError("NOT_FRIENDS", "you can only message friends")
			default:
				log.Printf("ws: route message from %s: %v", c.username, err)
				c.sendError("SEND_FAILED", "message could not be sent")
			}
		}

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

// enqueue hands data to the write pump without blocking; a full buffer means
// the client is too slow and the event is dropped.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	c.enqueue(data)
}

// sendError delivers a best-effort error event to this connection only.
func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.enqueue(data)
}
