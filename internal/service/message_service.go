package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/repository"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNotFriends   = errors.New("users are not friends")
)

// historyLimit bounds a single history fetch.
const historyLimit = 100

// Notifier pushes real-time events to connected clients. Delivery is
// best-effort: a recipient that is offline simply misses the push and sees
// the state on its next fetch.
type Notifier interface {
	// MessageDelivered fans a persisted message out to all of the
	// recipient's connections and to the sender's connections other than
	// originConn, so the originating client never receives a duplicate
	// echo of its own send.
	MessageDelivered(msg *domain.Message, nonce string, originConn uuid.UUID)
	FriendRequestReceived(req *domain.FriendRequest)
	FriendAdded(req *domain.FriendRequest)
	FriendRemoved(userID, removedBy uuid.UUID)
	// PresenceChanged notifies each user in recipients that userID went
	// online or offline.
	PresenceChanged(recipients []uuid.UUID, userID uuid.UUID, online bool, lastSeen time.Time)
}

// MessageService routes point-to-point messages between authorized peers.
type MessageService struct {
	messageRepo repository.MessageRepository
	friendRepo  repository.FriendRepository
	notifier    Notifier
}

func NewMessageService(messageRepo repository.MessageRepository, friendRepo repository.FriendRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		friendRepo:  friendRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Route validates, persists, and fans out a message. The friendship check
// runs here rather than at the UI layer: the transport is a shared
// multiplexed channel and a hostile client could otherwise message arbitrary
// ids. A persistence failure surfaces to the sender only; no partial fan-out
// occurs. originConn identifies the connection that issued the send, which
// is excluded from the sender-side echo.
func (s *MessageService) Route(ctx context.Context, senderID, recipientID uuid.UUID, body, nonce string, originConn uuid.UUID) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	friends, err := s.friendRepo.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if !friends {
		return nil, ErrNotFriends
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		FromID:    senderID,
		ToID:      recipientID,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil || full == nil {
		// The message is durable; deliver what we have.
		full = msg
	}

	if s.notifier != nil {
		s.notifier.MessageDelivered(full, nonce, originConn)
	}

	return full, nil
}

// History returns the chat between selfID and otherID, oldest first.
func (s *MessageService) History(ctx context.Context, selfID, otherID uuid.UUID) ([]domain.Message, error) {
	msgs, err := s.messageRepo.ListByPair(ctx, selfID, otherID, historyLimit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// ClearHistory deletes every message for the unordered pair. The friend
// relation, if any, is untouched.
func (s *MessageService) ClearHistory(ctx context.Context, selfID, otherID uuid.UUID) error {
	return s.messageRepo.DeleteByPair(ctx, selfID, otherID)
}
