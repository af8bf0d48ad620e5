package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/repository"
)

// OnlineChecker answers whether a user currently has any live connection.
// The connection registry implements it.
type OnlineChecker interface {
	IsOnline(userID uuid.UUID) bool
}

// PresenceService handles the Offline->Online and Online->Offline
// transitions: it updates the durable online flag plus last-seen timestamp
// and fans the change out to the user's currently connected friends.
// Presence is best-effort; a store failure is logged and never blocks the
// connection lifecycle.
type PresenceService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	online     OnlineChecker
	notifier   Notifier
}

func NewPresenceService(userRepo repository.UserRepository, friendRepo repository.FriendRepository, online OnlineChecker) *PresenceService {
	return &PresenceService{
		userRepo:   userRepo,
		friendRepo: friendRepo,
		online:     online,
	}
}

func (s *PresenceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// HandleOnline runs on the first registered connection for a user.
func (s *PresenceService) HandleOnline(ctx context.Context, userID uuid.UUID) {
	s.transition(ctx, userID, true)
}

// HandleOffline runs when the last connection for a user is removed.
func (s *PresenceService) HandleOffline(ctx context.Context, userID uuid.UUID) {
	s.transition(ctx, userID, false)
}

func (s *PresenceService) transition(ctx context.Context, userID uuid.UUID, online bool) {
	now := time.Now()

	if err := s.userRepo.SetPresence(ctx, userID, online, now); err != nil {
		log.Printf("presence: updating %s online=%t: %v", userID, online, err)
	}

	friendIDs, err := s.friendRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		log.Printf("presence: listing friends of %s: %v", userID, err)
		return
	}

	// Offline friends see correct state on their own reconnect/fetch.
	var recipients []uuid.UUID
	for _, id := range friendIDs {
		if s.online.IsOnline(id) {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 || s.notifier == nil {
		return
	}

	s.notifier.PresenceChanged(recipients, userID, online, now)
}
