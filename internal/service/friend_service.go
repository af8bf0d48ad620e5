package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/repository"
)

var (
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrDuplicateRequest = errors.New("a relation for this pair already exists")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrUserNotFound     = errors.New("user not found")
)

// FriendService mutates the friend graph and notifies affected live
// connections.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

func (s *FriendService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendRequest creates a pending relation from fromID to toID. The pre-check
// against an existing relation is only for a clear error message; the unique
// pair index at the store layer is what closes the concurrent-submission
// race.
func (s *FriendService) SendRequest(ctx context.Context, fromID, toID uuid.UUID) (*domain.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}

	target, err := s.userRepo.GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.friendRepo.GetByPair(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	sender, err := s.userRepo.GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	req := &domain.FriendRequest{
		ID:           uuid.New(),
		FromID:       fromID,
		ToID:         toID,
		Status:       domain.RequestPending,
		CreatedAt:    time.Now(),
		FromUsername: sender.Username,
		FromOnline:   sender.IsOnline,
		ToUsername:   target.Username,
	}

	if err := s.friendRepo.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.FriendRequestReceived(req)
	}

	return req, nil
}

// Respond accepts or rejects a pending request addressed to responderID.
// Accepting flips the relation to accepted and notifies both parties.
// Rejecting deletes the row entirely so a later request can be issued.
func (s *FriendService) Respond(ctx context.Context, requestID, responderID uuid.UUID, accept bool) (*domain.FriendRequest, error) {
	req, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.ToID != responderID || req.Status != domain.RequestPending {
		return nil, ErrRequestNotFound
	}

	if !accept {
		if err := s.friendRepo.Delete(ctx, requestID); err != nil {
			return nil, fmt.Errorf("deleting friend request: %w", err)
		}
		return nil, nil
	}

	if err := s.friendRepo.Accept(ctx, requestID); err != nil {
		return nil, fmt.Errorf("accepting friend request: %w", err)
	}
	req.Status = domain.RequestAccepted

	s.fillUsernames(ctx, req)

	if s.notifier != nil {
		s.notifier.FriendAdded(req)
	}

	return req, nil
}

// RemoveFriend deletes an accepted relation and drops pin-list references in
// both directions.
func (s *FriendService) RemoveFriend(ctx context.Context, selfID, otherID uuid.UUID) error {
	rel, err := s.friendRepo.GetByPair(ctx, selfID, otherID)
	if err != nil {
		return err
	}
	if rel == nil || rel.Status != domain.RequestAccepted {
		return ErrNotFriends
	}

	if err := s.friendRepo.Delete(ctx, rel.ID); err != nil {
		return fmt.Errorf("deleting relation: %w", err)
	}

	// Pins reference the relation; a dangling pin is harmless but would
	// surface as a phantom entry on the next list.
	if err := s.userRepo.RemovePin(ctx, selfID, otherID); err != nil {
		log.Printf("friend service: removing pin for %s: %v", selfID, err)
	}
	if err := s.userRepo.RemovePin(ctx, otherID, selfID); err != nil {
		log.Printf("friend service: removing pin for %s: %v", otherID, err)
	}

	if s.notifier != nil {
		s.notifier.FriendRemoved(otherID, selfID)
	}

	return nil
}

// Friends returns the friends list, pinned first, then by username.
func (s *FriendService) Friends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []domain.Friend{}
	}
	return friends, nil
}

// PendingRequests returns incoming pending requests for userID.
func (s *FriendService) PendingRequests(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	reqs, err := s.friendRepo.ListPendingIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.FriendRequest{}
	}
	return reqs, nil
}

func (s *FriendService) fillUsernames(ctx context.Context, req *domain.FriendRequest) {
	if from, err := s.userRepo.GetByID(ctx, req.FromID); err == nil && from != nil {
		req.FromUsername = from.Username
		req.FromOnline = from.IsOnline
	}
	if to, err := s.userRepo.GetByID(ctx, req.ToID); err == nil && to != nil {
		req.ToUsername = to.Username
	}
}
