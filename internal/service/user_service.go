package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/repository"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

const searchLimit = 10

// UserService covers profile operations: search, theme, pinned chats.
type UserService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
}

func NewUserService(userRepo repository.UserRepository, friendRepo repository.FriendRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		friendRepo: friendRepo,
	}
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Search finds users by username prefix, excluding the searcher, each hit
// annotated with its friend-graph position relative to the searcher.
func (s *UserService) Search(ctx context.Context, selfID uuid.UUID, query string) ([]domain.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.UserSearchResult{}, nil
	}

	users, err := s.userRepo.Search(ctx, selfID, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}

	results := make([]domain.UserSearchResult, 0, len(users))
	for _, u := range users {
		status := domain.FriendStatusNone
		rel, err := s.friendRepo.GetByPair(ctx, selfID, u.ID)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			switch {
			case rel.Status == domain.RequestAccepted:
				status = domain.FriendStatusFriend
			case rel.FromID == selfID:
				status = domain.FriendStatusRequestSent
			default:
				status = domain.FriendStatusRequestReceived
			}
		}
		results = append(results, domain.UserSearchResult{
			ID:           u.ID,
			Username:     u.Username,
			IsOnline:     u.IsOnline,
			LastSeen:     u.LastSeen,
			FriendStatus: status,
		})
	}
	return results, nil
}

func (s *UserService) SetTheme(ctx context.Context, userID uuid.UUID, theme string) error {
	if theme != domain.ThemeLight && theme != domain.ThemeDark {
		return ErrInvalidTheme
	}
	return s.userRepo.SetTheme(ctx, userID, theme)
}

// TogglePin pins or unpins a peer on the user's own list. Idempotent: pinning
// an already-pinned peer is a no-op success. No relation check is required
// beyond the user owning the list.
func (s *UserService) TogglePin(ctx context.Context, selfID, otherID uuid.UUID, pin bool) error {
	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return err
	}
	if other == nil {
		return ErrUserNotFound
	}

	if pin {
		return s.userRepo.AddPin(ctx, selfID, otherID)
	}
	return s.userRepo.RemovePin(ctx, selfID, otherID)
}
