package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
)

// ErrDuplicatePair is returned by CreateRequest when a relation for the same
// unordered user pair already exists. It is backed by a unique index, so two
// concurrent requests for the same pair cannot both succeed.
var ErrDuplicatePair = errors.New("a relation for this user pair already exists")

// ErrDuplicateUsername is returned by Create when the username is already
// taken. Backed by the users.username unique constraint, it catches the
// register race the service-level existence check cannot.
var ErrDuplicateUsername = errors.New("username already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Search(ctx context.Context, selfID uuid.UUID, prefix string, limit int) ([]domain.User, error)
	SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
	SetTheme(ctx context.Context, id uuid.UUID, theme string) error
	AddPin(ctx context.Context, id, peerID uuid.UUID) error
	RemovePin(ctx context.Context, id, peerID uuid.UUID) error
}

type FriendRepository interface {
	CreateRequest(ctx context.Context, req *domain.FriendRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error)
	GetByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.FriendRequest, error)
	Accept(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error)
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByPair(ctx context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error)
	DeleteByPair(ctx context.Context, userA, userB uuid.UUID) error
}
