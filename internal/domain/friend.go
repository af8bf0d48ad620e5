package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
)

// FriendRequest is the single relation row per unordered user pair.
// status=accepted is the sole authority for "may A and B message each other".
// Rejected or removed relations are deleted outright, never tombstoned, so a
// later request between the same pair can succeed.
type FriendRequest struct {
	ID        uuid.UUID `json:"id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	// Joined fields
	FromUsername string `json:"from_username,omitempty"`
	FromOnline   bool   `json:"from_online,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}

// Friend is a row of the friends list: the peer of an accepted relation.
type Friend struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
	IsPinned bool      `json:"is_pinned"`
}
