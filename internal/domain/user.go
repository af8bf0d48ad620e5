package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	IsOnline     bool        `json:"is_online"`
	LastSeen     time.Time   `json:"last_seen"`
	Theme        string      `json:"theme"`
	PinnedPeers  []uuid.UUID `json:"pinned_peers"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Friend-graph position of a search hit relative to the searching user.
const (
	FriendStatusNone            = "none"
	FriendStatusFriend          = "friend"
	FriendStatusRequestSent     = "request_sent"
	FriendStatusRequestReceived = "request_received"
)

type UserSearchResult struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	IsOnline     bool      `json:"is_online"`
	LastSeen     time.Time `json:"last_seen"`
	FriendStatus string    `json:"friend_status"`
}
