package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once persisted. A chat's messages can only be
// bulk-deleted by either participant, never edited.
type Message struct {
	ID        uuid.UUID `json:"id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
	// Joined fields
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}
