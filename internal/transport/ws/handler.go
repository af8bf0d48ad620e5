package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
	"nhooyr.io/websocket"
)

// TokenVerifier verifies a session token and returns the user it is bound
// to. Implemented by service.AuthService; the push channel accepts the same
// token format as the request channel.
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// UserFinder resolves a verified user id to its identity record.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// A missing or invalid token rejects the upgrade outright; no retry state is
// kept.
func ServeWS(hub *Hub, auth TokenVerifier, users UserFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := auth.VerifyToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := users.GetByID(r.Context(), userID)
		if err != nil {
			log.Printf("ws: loading user %s: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		client := NewClient(hub, conn, user)
		hub.Connect(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
