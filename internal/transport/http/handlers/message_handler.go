package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/service"
	"github.com/mzaikin/courier/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// History returns the chat with a friend, oldest first. Messages sent while
// this user was offline are picked up here on reconnect.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	friendID, err := uuid.Parse(r.PathValue("friendId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid friend ID")
		return
	}

	msgs, err := h.messageService.History(r.Context(), userID, friendID)
	if err != nil {
		log.Printf("ERROR fetch history: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	friendID, err := uuid.Parse(r.PathValue("friendId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid friend ID")
		return
	}

	if err := h.messageService.ClearHistory(r.Context(), userID, friendID); err != nil {
		log.Printf("ERROR clear history: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
