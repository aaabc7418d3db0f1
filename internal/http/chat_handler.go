package http

import (
	"context"
	"encoding/json"
	"net/http"
)

type ChatService interface {
	Configured() bool
	Reply(ctx context.Context, message string) (string, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequestDTO struct {
	Message json.RawMessage `json:"message"`
}

type ChatResponseDTO struct {
	Reply string `json:"reply"`
}

// Chat relays one patient message to the assistant. The provider gets its
// own timeout inside the assistant.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if !h.chat.Configured() {
		respondError(w, http.StatusInternalServerError, "chat_not_configured", "chat provider is not configured")
		return
	}

	var req ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var message string
	if err := json.Unmarshal(req.Message, &message); err != nil || message == "" {
		respondError(w, http.StatusBadRequest, "invalid_message", "message is required and must be a string")
		return
	}

	reply, err := h.chat.Reply(r.Context(), message)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ChatResponseDTO{Reply: reply})
}
