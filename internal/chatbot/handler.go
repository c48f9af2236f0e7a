package chatbot

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Handler struct {
	responder *Responder
	logger    *slog.Logger
}

func NewHandler(responder *Responder, logger *slog.Logger) *Handler {
	return &Handler{responder: responder, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := h.responder.Respond(req.Message)

	h.writeJSON(w, http.StatusOK, chatResponse{
		Success:   true,
		Response:  reply,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"suggestions": Suggestions(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
