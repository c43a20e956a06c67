package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/mmuslimabdulj/tunelink/internal/config"
	"github.com/mmuslimabdulj/tunelink/internal/delivery/ws"
	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

// IdentityVerifier is the seam to the external auth collaborator: it turns a
// request into a verified identity or an error.
type IdentityVerifier interface {
	Identify(r *http.Request) (string, error)
}

// MessageLister reads conversation history from the durable store.
type MessageLister interface {
	ListConversation(ctx context.Context, a, b string, limit int) ([]domain.Message, error)
}

type Handler struct {
	cfg      *config.Config
	hub      *ws.Hub
	verifier IdentityVerifier
	messages MessageLister
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(cfg *config.Config, hub *ws.Hub, verifier IdentityVerifier, messages MessageLister, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		cfg:      cfg,
		hub:      hub,
		verifier: verifier,
		messages: messages,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// HandleWebSocket authenticates the handshake, upgrades the connection and
// starts the session pumps. Registration with the hub happens once the
// client announces user_connected.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Identify(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !domain.ValidIdentity(identity) {
		writeJSONError(w, http.StatusUnauthorized, "invalid identity")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := ws.NewClient(h.hub, conn, identity, h.log)
	go client.WritePump()
	go client.ReadPump()
}

// HandleMessages serves GET /api/users/messages/{userID}: the conversation
// between the authenticated caller and the given user, oldest first.
func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity, err := h.verifier.Identify(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	other := strings.TrimPrefix(r.URL.Path, "/api/users/messages/")
	if !domain.ValidIdentity(other) {
		writeJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	messages, err := h.messages.ListConversation(r.Context(), identity, other, h.cfg.HistoryLimit)
	if err != nil {
		h.log.Error("list conversation", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "could not load messages")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// HandleHealth is the liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": h.hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
