package livechat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"phora/internal/middleware"
	"phora/internal/models"
	"phora/internal/observability"
	"phora/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 4
	historyLines    = 50
)

// Event is one frame on the live chat wire.
type Event struct {
	Type     string      `json:"type"` // "message", "history", "error"
	Username string      `json:"username,omitempty"`
	Message  string      `json:"message,omitempty"`
	Time     time.Time   `json:"time,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// Hub manages the single site-wide chat room. Messages are persisted
// through the site service and fanned out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	conns   map[string]int // uid -> connection count

	site *service.SiteService
	log  *slog.Logger
}

// NewHub creates the live chat hub.
func NewHub(site *service.SiteService, log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		conns:   make(map[string]int),
		site:    site,
		log:     log,
	}
}

// Name identifies the hub in logs and metrics.
func (h *Hub) Name() string { return "live chat" }

// Register attaches a connection and replays recent history to it.
func (h *Hub) Register(ctx context.Context, conn *websocket.Conn, uid, username string) (*Client, error) {
	h.mu.Lock()
	if h.conns[uid] >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, models.NewValidationError("Connection limit reached")
	}
	client := newClient(h, conn, uid, username)
	h.clients[client] = true
	h.conns[uid]++
	h.mu.Unlock()

	observability.LiveChatConnections.Inc()

	history, err := h.site.ChatHistory(ctx, historyLines)
	if err != nil {
		h.log.WarnContext(ctx, "live chat history load failed",
			slog.String("error", err.Error()))
	} else if frame, err := json.Marshal(Event{Type: "history", Payload: history}); err == nil {
		client.trySend(frame)
	}
	return client, nil
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		if h.conns[client.UID] > 1 {
			h.conns[client.UID]--
		} else {
			delete(h.conns, client.UID)
		}
		observability.LiveChatConnections.Dec()
	}
	h.mu.Unlock()
}

// handleIncoming persists a chat line and broadcasts it.
func (h *Hub) handleIncoming(client *Client, raw []byte) {
	var in struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(middleware.WithUser(context.Background(), client.UID), 5*time.Second)
	defer cancel()

	stored, err := h.site.PostChatMessage(ctx, client.Username, in.Message)
	if err != nil {
		if frame, mErr := json.Marshal(Event{Type: "error", Message: err.Error()}); mErr == nil {
			client.trySend(frame)
		}
		return
	}

	frame, err := json.Marshal(Event{
		Type:     "message",
		Username: stored.Username,
		Message:  stored.Message,
		Time:     stored.Time,
	})
	if err != nil {
		return
	}
	h.broadcast(frame)
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.trySend(frame)
	}
}

// Shutdown closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
		delete(h.clients, client)
		observability.LiveChatConnections.Dec()
	}
	h.conns = make(map[string]int)
	return nil
}
