package ws

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

// MessageStore is the durable-store collaborator the relay hands messages to.
// Persist must complete before a send is confirmed to the sender.
type MessageStore interface {
	Persist(ctx context.Context, m domain.Message) error
}

// Hub is the single presence authority: it maps identities to their live
// connections, announces join/leave transitions, tracks activities, and
// relays direct messages.
//
// All shared state lives behind one mutex. Fan-out never runs under the
// lock: recipient lists and snapshots are computed first, the lock is
// released, then sends go out on buffered per-client channels.
type Hub struct {
	mu    sync.RWMutex
	log   *slog.Logger
	store MessageStore

	clients    map[string]*Client            // by connection id
	identities map[string]map[string]*Client // identity -> connection id -> client
	activities map[string]string             // identity -> activity

	validate *validator.Validate
}

// NewHub creates a Hub backed by the given message store.
func NewHub(store MessageStore, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:        log,
		store:      store,
		clients:    make(map[string]*Client),
		identities: make(map[string]map[string]*Client),
		activities: make(map[string]string),
		validate:   validator.New(),
	}
}

// Register adds a connection. Re-registering the same connection id replaces
// the prior entry. The newcomer gets the presence and activity snapshots; if
// this is the identity's first connection, every other connection is told
// about the join.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if prev, ok := h.clients[c.ID]; ok && prev != c {
		h.detachLocked(prev)
	}

	conns := h.identities[c.Identity]
	wasOnline := len(conns) > 0
	if conns == nil {
		conns = make(map[string]*Client)
		h.identities[c.Identity] = conns
	}
	conns[c.ID] = c
	h.clients[c.ID] = c

	peersSnapshot := h.onlineExceptLocked(c.Identity)
	fullSnapshot := h.onlineLocked()
	activities := h.activitiesLocked()
	recipients := h.clientsExceptLocked(c.ID)
	h.mu.Unlock()

	// Initial sync for the newcomer: who is online (excluding itself) and
	// what everyone is doing.
	h.sendTo(c, EventUsersOnline, peersSnapshot)
	h.sendTo(c, EventActivities, activities)

	if wasOnline {
		// Second device for an already-online identity: silent attach.
		return
	}

	for _, peer := range recipients {
		h.sendTo(peer, EventUserConnected, c.Identity)
		h.sendTo(peer, EventUsersOnline, fullSnapshot)
	}
	h.log.Info("identity online", "identity", c.Identity, "conn", c.ID)
}

// Unregister removes a connection. It is a no-op if the connection is
// already gone, so disconnect races are tolerated. When the identity's last
// connection closes, its activity entry is dropped and every remaining
// connection is told about the leave.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	cur, ok := h.clients[c.ID]
	if !ok || cur != c {
		h.mu.Unlock()
		return
	}

	wentOffline := h.detachLocked(c)

	var recipients []*Client
	if wentOffline {
		recipients = h.clientsExceptLocked(c.ID)
	}
	h.mu.Unlock()

	if !wentOffline {
		return
	}
	for _, peer := range recipients {
		h.sendTo(peer, EventUserDisconnected, c.Identity)
	}
	h.log.Info("identity offline", "identity", c.Identity, "conn", c.ID)
}

// detachLocked removes the connection from both indexes and closes its send
// channel. It reports whether the identity went offline. Caller holds mu.
func (h *Hub) detachLocked(c *Client) bool {
	delete(h.clients, c.ID)

	conns := h.identities[c.Identity]
	delete(conns, c.ID)
	if len(conns) > 0 {
		c.closeSend()
		return false
	}

	delete(h.identities, c.Identity)
	delete(h.activities, c.Identity)
	c.closeSend()
	return true
}

// IsOnline reports whether the identity has at least one live connection.
func (h *Hub) IsOnline(identity string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.identities[identity]) > 0
}

// OnlineIdentities returns a sorted snapshot of the currently online
// identities. The snapshot is not kept in sync with later mutations.
func (h *Hub) OnlineIdentities() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) onlineLocked() []string {
	ids := lo.Keys(h.identities)
	sort.Strings(ids)
	return ids
}

func (h *Hub) onlineExceptLocked(identity string) []string {
	ids := lo.Reject(lo.Keys(h.identities), func(id string, _ int) bool {
		return id == identity
	})
	sort.Strings(ids)
	return ids
}

func (h *Hub) clientsExceptLocked(connID string) []*Client {
	return lo.Reject(lo.Values(h.clients), func(c *Client, _ int) bool {
		return c.ID == connID
	})
}

// connectionsOf snapshots the live connections of one identity.
func (h *Hub) connectionsOf(identity string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Values(h.identities[identity])
}

// sendTo encodes and queues one event for one connection. A full buffer or
// encode failure is logged and never escalates: a slow consumer must not
// affect delivery to anyone else.
func (h *Hub) sendTo(c *Client, event string, data interface{}) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		h.log.Error("encode event", "event", event, "err", err)
		return
	}
	if !c.trySend(payload) {
		h.log.Warn("send buffer full, dropping event", "event", event, "conn", c.ID, "identity", c.Identity)
	}
}
