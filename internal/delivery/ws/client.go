package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Upper bound on a single persistence hand-off
	persistTimeout = 5 * time.Second
)

// Client is one websocket connection bound to an authenticated identity.
// The identity comes from the auth collaborator at upgrade time; the client
// still has to announce user_connected before it joins presence.
type Client struct {
	ID       string
	Identity string

	hub     *Hub
	conn    *websocket.Conn
	log     *slog.Logger
	limiter *rate.Limiter

	sendMu     sync.Mutex
	sendClosed bool
	send       chan []byte

	registered bool
}

// NewClient creates a Client for a verified identity.
func NewClient(hub *Hub, conn *websocket.Conn, identity string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		ID:       uuid.New().String(),
		Identity: identity,
		hub:      hub,
		conn:     conn,
		log:      log,
		limiter:  rate.NewLimiter(domain.DefaultClientEventRate, 2*domain.DefaultClientEventRate),
		send:     make(chan []byte, domain.SendBufferSize),
	}
}

// trySend queues an outbound frame without blocking. It reports false when
// the connection is gone or its buffer is full.
func (c *Client) trySend(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once. Called by the hub while
// it holds the registry lock, so concurrent trySend callers see sendClosed.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// ReadPump pumps inbound events from the websocket into the hub. It owns the
// unregister guarantee: whatever path exits the loop, the connection is
// evicted exactly once and presence never leaks a stale identity.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(domain.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("websocket closed", "conn", c.ID, "err", err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.sendError(ErrCodeValidation, "too many events")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError(ErrCodeValidation, "malformed envelope")
			continue
		}

		c.dispatch(env)
	}
}

// dispatch handles one inbound event. Events on a single connection are
// processed in order; the only blocking step is the persistence hand-off
// inside SendMessage.
func (c *Client) dispatch(env Envelope) {
	switch env.Event {
	case EventUserConnected:
		// The announced id is advisory; the authenticated identity wins.
		if !c.registered {
			c.registered = true
			c.hub.Register(c)
		}

	case EventUpdateActivity:
		if !c.registered {
			c.sendError(ErrCodeInvalidState, "not connected")
			return
		}
		var p UpdateActivityPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.sendError(ErrCodeValidation, "malformed activity payload")
			return
		}
		if err := c.hub.SetActivity(c.Identity, p.Activity); err != nil {
			c.reportError(err)
		}

	case EventSendMessage:
		if !c.registered {
			c.sendError(ErrCodeInvalidState, "not connected")
			return
		}
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.sendError(ErrCodeValidation, "malformed message payload")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		// The payload carries senderId for wire compatibility, but the relay
		// only ever sends on behalf of the authenticated identity.
		_, err := c.hub.SendMessage(ctx, c.Identity, p.ReceiverID, p.Content)
		cancel()
		if err != nil {
			c.reportError(err)
		}

	default:
		c.sendError(ErrCodeValidation, "unknown event: "+env.Event)
	}
}

// reportError maps a domain error onto the wire taxonomy. The sender always
// gets a terminal event for a failed request; silence is never an outcome.
func (c *Client) reportError(err error) {
	var vErr *domain.ValidationError
	var sErr *domain.StoreError
	switch {
	case errors.As(err, &vErr):
		c.sendError(ErrCodeValidation, vErr.Error())
	case errors.Is(err, domain.ErrUnknownIdentity):
		c.sendError(ErrCodeInvalidState, err.Error())
	case errors.As(err, &sErr):
		c.sendError(ErrCodeStore, "message could not be stored")
	default:
		c.sendError(ErrCodeStore, "internal error")
	}
}

func (c *Client) sendError(code, message string) {
	payload, err := encodeEvent(EventError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.trySend(payload)
}

// WritePump pumps queued frames to the websocket connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
