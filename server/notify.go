package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/possuite/go-pos-server/session"
)

const (
	wsAuthTimeout   = 10 * time.Second
	wsWriteTimeout  = 5 * time.Second
	wsSendQueueSize = 32
)

// Notification is an event pushed to a store's connected clients.
type Notification struct {
	Type    string `json:"type"`
	StoreID string `json:"store_id"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber struct {
	send chan Notification
}

// NotifyHub fans notifications out to WebSocket subscribers, grouped by
// store. A connection is only admitted after its auth payload passes the same
// access-token validation the HTTP gate uses.
type NotifyHub struct {
	sessions    *session.Manager
	log         zerolog.Logger
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
}

func NewNotifyHub(sessions *session.Manager, logger zerolog.Logger) *NotifyHub {
	return &NotifyHub{
		sessions:    sessions,
		log:         logger,
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers a notification to every subscriber of the store. Slow
// subscribers with a full queue miss the event rather than blocking the
// publisher.
func (h *NotifyHub) Publish(storeID string, n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[storeID] {
		select {
		case sub.send <- n:
		default:
			h.log.Warn().Str("store_id", storeID).Msg("notification dropped, subscriber queue full")
		}
	}
}

func (h *NotifyHub) add(storeID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[storeID] == nil {
		h.subscribers[storeID] = make(map[*subscriber]struct{})
	}
	h.subscribers[storeID][sub] = struct{}{}
}

func (h *NotifyHub) remove(storeID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[storeID], sub)
	if len(h.subscribers[storeID]) == 0 {
		delete(h.subscribers, storeID)
	}
}

// Handler upgrades the request to a WebSocket, requires an auth frame
// carrying a valid access token before the socket is admitted, then streams
// the store's notifications until the client goes away.
func (h *NotifyHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			h.log.Error().Err(err).Msg("websocket accept failed")
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

		ctx := r.Context()

		authCtx, cancelAuth := context.WithTimeout(ctx, wsAuthTimeout)
		_, data, err := conn.Read(authCtx)
		cancelAuth()
		if err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "auth payload required")
			return
		}

		var auth struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &auth); err != nil || auth.Token == "" {
			_ = conn.Close(websocket.StatusPolicyViolation, "auth payload required")
			return
		}

		claims := h.sessions.ValidateAccessToken(ctx, auth.Token)
		if claims == nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		identity := session.NewIdentity(claims)
		sub := &subscriber{send: make(chan Notification, wsSendQueueSize)}
		h.add(identity.StoreID, sub)
		defer h.remove(identity.StoreID, sub)

		h.log.Info().Str("user_id", identity.UserID).Str("store_id", identity.StoreID).Msg("notification socket admitted")
		_ = writeNotification(ctx, conn, Notification{Type: "connected", StoreID: identity.StoreID})

		// Inbound frames are ignored; the read loop only notices closure.
		readCtx, cancelRead := context.WithCancel(ctx)
		defer cancelRead()
		go func() {
			defer cancelRead()
			for {
				if _, _, err := conn.Read(readCtx); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-readCtx.Done():
				return
			case n := <-sub.send:
				if err := writeNotification(readCtx, conn, n); err != nil {
					return
				}
			}
		}
	}
}

func writeNotification(ctx context.Context, conn *websocket.Conn, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
