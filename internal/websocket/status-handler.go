package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	app_error "github.com/PI304/PinTalk-API/internal/errors"
	"github.com/PI304/PinTalk-API/internal/event"
	"github.com/PI304/PinTalk-API/internal/hotcache"
	"github.com/PI304/PinTalk-API/internal/observability"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
)

// StatusHandler tracks host presence. The host's own connection drives the
// online/offline state; guest connections only observe it.
type StatusHandler struct {
	hub   *Hub
	cache *hotcache.Store
	repo  chatroom_repo.ChatroomRepoContract
	auth  AuthenticatorFunc

	handshakeTimeout time.Duration
	upgrader         websocket.Upgrader
}

func NewStatusHandler(hub *Hub, cache *hotcache.Store, repo chatroom_repo.ChatroomRepoContract, auth AuthenticatorFunc, handshakeTimeout time.Duration) *StatusHandler {
	return &StatusHandler{
		hub:              hub,
		cache:            cache,
		repo:             repo,
		auth:             auth,
		handshakeTimeout: handshakeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	hostID := chi.URLParam(r, "hostId")

	sess, denied := h.handshake(r, hostID)
	if denied != nil {
		log.Warn().Str("hostId", hostID).Str("reason", denied.Reason).Msg("ws: status connection denied")
		http.Error(w, denied.Reason, denied.Status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("hostId", hostID).Msg("ws: status upgrade failed")
		return
	}

	client := newClient(uuid.NewString(), sess, conn, h.receive, h.disconnect)
	h.hub.Join(sess.GroupKey, client)
	observability.ConnOpened("status")
	client.Start()

	if sess.IsHost() {
		h.setPresence(client, "online")
	} else {
		h.replayLatest(client)
	}
}

func (h *StatusHandler) handshake(r *http.Request, hostID string) (*Session, *app_error.DeniedError) {
	ctx, cancel := context.WithTimeout(r.Context(), h.handshakeTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	id, err := uuid.Parse(hostID)
	if err != nil {
		return nil, app_error.Denied(http.StatusNotFound, "unknown host")
	}

	target, appErr := h.repo.FindHostByID(ctx, id)
	if appErr != nil {
		return nil, app_error.Denied(http.StatusNotFound, "unknown host")
	}

	caller, err := h.auth(r)
	if err != nil {
		return nil, app_error.Denied(http.StatusUnauthorized, err.Error())
	}

	key := hotcache.StatusKey(target.ID.String())

	if caller != nil {
		// Only the host themselves may publish their presence.
		if caller.ID != target.ID {
			return nil, app_error.Denied(http.StatusForbidden, "not your status channel")
		}
		return &Session{UserType: HostUser, Host: target, GroupKey: key, RequestID: requestID(r)}, nil
	}

	origin := originDomain(r)
	if origin == "" || origin != target.ServiceDomain {
		return nil, app_error.Denied(http.StatusForbidden, "guest origin mismatch")
	}
	return &Session{UserType: GuestUser, Host: target, GroupKey: key, RequestID: requestID(r)}, nil
}

// setPresence overwrites the single presence slot and fans the change out
// to watching guests.
func (h *StatusHandler) setPresence(c *Client, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env := event.Envelope{
		Type:      event.TypeNotice,
		Message:   status,
		IsHost:    true,
		Timestamp: event.FormatTimestamp(time.Now()),
	}
	stored, err := h.cache.Update(ctx, c.Session.GroupKey, env)
	if err != nil {
		log.Error().Err(err).Str("hostId", c.Session.Host.ID.String()).Msg("ws: presence update failed")
		return
	}

	if payload, err := json.Marshal(stored); err == nil {
		h.hub.Broadcast(c.Session.GroupKey, payload, ToGuest)
	}
	log.Info().Str("hostId", c.Session.Host.ID.String()).Str("status", status).Msg("ws: host presence updated")
}

// replayLatest pushes the current presence slot, if any, to a guest that
// just subscribed.
func (h *StatusHandler) replayLatest(c *Client) {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	latest, err := h.cache.Latest(ctx, c.Session.GroupKey)
	if err != nil {
		log.Warn().Err(err).Str("hostId", c.Session.Host.ID.String()).Msg("ws: presence read failed")
		return
	}
	if latest == nil {
		return
	}

	if payload, err := json.Marshal(latest); err == nil {
		c.Enqueue(payload)
	}
}

// The status channel is delivery-only. Anything a client sends is a
// protocol violation.
func (h *StatusHandler) receive(c *Client, _ []byte) {
	c.CloseWithCode(app_error.CloseForbidden, "status channel is read only")
}

func (h *StatusHandler) disconnect(c *Client) {
	h.hub.Leave(c.Session.GroupKey, c)
	observability.ConnClosed("status")

	if c.Session.IsHost() {
		h.setPresence(c, "offline")
	}
}
