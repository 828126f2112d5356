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
	"github.com/PI304/PinTalk-API/internal/lifecycle"
	"github.com/PI304/PinTalk-API/internal/observability"
	"github.com/PI304/PinTalk-API/internal/queue"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
)

// ChatHandlerConfig bounds the session protocol. Values come from the
// chat section of the application config.
type ChatHandlerConfig struct {
	BacklogWindow    time.Duration
	BacklogLimit     int64
	MaxMessageLen    int
	HandshakeTimeout time.Duration
}

// ChatHandler runs the chatroom session protocol: handshake, backlog
// push, message fan-out, replay requests and the host-initiated close.
type ChatHandler struct {
	hub      *Hub
	cache    *hotcache.Store
	rooms    *lifecycle.Manager
	repo     chatroom_repo.ChatroomRepoContract
	producer queue.Producer
	auth     AuthenticatorFunc
	cfg      ChatHandlerConfig

	upgrader websocket.Upgrader
}

func NewChatHandler(hub *Hub, cache *hotcache.Store, rooms *lifecycle.Manager, repo chatroom_repo.ChatroomRepoContract, producer queue.Producer, auth AuthenticatorFunc, cfg ChatHandlerConfig) *ChatHandler {
	return &ChatHandler{
		hub:      hub,
		cache:    cache,
		rooms:    rooms,
		repo:     repo,
		producer: producer,
		auth:     auth,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Guests connect from the host's own site, so cross-origin
			// upgrades are the normal case. Origins are verified against
			// registered service domains in the handshake instead.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "roomName")

	sess, denied := h.handshake(r, roomName)
	if denied != nil {
		log.Warn().Str("room", roomName).Str("reason", denied.Reason).Msg("ws: connection denied")
		http.Error(w, denied.Reason, denied.Status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("room", roomName).Msg("ws: upgrade failed")
		return
	}

	client := newClient(uuid.NewString(), sess, conn, h.receive, h.disconnect)
	h.hub.Join(sess.GroupKey, client)
	observability.ConnOpened("chat")
	client.Start()

	log.Info().Str("room", roomName).Str("userType", sess.UserType.String()).Msg("ws: client joined the chat room")
	h.pushBacklog(client)
}

// handshake runs the pre-upgrade pipeline: identity, room, authorization,
// implicit guest reopen. Any failure denies before the socket is accepted.
func (h *ChatHandler) handshake(r *http.Request, roomName string) (*Session, *app_error.DeniedError) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.HandshakeTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	caller, err := h.auth(r)
	if err != nil {
		return nil, app_error.Denied(http.StatusUnauthorized, err.Error())
	}

	room, appErr := h.rooms.GetRoom(ctx, roomName)
	if appErr != nil {
		if ctx.Err() != nil {
			return nil, app_error.Denied(http.StatusServiceUnavailable, "handshake timed out")
		}
		return nil, app_error.Denied(http.StatusNotFound, "room not found")
	}

	if caller != nil {
		if room.HostID != caller.ID {
			return nil, app_error.Denied(http.StatusForbidden, "not the host of this chatroom")
		}
		// Closed rooms stay closed for the host; reopening is the resume
		// endpoint's job.
		if room.IsClosed {
			return nil, app_error.Denied(http.StatusForbidden, "this chatroom is closed")
		}
		return &Session{
			UserType:  HostUser,
			Host:      caller,
			Room:      room,
			GroupKey:  hotcache.ChatKey(room.Name),
			RequestID: requestID(r),
		}, nil
	}

	origin := originDomain(r)
	if origin == "" {
		return nil, app_error.Denied(http.StatusForbidden, "origin missing")
	}

	originHost, appErr := h.repo.FindHostByDomain(ctx, origin)
	if appErr != nil {
		if ctx.Err() != nil {
			return nil, app_error.Denied(http.StatusServiceUnavailable, "handshake timed out")
		}
		return nil, app_error.Denied(http.StatusForbidden, "origin not registered")
	}
	if originHost.ID != room.HostID {
		return nil, app_error.Denied(http.StatusForbidden, "guest origin mismatch")
	}

	if room.IsClosed {
		if appErr := h.rooms.Reopen(ctx, room, "guest:"+room.Guest); appErr != nil {
			return nil, app_error.Denied(http.StatusInternalServerError, "failed to reopen chatroom")
		}
	}

	return &Session{
		UserType:  GuestUser,
		Host:      &room.Host,
		Room:      room,
		GroupKey:  hotcache.ChatKey(room.Name),
		RequestID: requestID(r),
	}, nil
}

// pushBacklog delivers the newest cached entries to a freshly joined
// connection as one batched frame, oldest-first.
func (h *ChatHandler) pushBacklog(c *Client) {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	events, err := h.cache.Range(ctx, c.Session.GroupKey, now.Add(-h.cfg.BacklogWindow), now, h.cfg.BacklogLimit, true)
	if err != nil {
		log.Warn().Err(err).Str("room", c.Session.Room.Name).Msg("ws: backlog read failed")
		return
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	h.sendBatch(c, events)
}

func (h *ChatHandler) receive(c *Client, raw []byte) {
	var frame event.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.CloseWithCode(app_error.CloseProtocolError, "malformed frame")
		return
	}
	observability.IncWSEvent("chat", frame.Type)

	switch event.ParseKind(frame.Type) {
	case event.KindChatMessage:
		h.handleChatMessage(c, frame)
	case event.KindRequest:
		h.handleRequest(c, frame)
	case event.KindNotice:
		h.handleNotice(c, frame)
	default:
		c.CloseWithCode(app_error.CloseProtocolError, "unknown event type")
	}
}

func (h *ChatHandler) handleChatMessage(c *Client, frame event.Frame) {
	env := event.Envelope{
		Type:    event.TypeChatMessage,
		Message: frame.Message,
		// Origin is always derived from the session, never the frame.
		IsHost:    c.Session.IsHost(),
		Timestamp: frame.Timestamp,
	}

	if err := env.Validate(h.cfg.MaxMessageLen); err != nil {
		log.Warn().Err(err).Str("room", c.Session.Room.Name).Msg("ws: invalid chat message")
		c.CloseWithCode(app_error.CloseProtocolError, "invalid chat message")
		return
	}

	// The hot cache is the source of truth for live delivery: a failed
	// append aborts this message for the sender only.
	stored, err := h.rooms.AppendMessage(c.ctx, c.Session.Room, env)
	if err != nil {
		log.Error().Err(err).Str("room", c.Session.Room.Name).Msg("ws: hot cache append failed")
		c.CloseWithCode(app_error.CloseProtocolError, "message write failed")
		return
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		c.CloseWithCode(app_error.CloseProtocolError, "message encode failed")
		return
	}
	h.hub.Broadcast(c.Session.GroupKey, payload, ToAll)

	// Durable flush rides the worker queue; fan-out never waits on it.
	job := queue.NewPersistMessageJob(c.Session.Room.ID, stored)
	if err := h.producer.Enqueue(context.Background(), job); err != nil {
		log.Warn().Err(err).Str("room", c.Session.Room.Name).Msg("ws: failed to enqueue persist job")
	}
}

func (h *ChatHandler) handleRequest(c *Client, frame event.Frame) {
	ceiling := time.Now()
	if frame.Message != "" {
		cursor, err := event.ParseTimestamp(frame.Message)
		if err != nil {
			c.CloseWithCode(app_error.CloseProtocolError, "invalid cursor timestamp")
			return
		}
		ceiling = cursor.Add(-time.Millisecond)
	}
	floor := ceiling.Add(-h.cfg.BacklogWindow)

	events, err := h.cache.Range(c.ctx, c.Session.GroupKey, floor, ceiling, h.cfg.BacklogLimit, true)
	if err != nil {
		log.Error().Err(err).Str("room", c.Session.Room.Name).Msg("ws: backlog replay failed")
		c.CloseWithCode(app_error.CloseProtocolError, "history read failed")
		return
	}

	// Replays go only to the requester, never the whole room.
	h.sendBatch(c, events)
}

func (h *ChatHandler) handleNotice(c *Client, frame event.Frame) {
	if frame.Message != "close" {
		c.CloseWithCode(app_error.CloseProtocolError, "unsupported notice")
		return
	}
	if !c.Session.IsHost() {
		c.CloseWithCode(app_error.CloseForbidden, "only the host may close a chatroom")
		return
	}

	// The close transition outlives this connection; a guest dropping off
	// mid-close must not cancel it.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if appErr := h.rooms.Close(ctx, c.Session.Room); appErr != nil {
		log.Error().Err(appErr).Str("room", c.Session.Room.Name).Msg("ws: chatroom close failed")
		c.CloseWithCode(app_error.CloseProtocolError, "close failed")
		return
	}

	notice := event.Envelope{
		Type:      event.TypeNotice,
		Message:   "closed",
		IsHost:    true,
		Timestamp: event.FormatTimestamp(time.Now()),
	}
	if payload, err := json.Marshal(notice); err == nil {
		h.hub.Broadcast(c.Session.GroupKey, payload, ToAll)
	}

	h.hub.CloseGroup(c.Session.GroupKey, app_error.CloseNormal, "chatroom closed")
}

// disconnect runs on every read-pump exit regardless of cause. Flush is
// best-effort: errors are logged, never propagated.
func (h *ChatHandler) disconnect(c *Client) {
	h.hub.Leave(c.Session.GroupKey, c)
	observability.ConnClosed("chat")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.rooms.FlushLatest(ctx, c.Session.Room, c.Session.IsHost()); err != nil {
		log.Warn().Err(err).Str("room", c.Session.Room.Name).Msg("ws: latest message flush failed on disconnect")
	}
}

func (h *ChatHandler) sendBatch(c *Client, events []event.Envelope) {
	batch := event.Batch{Type: event.TypeChatMessage, Data: events}
	data, err := json.Marshal(batch)
	if err != nil {
		return
	}
	if !c.Enqueue(data) {
		log.Warn().Str("clientID", c.ID).Msg("ws: backlog frame dropped")
	}
}

func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
