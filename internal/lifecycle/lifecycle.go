package lifecycle

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PI304/PinTalk-API/internal/entity"
	app_error "github.com/PI304/PinTalk-API/internal/errors"
	"github.com/PI304/PinTalk-API/internal/event"
	"github.com/PI304/PinTalk-API/internal/hotcache"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
)

// Manager owns every chatroom state transition: OPEN <-> CLOSED plus the
// one-way CLOSED -> deleted. Both the socket path and the HTTP endpoints
// go through it, so room state mutates in exactly one place.
//
// Appends and close() share a per-room mutex: the flush-latest-then-clear
// sequence inside Close must not interleave with a message append to the
// same room, or the wiped cache could be resurrected.
type Manager struct {
	repo  chatroom_repo.ChatroomRepoContract
	cache *hotcache.Store

	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

func NewManager(repo chatroom_repo.ChatroomRepoContract, cache *hotcache.Store) *Manager {
	return &Manager{
		repo:  repo,
		cache: cache,
		rooms: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) roomLock(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.rooms[name]
	if !ok {
		lock = &sync.Mutex{}
		m.rooms[name] = lock
	}
	return lock
}

func (m *Manager) GetRoom(ctx context.Context, name string) (*entity.Chatroom, *app_error.AppError) {
	return m.repo.FindRoomByName(ctx, name)
}

// AppendMessage writes a chat message into the room's hot cache. Serialized
// against Close for the same room; distinct rooms never contend.
func (m *Manager) AppendMessage(ctx context.Context, room *entity.Chatroom, env event.Envelope) (event.Envelope, error) {
	lock := m.roomLock(room.Name)
	lock.Lock()
	defer lock.Unlock()

	return m.cache.Append(ctx, hotcache.ChatKey(room.Name), env)
}

// Reopen transitions CLOSED -> OPEN. actor records who triggered it: the
// implicit guest-reconnect path and the explicit resume endpoint both land
// here and both leave an audit trail.
func (m *Manager) Reopen(ctx context.Context, room *entity.Chatroom, actor string) *app_error.AppError {
	lock := m.roomLock(room.Name)
	lock.Lock()
	defer lock.Unlock()

	if !room.IsClosed {
		return app_error.NewAppError(http.StatusConflict, "chatroom is not closed", "room-state")
	}

	if err := m.repo.SetClosed(ctx, room.ID, false, nil); err != nil {
		return err
	}
	room.IsClosed = false
	room.ClosedAt = nil

	log.Info().Str("room", room.Name).Str("actor", actor).Msg("chatroom reopened")
	return nil
}

// Close transitions OPEN -> CLOSED: flush the latest cached message into
// the room row, mark it closed, then wipe the hot cache. History is served
// from the durable store afterwards.
func (m *Manager) Close(ctx context.Context, room *entity.Chatroom) *app_error.AppError {
	lock := m.roomLock(room.Name)
	lock.Lock()
	defer lock.Unlock()

	if room.IsClosed {
		return app_error.NewAppError(http.StatusConflict, "chatroom is already closed", "room-state")
	}

	if err := m.flushLatest(ctx, room, false); err != nil {
		log.Warn().Err(err).Str("room", room.Name).Msg("latest message flush failed during close")
	}

	now := time.Now()
	if err := m.repo.SetClosed(ctx, room.ID, true, &now); err != nil {
		return err
	}
	room.IsClosed = true
	room.ClosedAt = &now

	if err := m.cache.Clear(ctx, hotcache.ChatKey(room.Name)); err != nil {
		log.Error().Err(err).Str("room", room.Name).Msg("failed to clear hot cache on close")
	}

	log.Info().Str("room", room.Name).Msg("chatroom closed")
	return nil
}

// Delete destroys a CLOSED room: cached entries, persisted messages, then
// the room row itself. Irreversible.
func (m *Manager) Delete(ctx context.Context, room *entity.Chatroom) *app_error.AppError {
	lock := m.roomLock(room.Name)
	lock.Lock()
	defer lock.Unlock()

	if !room.IsClosed {
		return app_error.NewAppError(http.StatusConflict, "chatroom must be closed before deletion", "room-state")
	}

	if err := m.cache.Delete(ctx, hotcache.ChatKey(room.Name)); err != nil {
		log.Error().Err(err).Str("room", room.Name).Msg("failed to delete hot cache namespace")
	}
	if err := m.repo.DeleteRoomMessages(ctx, room.ID); err != nil {
		return err
	}
	if err := m.repo.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}

	log.Info().Str("room", room.Name).Msg("chatroom deleted")
	return nil
}

// FlushLatest is the disconnect-time flush: best effort, the caller logs
// and moves on. fromHost additionally refreshes last_checked_at.
func (m *Manager) FlushLatest(ctx context.Context, room *entity.Chatroom, fromHost bool) error {
	return m.flushLatest(ctx, room, fromHost)
}

func (m *Manager) flushLatest(ctx context.Context, room *entity.Chatroom, fromHost bool) error {
	latest, err := m.cache.Latest(ctx, hotcache.ChatKey(room.Name))
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	at, err := event.ParseTimestamp(latest.Timestamp)
	if err != nil {
		return err
	}

	if appErr := m.repo.SaveLatestMessage(ctx, room.ID, latest.Message, at, fromHost); appErr != nil {
		return appErr
	}
	return nil
}
