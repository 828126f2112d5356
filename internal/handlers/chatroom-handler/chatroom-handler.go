package chatroom_handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/PI304/PinTalk-API/internal/dtos/chatroom_dto"
	"github.com/PI304/PinTalk-API/internal/entity"
	app_error "github.com/PI304/PinTalk-API/internal/errors"
	"github.com/PI304/PinTalk-API/internal/event"
	"github.com/PI304/PinTalk-API/internal/handlers"
	"github.com/PI304/PinTalk-API/internal/hotcache"
	"github.com/PI304/PinTalk-API/internal/lifecycle"
	"github.com/PI304/PinTalk-API/internal/middleware"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
	"github.com/PI304/PinTalk-API/internal/websocket"
	"github.com/PI304/PinTalk-API/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ChatroomHandler struct {
	State    *state.AppState
	Repo     chatroom_repo.ChatroomRepoContract
	Rooms    *lifecycle.Manager
	Hub      *websocket.Hub
	Validate *validator.Validate
	PinLimit int64
}

func NewChatroomHandler(st *state.AppState, repo chatroom_repo.ChatroomRepoContract, rooms *lifecycle.Manager, hub *websocket.Hub, pinLimit int64) *ChatroomHandler {
	return &ChatroomHandler{
		State:    st,
		Repo:     repo,
		Rooms:    rooms,
		Hub:      hub,
		Validate: validator.New(),
		PinLimit: pinLimit,
	}
}

// newRoomName packs a fresh uuid into 22 url-safe characters. Names are
// generated here, never accepted from clients.
func newRoomName() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

func (h *ChatroomHandler) CreateChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chatroom_dto.CreateChatroomRequest
	defer r.Body.Close()

	host := middleware.HostFromContext(r.Context())
	if host == nil {
		return app_error.NewAppError(http.StatusUnauthorized, "Missing host credentials", "auth")
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	room := &entity.Chatroom{
		Name:   newRoomName(),
		HostID: host.ID,
		Guest:  req.Guest,
	}
	if appErr := h.Repo.CreateRoom(r.Context(), room); appErr != nil {
		return appErr
	}

	log.Info().Str("room", room.Name).Str("guest", room.Guest).Msg("chatroom created")
	writeResponse(w, r, http.StatusCreated, "chatroom created", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) ListChatrooms(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	accessKey := chi.URLParam(r, "accessKey")

	host := middleware.HostFromContext(r.Context())
	if host == nil || host.AccessKey != accessKey {
		return app_error.NewAppError(http.StatusForbidden, "Access key does not match credentials", "accessKey")
	}

	rooms, appErr := h.Repo.ListRoomsByAccessKey(r.Context(), accessKey)
	if appErr != nil {
		return appErr
	}

	writeResponse(w, r, http.StatusOK, "chatroom list", chatroom_dto.FromEntities(rooms))
	return nil
}

// FindByGuest serves guest re-entry: the widget remembers the guest name
// and asks for the room it belongs to.
func (h *ChatroomHandler) FindByGuest(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	guest := chi.URLParam(r, "guest")

	host := middleware.HostFromContext(r.Context())
	if host == nil {
		return app_error.NewAppError(http.StatusUnauthorized, "Missing host credentials", "auth")
	}

	room, appErr := h.Repo.FindRoomByGuest(r.Context(), host.ID, guest)
	if appErr != nil {
		return appErr
	}

	writeResponse(w, r, http.StatusOK, "chatroom found", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) ResumeChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	room, host, appErr := h.ownedRoom(r)
	if appErr != nil {
		return appErr
	}

	if !room.IsClosed {
		return app_error.NewAppError(http.StatusConflict, "Chatroom is not closed", "roomName")
	}
	if appErr := h.Rooms.Reopen(r.Context(), room, "host:"+host.AccessKey); appErr != nil {
		return appErr
	}

	writeResponse(w, r, http.StatusOK, "chatroom resumed", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) CloseChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	room, _, appErr := h.ownedRoom(r)
	if appErr != nil {
		return appErr
	}

	if appErr := h.Rooms.Close(r.Context(), room); appErr != nil {
		return appErr
	}

	// Mirror the in-session close: notify live members, then drop them.
	key := hotcache.ChatKey(room.Name)
	notice := event.Envelope{
		Type:      event.TypeNotice,
		Message:   "closed",
		IsHost:    true,
		Timestamp: event.FormatTimestamp(time.Now()),
	}
	if payload, err := json.Marshal(notice); err == nil {
		h.Hub.Broadcast(key, payload, websocket.ToAll)
	}
	h.Hub.CloseGroup(key, app_error.CloseNormal, "chatroom closed")

	writeResponse(w, r, http.StatusOK, "chatroom closed", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) DeleteChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	room, _, appErr := h.ownedRoom(r)
	if appErr != nil {
		return appErr
	}

	if appErr := h.Rooms.Delete(r.Context(), room); appErr != nil {
		return appErr
	}

	writeResponse(w, r, http.StatusOK, "chatroom deleted", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) PinChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	room, host, appErr := h.ownedRoom(r)
	if appErr != nil {
		return appErr
	}

	if !room.IsFixed {
		pinned, appErr := h.Repo.CountPinned(r.Context(), host.ID)
		if appErr != nil {
			return appErr
		}
		if pinned >= h.PinLimit {
			return app_error.NewAppError(http.StatusConflict, "Pinned chatroom limit reached", "is_fixed")
		}
	}

	now := time.Now()
	if appErr := h.Repo.SetPinned(r.Context(), room.ID, true, &now); appErr != nil {
		return appErr
	}
	room.IsFixed = true
	room.FixedAt = &now

	writeResponse(w, r, http.StatusOK, "chatroom pinned", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) UnpinChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	room, _, appErr := h.ownedRoom(r)
	if appErr != nil {
		return appErr
	}

	if appErr := h.Repo.SetPinned(r.Context(), room.ID, false, nil); appErr != nil {
		return appErr
	}
	room.IsFixed = false
	room.FixedAt = nil

	writeResponse(w, r, http.StatusOK, "chatroom unpinned", chatroom_dto.FromEntity(room))
	return nil
}

func (h *ChatroomHandler) ExportChatroom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	room, _, appErr := h.ownedRoom(r)
	if appErr != nil {
		return appErr
	}

	transcript, appErr := h.Rooms.Export(r.Context(), room)
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", room.Name+".txt"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(transcript))
	return nil
}

func (h *ChatroomHandler) Health(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	writeResponse(w, r, http.StatusOK, "ok", map[string]string{"status": "up"})
	return nil
}

// ownedRoom resolves the route's room and checks it belongs to the
// authenticated host.
func (h *ChatroomHandler) ownedRoom(r *http.Request) (*entity.Chatroom, *entity.Host, *app_error.AppError) {
	host := middleware.HostFromContext(r.Context())
	if host == nil {
		return nil, nil, app_error.NewAppError(http.StatusUnauthorized, "Missing host credentials", "auth")
	}

	roomName := chi.URLParam(r, "roomName")
	room, appErr := h.Rooms.GetRoom(r.Context(), roomName)
	if appErr != nil {
		return nil, nil, appErr
	}
	if room.HostID != host.ID {
		return nil, nil, app_error.NewAppError(http.StatusForbidden, "Not the host of this chatroom", "roomName")
	}
	return room, host, nil
}

func writeResponse[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(handlers.CreateResponse(message, data, reqID))
}
