package chatroom_repo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/PI304/PinTalk-API/internal/entity"
	app_error "github.com/PI304/PinTalk-API/internal/errors"
	"github.com/PI304/PinTalk-API/state"
)

type ChatroomRepo struct {
	AppState *state.AppState
}

func NewChatroomRepo(appState *state.AppState) ChatroomRepoContract {
	return &ChatroomRepo{
		AppState: appState,
	}
}

func (r *ChatroomRepo) FindRoomByName(ctx context.Context, name string) (*entity.Chatroom, *app_error.AppError) {
	var room entity.Chatroom
	if err := r.AppState.DB.WithContext(ctx).Preload("Host").Where("name = ?", name).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "chatroom not found", "not-found")
		}
		log.Error().Err(err).Str("room", name).Msg("failed to fetch chatroom")
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch chatroom", "db-error")
	}
	return &room, nil
}

func (r *ChatroomRepo) FindRoomByGuest(ctx context.Context, hostID uuid.UUID, guest string) (*entity.Chatroom, *app_error.AppError) {
	var room entity.Chatroom
	err := r.AppState.DB.WithContext(ctx).Preload("Host").
		Where("host_id = ? AND guest = ?", hostID, guest).
		Order("created_at DESC").
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "no previous chatroom record", "not-found")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch chatroom", "db-error")
	}
	return &room, nil
}

func (r *ChatroomRepo) ListRoomsByAccessKey(ctx context.Context, accessKey string) ([]entity.Chatroom, *app_error.AppError) {
	var rooms []entity.Chatroom
	err := r.AppState.DB.WithContext(ctx).
		Joins("Host").
		Where("\"Host\".access_key = ?", accessKey).
		Order("latest_msg_at DESC NULLS LAST").
		Find(&rooms).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to list chatrooms", "db-error")
	}
	return rooms, nil
}

func (r *ChatroomRepo) CreateRoom(ctx context.Context, room *entity.Chatroom) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(room).Error; err != nil {
		log.Error().Err(err).Msg("failed to create chatroom")
		return app_error.NewAppError(http.StatusInternalServerError, "failed to create chatroom", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) SetClosed(ctx context.Context, roomID int64, closed bool, closedAt *time.Time) *app_error.AppError {
	updates := map[string]any{
		"is_closed":  closed,
		"closed_at":  closedAt,
		"updated_at": time.Now(),
	}
	if err := r.AppState.DB.WithContext(ctx).Model(&entity.Chatroom{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to update chatroom state", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) SetPinned(ctx context.Context, roomID int64, pinned bool, fixedAt *time.Time) *app_error.AppError {
	updates := map[string]any{
		"is_fixed":   pinned,
		"fixed_at":   fixedAt,
		"updated_at": time.Now(),
	}
	if err := r.AppState.DB.WithContext(ctx).Model(&entity.Chatroom{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to update chatroom pin", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) CountPinned(ctx context.Context, hostID uuid.UUID) (int64, *app_error.AppError) {
	var count int64
	err := r.AppState.DB.WithContext(ctx).Model(&entity.Chatroom{}).
		Where("host_id = ? AND is_fixed = ?", hostID, true).
		Count(&count).Error
	if err != nil {
		return 0, app_error.NewAppError(http.StatusInternalServerError, "failed to count pinned chatrooms", "db-error")
	}
	return count, nil
}

// SaveLatestMessage refreshes the room's denormalized latest-message cache.
// refreshChecked additionally bumps last_checked_at, which only the host
// side of a disconnect does.
func (r *ChatroomRepo) SaveLatestMessage(ctx context.Context, roomID int64, msg string, at time.Time, refreshChecked bool) *app_error.AppError {
	updates := map[string]any{
		"latest_msg":    msg,
		"latest_msg_at": at,
		"updated_at":    time.Now(),
	}
	if refreshChecked {
		updates["last_checked_at"] = time.Now()
	}

	if err := r.AppState.DB.WithContext(ctx).Model(&entity.Chatroom{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to save latest message", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) DeleteRoom(ctx context.Context, roomID int64) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Delete(&entity.Chatroom{}, roomID).Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to delete chatroom", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) InsertMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Error().Err(err).Int64("chatroomID", msg.ChatroomID).Msg("failed to insert chat message")
		return app_error.NewAppError(http.StatusInternalServerError, "failed to insert chat message", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) ListMessages(ctx context.Context, roomID int64) ([]entity.ChatMessage, *app_error.AppError) {
	var messages []entity.ChatMessage
	err := r.AppState.DB.WithContext(ctx).
		Where("chatroom_id = ?", roomID).
		Order("datetime ASC").
		Find(&messages).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to list chat messages", "db-error")
	}
	return messages, nil
}

func (r *ChatroomRepo) DeleteRoomMessages(ctx context.Context, roomID int64) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Where("chatroom_id = ?", roomID).Delete(&entity.ChatMessage{}).Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to delete chat messages", "db-error")
	}
	return nil
}

func (r *ChatroomRepo) FindHostByID(ctx context.Context, id uuid.UUID) (*entity.Host, *app_error.AppError) {
	var host entity.Host
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", id).First(&host).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "host not found", "not-found")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch host", "db-error")
	}
	return &host, nil
}

func (r *ChatroomRepo) FindHostByDomain(ctx context.Context, domain string) (*entity.Host, *app_error.AppError) {
	var host entity.Host
	if err := r.AppState.DB.WithContext(ctx).Where("service_domain = ?", domain).First(&host).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "origin not registered", "not-found")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch host", "db-error")
	}
	return &host, nil
}

func (r *ChatroomRepo) FindHostByKeys(ctx context.Context, accessKey, secretKey string) (*entity.Host, *app_error.AppError) {
	var host entity.Host
	err := r.AppState.DB.WithContext(ctx).
		Where("access_key = ? AND secret_key = ?", accessKey, secretKey).
		First(&host).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusUnauthorized, "host not registered", "not-authenticated")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch host", "db-error")
	}
	return &host, nil
}
