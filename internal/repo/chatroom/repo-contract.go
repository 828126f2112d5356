package chatroom_repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PI304/PinTalk-API/internal/entity"
	app_error "github.com/PI304/PinTalk-API/internal/errors"
)

type ChatroomRepoContract interface {
	FindRoomByName(ctx context.Context, name string) (*entity.Chatroom, *app_error.AppError)
	FindRoomByGuest(ctx context.Context, hostID uuid.UUID, guest string) (*entity.Chatroom, *app_error.AppError)
	ListRoomsByAccessKey(ctx context.Context, accessKey string) ([]entity.Chatroom, *app_error.AppError)
	CreateRoom(ctx context.Context, room *entity.Chatroom) *app_error.AppError
	SetClosed(ctx context.Context, roomID int64, closed bool, closedAt *time.Time) *app_error.AppError
	SetPinned(ctx context.Context, roomID int64, pinned bool, fixedAt *time.Time) *app_error.AppError
	CountPinned(ctx context.Context, hostID uuid.UUID) (int64, *app_error.AppError)
	SaveLatestMessage(ctx context.Context, roomID int64, msg string, at time.Time, refreshChecked bool) *app_error.AppError
	DeleteRoom(ctx context.Context, roomID int64) *app_error.AppError

	InsertMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError
	ListMessages(ctx context.Context, roomID int64) ([]entity.ChatMessage, *app_error.AppError)
	DeleteRoomMessages(ctx context.Context, roomID int64) *app_error.AppError

	FindHostByID(ctx context.Context, id uuid.UUID) (*entity.Host, *app_error.AppError)
	FindHostByDomain(ctx context.Context, domain string) (*entity.Host, *app_error.AppError)
	FindHostByKeys(ctx context.Context, accessKey, secretKey string) (*entity.Host, *app_error.AppError)
}
