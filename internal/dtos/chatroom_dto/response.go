package chatroom_dto

import (
	"time"

	"github.com/PI304/PinTalk-API/internal/entity"
)

type ChatroomResponse struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Guest         string     `json:"guest"`
	LatestMsg     string     `json:"latest_msg"`
	LatestMsgAt   *time.Time `json:"latest_msg_at"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	IsClosed      bool       `json:"is_closed"`
	ClosedAt      *time.Time `json:"closed_at"`
	IsFixed       bool       `json:"is_fixed"`
	FixedAt       *time.Time `json:"fixed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func FromEntity(room *entity.Chatroom) ChatroomResponse {
	return ChatroomResponse{
		ID:            room.ID,
		Name:          room.Name,
		Guest:         room.Guest,
		LatestMsg:     room.LatestMsg,
		LatestMsgAt:   room.LatestMsgAt,
		LastCheckedAt: room.LastCheckedAt,
		IsClosed:      room.IsClosed,
		ClosedAt:      room.ClosedAt,
		IsFixed:       room.IsFixed,
		FixedAt:       room.FixedAt,
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
	}
}

func FromEntities(rooms []entity.Chatroom) []ChatroomResponse {
	out := make([]ChatroomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, FromEntity(&rooms[i]))
	}
	return out
}
