package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/PI304/PinTalk-API/internal/event"
)

const (
	QueueKey = "persist_queue"
	DLQKey   = "persist_queue_dlq"

	TypePersistMessage = "persist_message"
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	CreatedAt int64           `json:"created_at"`
	ExpireAt  int64           `json:"expired_at"`
}

// PersistMessagePayload carries one hot-cache envelope to the durable
// store. The flush is asynchronous so a slow Postgres write never stalls
// fan-out to the room.
type PersistMessagePayload struct {
	ChatroomID int64          `json:"chatroom_id"`
	Message    event.Envelope `json:"message"`
}

func NewPersistMessageJob(chatroomID int64, env event.Envelope) Job {
	now := time.Now()
	return Job{
		ID:        uuid.NewString(),
		Type:      TypePersistMessage,
		Payload:   MustMarshal(PersistMessagePayload{ChatroomID: chatroomID, Message: env}),
		MaxRetry:  5,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(24 * time.Hour).Unix(),
	}
}

func MustMarshal(payload any) json.RawMessage {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}

	return b
}
