package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PI304/PinTalk-API/internal/entity"
	"github.com/PI304/PinTalk-API/internal/event"
	"github.com/PI304/PinTalk-API/internal/queue"
)

func (wp *WorkerPool) handleJob(ctx context.Context, job queue.Job) error {
	switch job.Type {
	case queue.TypePersistMessage:
		return wp.persistMessage(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// persistMessage writes one chat message to the durable store. The hot
// cache already delivered it; this only has to land eventually.
func (wp *WorkerPool) persistMessage(ctx context.Context, job queue.Job) error {
	var payload queue.PersistMessagePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid persist_message payload: %w", err)
	}

	at, err := event.ParseTimestamp(payload.Message.Timestamp)
	if err != nil {
		return err
	}

	msg := &entity.ChatMessage{
		ChatroomID: payload.ChatroomID,
		Message:    payload.Message.Message,
		IsHost:     payload.Message.IsHost,
		Datetime:   at,
	}

	if appErr := wp.repo.InsertMessage(ctx, msg); appErr != nil {
		return appErr
	}
	return nil
}
