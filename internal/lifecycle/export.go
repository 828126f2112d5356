package lifecycle

import (
	"context"
	"net/http"
	"strings"

	"github.com/PI304/PinTalk-API/internal/entity"
	app_error "github.com/PI304/PinTalk-API/internal/errors"
	"github.com/PI304/PinTalk-API/internal/event"
	"github.com/PI304/PinTalk-API/internal/hotcache"
)

// Export renders the full room history as plain text. Open rooms read the
// hot cache, closed rooms the durable store.
func (m *Manager) Export(ctx context.Context, room *entity.Chatroom) (string, *app_error.AppError) {
	var b strings.Builder

	if room.IsClosed {
		messages, appErr := m.repo.ListMessages(ctx, room.ID)
		if appErr != nil {
			return "", appErr
		}
		for _, msg := range messages {
			writeLine(&b, room, event.FormatTimestamp(msg.Datetime), msg.IsHost, msg.Message)
		}
		return b.String(), nil
	}

	events, err := m.cache.All(ctx, hotcache.ChatKey(room.Name))
	if err != nil {
		return "", app_error.NewAppError(http.StatusInternalServerError, "failed to read chat history", "hot-cache")
	}
	for _, env := range events {
		writeLine(&b, room, env.Timestamp, env.IsHost, env.Message)
	}
	return b.String(), nil
}

func writeLine(b *strings.Builder, room *entity.Chatroom, ts string, isHost bool, msg string) {
	speaker := room.Guest
	if isHost {
		speaker = room.Host.ProfileName
	}

	b.WriteString("[")
	b.WriteString(strings.Replace(ts, "T", " ", 1))
	b.WriteString(" ")
	b.WriteString(speaker)
	b.WriteString("] ")
	b.WriteString(msg)
	b.WriteString("\n")
}
