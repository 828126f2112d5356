package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PI304/PinTalk-API/internal/entity"
)

func TestExport_OpenRoomReadsHotCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	env.appendChat(t, "hello?", base, false)
	env.appendChat(t, "hi, how can I help?", base.Add(time.Second), true)

	transcript, appErr := env.manager.Export(ctx, env.room)
	require.Nil(t, appErr)

	expected := "[2026-08-30 12:00:00.000 visitor] hello?\n" +
		"[2026-08-30 12:00:01.000 Owner] hi, how can I help?\n"
	assert.Equal(t, expected, transcript)
}

func TestExport_ClosedRoomReadsDurableStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.Nil(t, env.repo.InsertMessage(ctx, &entity.ChatMessage{
		ChatroomID: env.room.ID, Message: "archived line", IsHost: false, Datetime: base,
	}))

	// The cached entry must be invisible once the room is closed.
	env.appendChat(t, "stale cache entry", base.Add(time.Minute), false)
	require.Nil(t, env.manager.Close(ctx, env.room))

	transcript, appErr := env.manager.Export(ctx, env.room)
	require.Nil(t, appErr)
	assert.Contains(t, transcript, "archived line")
	assert.NotContains(t, transcript, "stale cache entry")
}

func TestExport_EmptyRoom(t *testing.T) {
	env := newTestEnv(t)

	transcript, appErr := env.manager.Export(context.Background(), env.room)
	require.Nil(t, appErr)
	assert.Empty(t, transcript)
}
