package lifecycle

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PI304/PinTalk-API/internal/entity"
	"github.com/PI304/PinTalk-API/internal/event"
	"github.com/PI304/PinTalk-API/internal/hotcache"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
	"github.com/PI304/PinTalk-API/state"
)

type testEnv struct {
	manager *Manager
	repo    chatroom_repo.ChatroomRepoContract
	cache   *hotcache.Store
	db      *gorm.DB
	host    *entity.Host
	room    *entity.Chatroom
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Host{}, &entity.Chatroom{}, &entity.ChatMessage{}))

	mockRedis := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { client.Close() })

	host := &entity.Host{
		ID:            uuid.New(),
		Email:         "owner@example.com",
		ProfileName:   "Owner",
		ServiceName:   "Example Shop",
		ServiceDomain: "shop.example.com",
		AccessKey:     "accesskey0000000000000",
		SecretKey:     "secret",
	}
	require.NoError(t, db.Create(host).Error)

	room := &entity.Chatroom{Name: "testroom00000000000000", HostID: host.ID, Guest: "visitor"}
	require.NoError(t, db.Create(room).Error)
	room.Host = *host

	repo := chatroom_repo.NewChatroomRepo(&state.AppState{DB: db})
	cache := hotcache.NewStore(client)

	return &testEnv{
		manager: NewManager(repo, cache),
		repo:    repo,
		cache:   cache,
		db:      db,
		host:    host,
		room:    room,
	}
}

func (e *testEnv) appendChat(t *testing.T, msg string, at time.Time, fromHost bool) {
	t.Helper()
	env := event.Envelope{
		Type:      event.TypeChatMessage,
		Message:   msg,
		IsHost:    fromHost,
		Timestamp: event.FormatTimestamp(at),
	}
	_, err := e.manager.AppendMessage(context.Background(), e.room, env)
	require.NoError(t, err)
}

func TestManager_CloseFlushesAndClearsCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	env.appendChat(t, "hello", base, false)
	env.appendChat(t, "goodbye", base.Add(time.Second), false)

	require.Nil(t, env.manager.Close(ctx, env.room))

	found, appErr := env.repo.FindRoomByName(ctx, env.room.Name)
	require.Nil(t, appErr)
	assert.True(t, found.IsClosed)
	assert.NotNil(t, found.ClosedAt)
	assert.Equal(t, "goodbye", found.LatestMsg, "the newest cached message lands in the room row")

	cached, err := env.cache.All(ctx, hotcache.ChatKey(env.room.Name))
	require.NoError(t, err)
	assert.Empty(t, cached, "close wipes the hot cache")
}

func TestManager_CloseTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.Nil(t, env.manager.Close(ctx, env.room))

	appErr := env.manager.Close(ctx, env.room)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestManager_ReopenRequiresClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	appErr := env.manager.Reopen(ctx, env.room, "guest:visitor")
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)

	require.Nil(t, env.manager.Close(ctx, env.room))
	require.Nil(t, env.manager.Reopen(ctx, env.room, "guest:visitor"))

	found, findErr := env.repo.FindRoomByName(ctx, env.room.Name)
	require.Nil(t, findErr)
	assert.False(t, found.IsClosed)
	assert.Nil(t, found.ClosedAt)
}

func TestManager_CloseReopenCycle_OneFlushPerClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	env.appendChat(t, "first round", base, false)
	require.Nil(t, env.manager.Close(ctx, env.room))
	require.Nil(t, env.manager.Reopen(ctx, env.room, "guest:visitor"))

	// Second close finds an empty cache: the flush has nothing to do and
	// the room row keeps the previous latest message.
	require.Nil(t, env.manager.Close(ctx, env.room))

	found, appErr := env.repo.FindRoomByName(ctx, env.room.Name)
	require.Nil(t, appErr)
	assert.Equal(t, "first round", found.LatestMsg)
}

func TestManager_SequenceSurvivesReopen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	env.appendChat(t, "before close", base, false)
	require.Nil(t, env.manager.Close(ctx, env.room))
	require.Nil(t, env.manager.Reopen(ctx, env.room, "guest:visitor"))

	stored, err := env.manager.AppendMessage(ctx, env.room, event.Envelope{
		Type:      event.TypeChatMessage,
		Message:   "after reopen",
		Timestamp: event.FormatTimestamp(base.Add(time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Seq, "a reopened room continues its sequence")
}

func TestManager_DeleteRequiresClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	appErr := env.manager.Delete(ctx, env.room)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestManager_DeleteRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	env.appendChat(t, "hello", base, false)
	require.Nil(t, env.repo.InsertMessage(ctx, &entity.ChatMessage{
		ChatroomID: env.room.ID, Message: "hello", Datetime: base,
	}))

	require.Nil(t, env.manager.Close(ctx, env.room))
	require.Nil(t, env.manager.Delete(ctx, env.room))

	_, appErr := env.repo.FindRoomByName(ctx, env.room.Name)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	messages, listErr := env.repo.ListMessages(ctx, env.room.ID)
	require.Nil(t, listErr)
	assert.Empty(t, messages)
}

func TestManager_FlushLatest_HostRefreshesChecked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	env.appendChat(t, "latest words", base, true)

	require.NoError(t, env.manager.FlushLatest(ctx, env.room, true))

	found, appErr := env.repo.FindRoomByName(ctx, env.room.Name)
	require.Nil(t, appErr)
	assert.Equal(t, "latest words", found.LatestMsg)
	assert.NotNil(t, found.LastCheckedAt)
}

func TestManager_FlushLatest_EmptyCacheIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.manager.FlushLatest(ctx, env.room, false))

	found, appErr := env.repo.FindRoomByName(ctx, env.room.Name)
	require.Nil(t, appErr)
	assert.Empty(t, found.LatestMsg)
	assert.Nil(t, found.LatestMsgAt)
}
