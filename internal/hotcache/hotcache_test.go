package hotcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PI304/PinTalk-API/internal/event"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mockRedis := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client)
}

func chatEnvelope(msg string, at time.Time) event.Envelope {
	return event.Envelope{
		Type:      event.TypeChatMessage,
		Message:   msg,
		Timestamp: event.FormatTimestamp(at),
	}
}

func TestStore_AppendAssignsSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Append(ctx, "chat_room1", chatEnvelope("one", time.Now()))
	require.NoError(t, err)
	second, err := store.Append(ctx, "chat_room1", chatEnvelope("two", time.Now()))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
}

func TestStore_SameMillisecondAppendsAreKept(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Same timestamp on every entry: without the sequence tie-break these
	// would collapse or reorder arbitrarily.
	at := time.Date(2026, 8, 30, 12, 0, 0, 500_000_000, time.UTC)
	for i := 0; i < 10; i++ {
		_, err := store.Append(ctx, "chat_burst", chatEnvelope(fmt.Sprintf("msg-%d", i), at))
		require.NoError(t, err)
	}

	events, err := store.All(ctx, "chat_burst")
	require.NoError(t, err)
	require.Len(t, events, 10, "no entry may overwrite another")

	for i, env := range events {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), env.Message, "append order should be preserved")
	}
}

func TestStore_RangeNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, "chat_room1", chatEnvelope(fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	events, err := store.Range(ctx, "chat_room1", base.Add(-time.Hour), base.Add(time.Hour), 3, true)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "msg-4", events[0].Message)
	assert.Equal(t, "msg-3", events[1].Message)
	assert.Equal(t, "msg-2", events[2].Message)
}

func TestStore_RangeCeilingExcludesNewerEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, "chat_room1", chatEnvelope(fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	// Ceiling sits just below msg-3's timestamp, mirroring the cursor
	// arithmetic of a history request.
	ceiling := base.Add(3*time.Second - time.Millisecond)
	events, err := store.Range(ctx, "chat_room1", base.Add(-time.Hour), ceiling, 50, true)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "msg-2", events[0].Message)
	assert.Equal(t, "msg-0", events[2].Message)
}

func TestStore_Latest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	latest, err := store.Latest(ctx, "chat_empty")
	require.NoError(t, err)
	assert.Nil(t, latest, "empty key should yield nil, not an error")

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_, err = store.Append(ctx, "chat_room1", chatEnvelope("older", base))
	require.NoError(t, err)
	_, err = store.Append(ctx, "chat_room1", chatEnvelope("newer", base.Add(time.Second)))
	require.NoError(t, err)

	latest, err = store.Latest(ctx, "chat_room1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "newer", latest.Message)
}

func TestStore_ClearKeepsSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "chat_room1", chatEnvelope("one", time.Now()))
	require.NoError(t, err)
	_, err = store.Append(ctx, "chat_room1", chatEnvelope("two", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "chat_room1"))

	events, err := store.All(ctx, "chat_room1")
	require.NoError(t, err)
	assert.Empty(t, events)

	// A reopened room continues the sequence instead of restarting it.
	next, err := store.Append(ctx, "chat_room1", chatEnvelope("three", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.Seq)
}

func TestStore_DeleteDropsSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "chat_room1", chatEnvelope("one", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "chat_room1"))

	next, err := store.Append(ctx, "chat_room1", chatEnvelope("fresh", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.Seq, "deletion resets the sequence counter")
}

func TestStore_UpdateKeepsSingleSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env := event.Envelope{
				Type:      event.TypeNotice,
				Message:   "online",
				IsHost:    true,
				Timestamp: event.FormatTimestamp(time.Now()),
			}
			_, err := store.Update(ctx, "status_host1", env)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	events, err := store.All(ctx, "status_host1")
	require.NoError(t, err)
	assert.Len(t, events, 1, "presence is a single slot regardless of concurrent updates")
}
