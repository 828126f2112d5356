package hotcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PI304/PinTalk-API/internal/event"
)

// Store is the ordered transient log backing live delivery: one sorted set
// per routing key, members scored by append time. It is the authority for
// open-room reads; durable persistence trails behind it.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Append inserts an event under its timestamp-derived score. The per-key
// sequence counter is folded into both the score and the stored member so
// same-millisecond appends never silently overwrite each other.
func (s *Store) Append(ctx context.Context, key string, env event.Envelope) (event.Envelope, error) {
	ts, err := event.ParseTimestamp(env.Timestamp)
	if err != nil {
		return event.Envelope{}, err
	}

	seq, err := s.rdb.Incr(ctx, key+seqSuffix).Result()
	if err != nil {
		return event.Envelope{}, fmt.Errorf("hotcache: sequence for %s: %w", key, err)
	}
	env.Seq = seq

	member, err := json.Marshal(env)
	if err != nil {
		return event.Envelope{}, err
	}

	if err := s.rdb.ZAdd(ctx, key, redis.Z{
		Score:  score(ts, seq),
		Member: member,
	}).Err(); err != nil {
		return event.Envelope{}, fmt.Errorf("hotcache: append to %s: %w", key, err)
	}
	return env, nil
}

// Range returns events with scores inside [floor, ceiling], newest-first
// when desc is set, capped at limit.
func (s *Store) Range(ctx context.Context, key string, floor, ceiling time.Time, limit int64, desc bool) ([]event.Envelope, error) {
	by := &redis.ZRangeBy{
		Min:    strconv.FormatFloat(floorScore(floor), 'f', 0, 64),
		Max:    strconv.FormatFloat(ceilScore(ceiling), 'f', 0, 64),
		Offset: 0,
		Count:  limit,
	}

	var cmd *redis.StringSliceCmd
	if desc {
		cmd = s.rdb.ZRevRangeByScore(ctx, key, by)
	} else {
		cmd = s.rdb.ZRangeByScore(ctx, key, by)
	}

	members, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("hotcache: range on %s: %w", key, err)
	}
	return decodeMembers(members)
}

// Latest returns the single most recent event, or nil for an empty key.
func (s *Store) Latest(ctx context.Context, key string) (*event.Envelope, error) {
	members, err := s.rdb.ZRevRange(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("hotcache: latest on %s: %w", key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	var env event.Envelope
	if err := json.Unmarshal([]byte(members[0]), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// All returns the full log oldest-first. Used by the transcript export,
// not the live protocol.
func (s *Store) All(ctx context.Context, key string) ([]event.Envelope, error) {
	members, err := s.rdb.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("hotcache: scan on %s: %w", key, err)
	}
	return decodeMembers(members)
}

// Clear empties the log but keeps the key's sequence counter, so a
// reopened room continues its monotonic sequence.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.rdb.ZRemRangeByRank(ctx, key, 0, -1).Err(); err != nil {
		return fmt.Errorf("hotcache: clear %s: %w", key, err)
	}
	return nil
}

// Delete removes the log and its sequence counter entirely.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key, key+seqSuffix).Err(); err != nil {
		return fmt.Errorf("hotcache: delete %s: %w", key, err)
	}
	return nil
}

// Update overwrites the key with a single entry. Presence is a
// latest-value slot, not a log: delete plus append runs in one
// transactional pipeline so concurrent updates never leave two entries.
func (s *Store) Update(ctx context.Context, key string, env event.Envelope) (event.Envelope, error) {
	ts, err := event.ParseTimestamp(env.Timestamp)
	if err != nil {
		return event.Envelope{}, err
	}

	member, err := json.Marshal(env)
	if err != nil {
		return event.Envelope{}, err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: floorScore(ts), Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		return event.Envelope{}, fmt.Errorf("hotcache: update %s: %w", key, err)
	}
	return env, nil
}

func decodeMembers(members []string) ([]event.Envelope, error) {
	events := make([]event.Envelope, 0, len(members))
	for _, m := range members {
		var env event.Envelope
		if err := json.Unmarshal([]byte(m), &env); err != nil {
			return nil, err
		}
		events = append(events, env)
	}
	return events, nil
}
