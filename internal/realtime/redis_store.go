package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTTL is the sliding expiry of a board's presence hash; it is a
// backstop for abandoned rooms, the disconnect reaper is the primary
// cleanup path.
const presenceTTL = time.Hour

// RedisStore implements Store against Redis: one hash per board for active
// users, one stream per board for the event log, one sorted set per
// (board, user) for history, and a pub/sub channel per board for mutations.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func presenceKey(boardID string) string {
	return "active:board:" + boardID
}

func eventsKey(boardID string) string {
	return "events:board:" + boardID
}

func historyKey(boardID, userID string) string {
	return fmt.Sprintf("history:%s:%s", boardID, userID)
}

func channelKey(boardID string) string {
	return fmt.Sprintf("board:%s:elements", boardID)
}

func (s *RedisStore) Upsert(ctx context.Context, boardID string, record PresenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, presenceKey(boardID), record.UserID, data)
	pipe.Expire(ctx, presenceKey(boardID), presenceTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Remove(ctx context.Context, boardID, userID string) error {
	return s.client.HDel(ctx, presenceKey(boardID), userID).Err()
}

func (s *RedisStore) Snapshot(ctx context.Context, boardID string) ([]PresenceRecord, error) {
	fields, err := s.client.HGetAll(ctx, presenceKey(boardID)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]PresenceRecord, 0, len(fields))
	for _, raw := range fields {
		var record PresenceRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue // skip malformed fields rather than failing the snapshot
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisStore) UpdateCursor(ctx context.Context, boardID, userID string, x, y float64) (bool, error) {
	raw, err := s.client.HGet(ctx, presenceKey(boardID), userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var record PresenceRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return false, err
	}
	record.Cursor = Cursor{X: x, Y: y}
	record.LastSeen = time.Now().UnixMilli()

	data, err := json.Marshal(record)
	if err != nil {
		return false, err
	}
	// Field-level write: last writer wins on this hash field.
	return true, s.client.HSet(ctx, presenceKey(boardID), userID, data).Err()
}

func (s *RedisStore) Append(ctx context.Context, boardID string, entry EventLogEntry) error {
	values := map[string]any{
		"action":    entry.Action,
		"elementId": entry.ElementID,
		"userId":    entry.UserID,
		"timestamp": entry.Timestamp,
	}
	if entry.Type != "" {
		values["type"] = entry.Type
	}
	if entry.Data != nil {
		data, err := json.Marshal(entry.Data)
		if err != nil {
			return err
		}
		values["data"] = data
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: eventsKey(boardID),
		Values: values,
	}).Err()
}

func (s *RedisStore) Push(ctx context.Context, boardID, userID string, entry HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := historyKey(boardID, userID)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: data,
	})
	// Keep only the most recent entries, oldest trimmed first.
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(historyLimit + 1)))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Publish(ctx context.Context, boardID string, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channelKey(boardID), data).Err()
}
