package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	gameKeyPrefix     = "stockpoker:games:"
	gameChannelSuffix = ":updates"
)

// RedisStore persists sessions as one Redis hash per game, keyed by leaf
// path, and fans updates out over a per-game Pub/Sub channel. Writes use
// WATCH-based optimistic concurrency against the version field.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func gameKey(gameID uuid.UUID) string {
	return gameKeyPrefix + gameID.String()
}

func gameChannel(gameID uuid.UUID) string {
	return gameKey(gameID) + gameChannelSuffix
}

func (rs *RedisStore) Create(ctx context.Context, s *game.Session) error {
	fields, err := encodeSession(s)
	if err != nil {
		return syncErr("create", err)
	}
	key := gameKey(s.ID)

	err = rs.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return ErrSessionExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toHashArgs(fields))
			return nil
		})
		return err
	}, key)

	if err == ErrSessionExists {
		return err
	}
	return syncErr("create", err)
}

func (rs *RedisStore) Read(ctx context.Context, gameID uuid.UUID) (*game.Session, error) {
	fields, err := rs.client.HGetAll(ctx, gameKey(gameID)).Result()
	if err != nil {
		return nil, syncErr("read", err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}
	s, err := decodeSession(fields)
	if err != nil {
		return nil, syncErr("read", err)
	}
	return s, nil
}

func (rs *RedisStore) WriteFields(ctx context.Context, gameID uuid.UUID, expectedVersion int64, fields map[string]string) error {
	key := gameKey(gameID)

	err := rs.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, "version").Result()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		if version != expectedVersion {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toHashArgs(fields))
			return nil
		})
		return err
	}, key)

	switch err {
	case nil:
		return nil
	case ErrVersionConflict, ErrSessionNotFound:
		return err
	case redis.TxFailedErr:
		// Another client touched the hash between read and commit.
		return ErrVersionConflict
	default:
		return syncErr("write", err)
	}
}

func (rs *RedisStore) Delete(ctx context.Context, gameID uuid.UUID) error {
	return syncErr("delete", rs.client.Del(ctx, gameKey(gameID)).Err())
}

func (rs *RedisStore) List(ctx context.Context) ([]*game.Session, error) {
	var sessions []*game.Session
	iter := rs.client.Scan(ctx, 0, gameKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id, err := uuid.Parse(key[len(gameKeyPrefix):])
		if err != nil {
			continue
		}
		s, err := rs.Read(ctx, id)
		if err != nil {
			if err == ErrSessionNotFound {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := iter.Err(); err != nil {
		return nil, syncErr("list", err)
	}
	return sessions, nil
}

func (rs *RedisStore) Publish(ctx context.Context, gameID uuid.UUID, update *Update) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return syncErr("publish", err)
	}
	return syncErr("publish", rs.client.Publish(ctx, gameChannel(gameID), payload).Err())
}

func (rs *RedisStore) Subscribe(ctx context.Context, gameID uuid.UUID, fn func(*Update)) (Unsubscribe, error) {
	pubsub := rs.client.Subscribe(ctx, gameChannel(gameID))

	// Confirm the subscription before returning so callers never miss
	// updates published right after Subscribe.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, syncErr("subscribe", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var update Update
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				slog.Warn("Discarding malformed game update", "game_id", gameID, "error", err)
				continue
			}
			fn(&update)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			slog.Warn("Closing game subscription", "game_id", gameID, "error", err)
		}
	}, nil
}

func toHashArgs(fields map[string]string) map[string]interface{} {
	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	return args
}
