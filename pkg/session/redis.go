// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/metrics"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultKey is the storage key holding the serialized state.
	DefaultKey = "phasmoLARP_state"
	// DefaultChannel is the Pub/Sub channel carrying change events.
	DefaultChannel = "phasmoLARP:changes"

	revisionSuffix = ":rev"
)

// setScript writes the value, bumps the revision and publishes the change
// event in one atomic step, so event order on the channel matches revision order.
// KEYS: value key, revision key. ARGV: value, ttl ms, event prefix, channel.
var setScript = redis.NewScript(`
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[1])
end
local rev = redis.call('INCR', KEYS[2])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
redis.call('PUBLISH', ARGV[4], ARGV[3] .. rev .. '}')
return rev
`)

// RedisStorage implements Storage and Notifier on top of Redis.
// Every Set publishes a ChangeEvent; Subscribe skips events published by
// the same RedisStorage, the way a browser tab never sees its own storage events.
type RedisStorage struct {
	client *redis.Client
	cfg    RedisStorageConfig
	origin string
}

type RedisStorageConfig struct {
	Channel string
	// TTL of the state key; zero keeps it forever.
	TTL time.Duration
}

// NewRedisStorage creates a Redis-backed storage with a fresh origin id.
func NewRedisStorage(client *redis.Client, cfg RedisStorageConfig) *RedisStorage {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &RedisStorage{
		client: client,
		cfg:    cfg,
		origin: uuid.NewString(),
	}
}

// Origin identifies this instance in published change events.
func (r *RedisStorage) Origin() string {
	return r.origin
}

// Get returns the raw value under key and its revision, or ErrNotFound.
// Values written without a revision report revision 0.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, int64, error) {
	values, err := r.client.MGet(ctx, key, key+revisionSuffix).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get %s: %w", key, err)
	}

	data, ok := values[0].(string)
	if !ok {
		return nil, 0, ErrNotFound
	}

	var revision int64
	if raw, ok := values[1].(string); ok {
		revision, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid revision for %s: %w", key, err)
		}
	}
	return []byte(data), revision, nil
}

// Set writes value under key and announces the change atomically.
func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) (int64, error) {
	event, err := json.Marshal(ChangeEvent{
		Origin:   r.origin,
		Key:      key,
		NewValue: string(value),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal change event: %w", err)
	}
	// The script appends the revision: {...,"revision":N}
	prefix := string(event[:len(event)-1]) + `,"revision":`

	revision, err := setScript.Run(ctx, r.client,
		[]string{key, key + revisionSuffix},
		string(value), r.cfg.TTL.Milliseconds(), prefix, r.cfg.Channel,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to set %s: %w", key, err)
	}
	return revision, nil
}

// Subscribe listens on the change channel until ctx is done. ready runs once
// the subscription is confirmed, before any event is handled. It returns nil
// when ctx is done and an error when the subscription fails or ends.
func (r *RedisStorage) Subscribe(ctx context.Context, ready func(), handler func(ChangeEvent)) error {
	pubsub := r.client.Subscribe(ctx, r.cfg.Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", r.cfg.Channel, err)
	}
	logrus.Infof("subscribed to state changes on %s (origin %s)", r.cfg.Channel, r.origin)

	if ready != nil {
		ready()
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("state subscription closed")
			}

			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logrus.Errorf("failed to sync state: malformed change event: %v", err)
				metrics.ReplicationEventsTotal.WithLabelValues("malformed").Inc()
				continue
			}
			if event.Origin == r.origin {
				continue
			}
			handler(event)
		}
	}
}
