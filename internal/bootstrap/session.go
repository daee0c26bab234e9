// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"

	"github.com/agriardyan/phasmo-larp-companion/internal/config"
	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// InitSessionStore creates the Redis-backed storage and the live session store.
//
// ============================================================
// DEVELOPER: Shared state storage
// ============================================================
// The store is the single owner of the session state for this
// process. It is created exactly once here and handed to every
// consumer (HTTP handlers, watchers).
//
// The returned RedisStorage doubles as the change notifier: pass
// it to Store.Replicate to merge writes from other instances.
// ============================================================
func InitSessionStore(ctx context.Context, client *redis.Client, cfg *config.Config) (*session.Store, *session.RedisStorage) {
	storage := session.NewRedisStorage(client, session.RedisStorageConfig{
		Channel: cfg.StateChannel,
		TTL:     cfg.StateTTL,
	})

	store := session.NewStore(ctx, storage, session.StoreConfig{
		Key:            cfg.StateKey,
		PersistTimeout: cfg.StatePersistTimeout,
	})

	logrus.Infof("initialized session store (key: %s, channel: %s, origin: %s)",
		cfg.StateKey, cfg.StateChannel, storage.Origin())

	return store, storage
}
