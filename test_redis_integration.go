// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/internal/bootstrap"
	"github.com/agriardyan/phasmo-larp-companion/internal/config"
	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// This is a manual integration test for the shared session state
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis reachable via REDIS_HOST / REDIS_PORT (default localhost:6379)

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting session state integration test...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	// Use a throwaway key and channel so a running session is not touched.
	suffix := time.Now().Unix()
	cfg.StateKey = fmt.Sprintf("phasmoLARP_state_test_%d", suffix)
	cfg.StateChannel = fmt.Sprintf("phasmoLARP:changes:test:%d", suffix)

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	defer client.Close()

	if !session.NewHealthChecker(client).IsHealthy(ctx) {
		logrus.Fatalf("Redis is not reachable at %s:%s", cfg.RedisHost, cfg.RedisPort)
	}
	defer client.Del(ctx, cfg.StateKey, cfg.StateKey+":rev")

	// Test 1: Fresh key loads defaults
	logrus.Infof("\n=== Test 1: Fresh key loads defaults ===")
	first, firstStorage := bootstrap.InitSessionStore(ctx, client, cfg)
	if got := first.Snapshot(); got.Sanity != session.MaxSanity || len(got.ActivityLog) != 0 {
		logrus.Fatalf("❌ Expected default state, got %+v", got)
	}
	logrus.Infof("✓ Got default state")

	// Test 2: Second instance replicates changes from the first
	logrus.Infof("\n=== Test 2: Replication between instances ===")
	second, secondStorage := bootstrap.InitSessionStore(ctx, client, cfg)

	replicateCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = first.Replicate(replicateCtx, firstStorage) }()
	go func() { _ = second.Replicate(replicateCtx, secondStorage) }()
	time.Sleep(200 * time.Millisecond) // let both subscriptions attach

	ghost := "Banshee"
	first.Update(ctx, session.Patch{SelectedGhost: &ghost})
	first.AddLogEntry(ctx, "Ghost selected")

	if !waitUntil(2*time.Second, func() bool {
		s := second.Snapshot()
		return s.SelectedGhost == ghost && len(s.ActivityLog) == 1
	}) {
		logrus.Fatalf("❌ Second instance did not receive changes: %+v", second.Snapshot())
	}
	logrus.Infof("✓ Second instance sees selectedGhost=%s", second.Snapshot().SelectedGhost)

	// Test 3: Persisted snapshot survives a restart
	logrus.Infof("\n=== Test 3: Reload from Redis ===")
	reloaded := session.Load(ctx, firstStorage, cfg.StateKey)
	if reloaded.SelectedGhost != ghost || len(reloaded.ActivityLog) != 1 {
		logrus.Fatalf("❌ Reloaded state mismatch: %+v", reloaded)
	}
	logrus.Infof("✓ Reloaded state matches")

	// Test 4: Reset propagates
	logrus.Infof("\n=== Test 4: Reset session ===")
	second.ResetSession(ctx)
	if !waitUntil(2*time.Second, func() bool {
		s := first.Snapshot()
		return s.SelectedGhost == "" && len(s.ActivityLog) == 0
	}) {
		logrus.Fatalf("❌ Reset did not reach the first instance: %+v", first.Snapshot())
	}
	logrus.Infof("✓ Reset replicated")

	logrus.Infof("\n==================================================")
	logrus.Infof("✅ All session state integration tests passed!")
	logrus.Infof("==================================================")
}

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}
