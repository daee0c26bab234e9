// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/common"
	"github.com/go-redis/redis/v8"
)

const defaultHealthTimeout = 2 * time.Second

// HealthChecker probes the Redis instance that holds the session state and
// carries its change channel. Only transitions between healthy and
// unhealthy are logged at info/error level.
type HealthChecker struct {
	client  *redis.Client
	timeout time.Duration

	mu      sync.Mutex
	healthy *bool
}

// NewHealthChecker creates a checker for client
func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client, timeout: defaultHealthTimeout}
}

// Check pings Redis and records the round trip on the span.
func (h *HealthChecker) Check(ctx context.Context) error {
	scope := common.GetScopeFromContext(ctx, "session.HealthCheck")
	defer scope.Finish()

	ctx, cancel := context.WithTimeout(scope.Ctx, h.timeout)
	defer cancel()

	start := time.Now()
	_, err := h.client.Ping(ctx).Result()
	scope.TraceTag("latency", time.Since(start).String())

	h.mu.Lock()
	changed := h.healthy == nil || *h.healthy != (err == nil)
	healthy := err == nil
	h.healthy = &healthy
	h.mu.Unlock()

	if err != nil {
		scope.TraceError(err)
		if changed {
			scope.Log.Errorf("session storage unreachable: %v", err)
		}
		return fmt.Errorf("session storage ping failed: %w", err)
	}

	if changed {
		scope.Log.Infof("session storage reachable")
	} else {
		scope.Log.Debugf("session storage health check passed")
	}
	return nil
}

// IsHealthy pings Redis and reports whether it answered.
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
