// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"
)

type stubHealth struct {
	healthy bool
}

func (p *stubHealth) IsHealthy(ctx context.Context) bool { return p.healthy }

func TestGRPCServer_HealthFollowsStorage(t *testing.T) {
	storage := &stubHealth{healthy: false}
	s := NewGRPCServer(6565, storage, time.Second)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	ctx := context.Background()
	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		resp, err := s.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		return resp.GetStatus()
	}

	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("initial status = %v, expected NOT_SERVING", got)
	}

	storage.healthy = true
	s.refreshHealth(ctx)
	if got := check(); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, expected SERVING", got)
	}

	storage.healthy = false
	s.refreshHealth(ctx)
	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, expected NOT_SERVING", got)
	}
}
