// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	a.startReplication(ctx)

	if err := a.apiServer.Start(ctx); err != nil {
		return err
	}
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	logrus.Info("application started successfully")

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("shutdown signal received")
	return a.Shutdown(context.WithoutCancel(ctx))
}

// startReplication merges state written by other instances into the local
// store, resubscribing with exponential backoff whenever the subscription
// fails or drops.
func (a *App) startReplication(ctx context.Context) {
	replicationCtx, cancel := context.WithCancel(ctx)
	a.stopReplication = cancel
	a.replicationDone = make(chan struct{})

	b := backoff.NewExponentialBackOff()
	if a.cfg.RedisRetryDelayMs > 0 {
		b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	}
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry until shutdown

	go func() {
		defer close(a.replicationDone)
		retryReplication(replicationCtx, b, func(ctx context.Context) error {
			return a.store.Replicate(ctx, a.storage)
		})
	}()
}

// retryReplication runs replicate until ctx is done, retrying with b after
// every failure. An early nil return counts as a failure.
func retryReplication(ctx context.Context, b backoff.BackOff, replicate func(context.Context) error) {
	err := backoff.Retry(
		func() error {
			err := replicate(ctx)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if err == nil {
				err = errors.New("state subscription ended")
			}
			logrus.Warnf("state replication interrupted: %v, retrying...", err)
			return err
		},
		backoff.WithContext(b, ctx),
	)
	if err != nil && ctx.Err() == nil {
		logrus.Errorf("state replication stopped: %v", err)
	}
}

// Shutdown gracefully shuts down all application components.
//
// ============================================================
// DEVELOPER: Shutdown order is critical
// ============================================================
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (API, gRPC, metrics servers)
// 2. Stop background work (flicker loop, replication)
// 3. Close external connections (Redis)
// 4. Flush telemetry data (OpenTelemetry)
//
// Shutdown errors are logged but don't stop the shutdown
// sequence. Each component gets a chance to clean up.
// ============================================================
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	// ============================================================
	// Step 1: Shutdown servers (stop accepting new requests)
	// ============================================================
	if err := a.apiServer.Shutdown(ctx); err != nil {
		logrus.Errorf("API server shutdown error: %v", err)
	}
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		logrus.Errorf("gRPC server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	// ============================================================
	// Step 2: Stop background work
	// ============================================================
	a.lightController.StopFlicker()
	if a.stopReplication != nil {
		a.stopReplication()
		<-a.replicationDone
	}

	// ============================================================
	// Step 3: Close external connections
	// ============================================================
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}

	// ============================================================
	// Step 4: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
