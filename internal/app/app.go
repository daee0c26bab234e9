// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/internal/bootstrap"
	"github.com/agriardyan/phasmo-larp-companion/internal/config"
	"github.com/agriardyan/phasmo-larp-companion/internal/server"
	"github.com/agriardyan/phasmo-larp-companion/pkg/handler"
	"github.com/agriardyan/phasmo-larp-companion/pkg/lights"
	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
	"github.com/cenkalti/backoff/v4"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	apiServer         *server.APIServer
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error

	store           *session.Store
	storage         *session.RedisStorage
	lightController *lights.Controller
	stopReplication context.CancelFunc
	replicationDone chan struct{}
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Telemetry (so every later span has a provider)
// 2. Redis (durable storage + change channel)
// 3. Session store (loads persisted state once)
// 4. Light controller (presets + LIFX token)
// 5. Servers (API, gRPC health, metrics)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Setup telemetry
	// ============================================================
	zipkinEndpoint := ""
	if cfg.OtelEnabled {
		zipkinEndpoint = cfg.ZipkinEndpoint
	}
	shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0, zipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	// ============================================================
	// Step 2: Initialize Redis
	// ============================================================
	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	// ============================================================
	// Step 3: Initialize the shared session store
	// ============================================================
	app.store, app.storage = bootstrap.InitSessionStore(ctx, app.redisClient, cfg)

	// ============================================================
	// Step 4: Initialize the light controller
	// ============================================================
	app.lightController, err = bootstrap.InitLightController(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init light controller: %w", err)
	}

	// ============================================================
	// Step 5: Setup servers
	// ============================================================
	app.apiServer = server.NewAPIServer(cfg.HTTPPort,
		handler.NewState(app.store),
		handler.NewLights(app.lightController),
	)
	if err := app.apiServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup API server: %w", err)
	}

	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, session.NewHealthChecker(app.redisClient), cfg.HealthCheckInterval)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client, retrying the first ping with exponential backoff.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		_ = client.Close()
		return err
	}

	a.redisClient = client
	logrus.Infof("connected to Redis at %s:%s", a.cfg.RedisHost, a.cfg.RedisPort)
	return nil
}
