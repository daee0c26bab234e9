// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"PhasmoLarpCompanion"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Redis configuration (durable storage + change notifications)
	// ============================================================
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// ============================================================
	// Shared session state
	// ============================================================
	StateKey            string        `env:"STATE_KEY" envDefault:"phasmoLARP_state"`
	StateChannel        string        `env:"STATE_CHANNEL" envDefault:"phasmoLARP:changes"`
	StateTTL            time.Duration `env:"STATE_TTL" envDefault:"0s"`
	StatePersistTimeout time.Duration `env:"STATE_PERSIST_TIMEOUT" envDefault:"3s"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"10s"`

	// ============================================================
	// Smart lights (LIFX HTTP API)
	// ============================================================
	LifxToken        string        `env:"LIFX_TOKEN"`
	LifxBaseURL      string        `env:"LIFX_BASE_URL" envDefault:"https://api.lifx.com/v1"`
	LightsConfigPath string        `env:"LIGHTS_CONFIG_PATH" envDefault:"config/lights.yaml"`
	LightsTimeout    time.Duration `env:"LIGHTS_HTTP_TIMEOUT" envDefault:"10s"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`
}
