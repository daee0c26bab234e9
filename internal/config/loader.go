// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	ports := map[string]int{
		"HTTP_PORT":    c.HTTPPort,
		"GRPC_PORT":    c.GRPCPort,
		"METRICS_PORT": c.MetricsPort,
	}
	for name, port := range ports {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s: %d (must be 1-65535)", name, port)
		}
	}

	if strings.TrimSpace(c.StateKey) == "" {
		return fmt.Errorf("STATE_KEY is required")
	}
	if strings.TrimSpace(c.StateChannel) == "" {
		return fmt.Errorf("STATE_CHANNEL is required")
	}
	if c.StateTTL < 0 {
		return fmt.Errorf("invalid STATE_TTL: %v (must be non-negative)", c.StateTTL)
	}
	if c.StatePersistTimeout <= 0 {
		return fmt.Errorf("invalid STATE_PERSIST_TIMEOUT: %v (must be positive)", c.StatePersistTimeout)
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("invalid HEALTH_CHECK_INTERVAL: %v (must be positive)", c.HealthCheckInterval)
	}
	if c.RedisMaxRetries < 0 {
		return fmt.Errorf("invalid REDIS_MAX_RETRIES: %d (must be non-negative)", c.RedisMaxRetries)
	}

	if c.LifxToken == "" {
		logrus.Warnf("LIFX_TOKEN is not set, light commands will be no-ops")
	}

	return nil
}
