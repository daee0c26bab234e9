// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/agriardyan/phasmo-larp-companion/internal/config"
	"github.com/agriardyan/phasmo-larp-companion/pkg/lights"
	"github.com/sirupsen/logrus"
)

// InitLightController loads the light presets and creates the controller.
//
// ============================================================
// DEVELOPER: Light presets
// ============================================================
// Colors and timings live in config/lights.yaml (LIGHTS_CONFIG_PATH).
// An empty path uses the built-in warm/red palette. The controller
// is created even without LIFX_TOKEN; every command then returns
// a failure result without touching the network.
// ============================================================
func InitLightController(cfg *config.Config) (*lights.Controller, error) {
	presets, err := lights.LoadPresets(cfg.LightsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load light presets from %s: %w", cfg.LightsConfigPath, err)
	}

	client := &http.Client{Timeout: cfg.LightsTimeout}
	controller := lights.NewController(client, lights.ControllerConfig{
		Token:   cfg.LifxToken,
		BaseURL: cfg.LifxBaseURL,
	}, presets)

	logrus.Infof("initialized light controller (configured: %v, flicker interval: %v)",
		controller.IsConfigured(), presets.FlickerInterval)

	return controller, nil
}
