// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/common"
	"github.com/agriardyan/phasmo-larp-companion/pkg/metrics"
)

const (
	// DefaultBaseURL is the LIFX HTTP API root.
	DefaultBaseURL = "https://api.lifx.com/v1"

	allLightsStatePath = "/lights/all/state"
)

// Power is the requested power state of the lights.
type Power string

const (
	PowerOn  Power = "on"
	PowerOff Power = "off"
)

// Result is the outcome of a light command. Commands never return errors;
// failures are reported here and left to the caller to surface.
type Result struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode,omitempty"`
	Error      string          `json:"error,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func failure(format string, args ...interface{}) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// stateRequest is the body of PUT /lights/all/state.
type stateRequest struct {
	Power    Power   `json:"power"`
	Duration float64 `json:"duration"`
	Color    string  `json:"color,omitempty"`
}

// Controller sends best-effort commands to the lighting API and runs at most
// one flicker sequence at a time.
type Controller struct {
	client  *http.Client
	cfg     ControllerConfig
	presets Presets

	mu      sync.Mutex
	flicker *flickerTask
	// newTicker is swapped in tests.
	newTicker func(time.Duration) ticker
}

type ControllerConfig struct {
	Token   string
	BaseURL string
}

// NewController creates a controller. A nil client uses http.DefaultClient.
func NewController(client *http.Client, cfg ControllerConfig, presets Presets) *Controller {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Controller{
		client:    client,
		cfg:       cfg,
		presets:   presets,
		newTicker: newTimeTicker,
	}
}

// IsConfigured reports whether an API token is set.
func (c *Controller) IsConfigured() bool {
	return c.cfg.Token != ""
}

// Presets returns the colors and timings in use.
func (c *Controller) Presets() Presets {
	return c.presets
}

// SetPower issues a single state change to all lights. An empty color leaves
// the color unchanged. Failures are logged and returned, never retried.
func (c *Controller) SetPower(ctx context.Context, power Power, color string) Result {
	return c.setPower(ctx, "set_power", power, color)
}

// TurnOn switches the lights on with the default color.
func (c *Controller) TurnOn(ctx context.Context) Result {
	return c.setPower(ctx, "turn_on", PowerOn, c.presets.DefaultColor)
}

// TurnOff switches the lights off.
func (c *Controller) TurnOff(ctx context.Context) Result {
	return c.setPower(ctx, "turn_off", PowerOff, "")
}

// TurnRed switches the lights on with the alert color.
func (c *Controller) TurnRed(ctx context.Context) Result {
	return c.setPower(ctx, "turn_red", PowerOn, c.presets.AlertColor)
}

// RestoreDefault switches the lights back on with the default color.
func (c *Controller) RestoreDefault(ctx context.Context) Result {
	return c.setPower(ctx, "restore_default", PowerOn, c.presets.DefaultColor)
}

func (c *Controller) setPower(ctx context.Context, command string, power Power, color string) Result {
	scope := common.GetScopeFromContext(ctx, "lights."+command)
	defer scope.Finish()
	scope.TraceTag("power", string(power))

	result := c.send(scope, power, color)
	metrics.LightCommandsTotal.WithLabelValues(command, metrics.Result(result.Success)).Inc()
	return result
}

func (c *Controller) send(scope *common.Scope, power Power, color string) Result {
	if !c.IsConfigured() {
		return failure("No token configured")
	}

	body, err := json.Marshal(stateRequest{
		Power:    power,
		Duration: c.presets.Transition,
		Color:    color,
	})
	if err != nil {
		scope.Log.Errorf("failed to marshal light state: %v", err)
		return failure("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(scope.Ctx, http.MethodPut, c.cfg.BaseURL+allLightsStatePath, bytes.NewReader(body))
	if err != nil {
		scope.Log.Errorf("failed to build light request: %v", err)
		return failure("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		scope.Log.Errorf("light request failed: %v", err)
		scope.TraceError(err)
		return failure("%v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		scope.Log.Errorf("failed to read light response: %v", err)
		scope.TraceError(err)
		return Result{Success: false, StatusCode: resp.StatusCode, Error: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		scope.Log.Errorf("lighting API error (status %d): %s", resp.StatusCode, respBody)
		scope.TraceError(fmt.Errorf("lighting API returned status %d", resp.StatusCode))
		return Result{Success: false, StatusCode: resp.StatusCode}
	}

	result := Result{Success: true, StatusCode: resp.StatusCode}
	if json.Valid(respBody) {
		result.Data = respBody
	}
	return result
}
