// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lights

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Presets holds the colors and timings used by the controller.
// Colors use the lighting API's attribute syntax, e.g. "kelvin:2500 brightness:0.8".
type Presets struct {
	DefaultColor string `yaml:"defaultColor"`
	AlertColor   string `yaml:"alertColor"`
	// Transition is the fade duration sent with every state change, in seconds.
	Transition      float64       `yaml:"transition"`
	FlickerInterval time.Duration `yaml:"flickerInterval"`
}

// DefaultPresets returns the warm default / red alert palette.
func DefaultPresets() Presets {
	return Presets{
		DefaultColor:    "kelvin:2500 brightness:0.8",
		AlertColor:      "hue:0 saturation:1 brightness:0.8",
		Transition:      0.5,
		FlickerInterval: 500 * time.Millisecond,
	}
}

// LoadPresets reads presets from a YAML file. Fields missing from the file
// keep their defaults; an empty path returns DefaultPresets.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadPresets(path string) (Presets, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return presets, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &presets); err != nil {
		return DefaultPresets(), fmt.Errorf("failed to parse presets YAML: %w", err)
	}

	if err := presets.Validate(); err != nil {
		return DefaultPresets(), fmt.Errorf("invalid presets: %w", err)
	}

	return presets, nil
}

// Validate checks the presets for unusable values.
func (p Presets) Validate() error {
	if strings.TrimSpace(p.DefaultColor) == "" {
		return fmt.Errorf("defaultColor is empty")
	}
	if strings.TrimSpace(p.AlertColor) == "" {
		return fmt.Errorf("alertColor is empty")
	}
	if p.Transition < 0 {
		return fmt.Errorf("transition must be non-negative, got %v", p.Transition)
	}
	if p.FlickerInterval <= 0 {
		return fmt.Errorf("flickerInterval must be positive, got %v", p.FlickerInterval)
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
