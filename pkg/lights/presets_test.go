// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lights

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePresets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lights.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write presets file: %v", err)
	}
	return path
}

func TestLoadPresets_EmptyPath(t *testing.T) {
	presets, err := LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets() error = %v", err)
	}
	if presets != DefaultPresets() {
		t.Errorf("LoadPresets() = %+v, expected defaults", presets)
	}
}

func TestLoadPresets(t *testing.T) {
	t.Setenv("ALERT_BRIGHTNESS", "1.0")

	tests := []struct {
		name     string
		content  string
		expected Presets
		wantErr  bool
	}{
		{
			name: "full file",
			content: `
defaultColor: "kelvin:3000 brightness:0.6"
alertColor: "hue:0 saturation:1 brightness:${ALERT_BRIGHTNESS}"
transition: 0.2
flickerInterval: 250ms
`,
			expected: Presets{
				DefaultColor:    "kelvin:3000 brightness:0.6",
				AlertColor:      "hue:0 saturation:1 brightness:1.0",
				Transition:      0.2,
				FlickerInterval: 250 * time.Millisecond,
			},
		},
		{
			name:    "partial file keeps defaults",
			content: "flickerInterval: 1s\n",
			expected: Presets{
				DefaultColor:    "kelvin:2500 brightness:0.8",
				AlertColor:      "hue:0 saturation:1 brightness:0.8",
				Transition:      0.5,
				FlickerInterval: time.Second,
			},
		},
		{
			name:    "env default",
			content: "defaultColor: \"kelvin:${UNSET_PHASMO_KELVIN:2700} brightness:0.8\"\n",
			expected: Presets{
				DefaultColor:    "kelvin:2700 brightness:0.8",
				AlertColor:      "hue:0 saturation:1 brightness:0.8",
				Transition:      0.5,
				FlickerInterval: 500 * time.Millisecond,
			},
		},
		{
			name:    "zero interval rejected",
			content: "flickerInterval: 0s\n",
			wantErr: true,
		},
		{
			name:    "negative transition rejected",
			content: "transition: -1\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			content: "defaultColor: [unterminated\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presets, err := LoadPresets(writePresets(t, tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadPresets() expected error")
				}
				if presets != DefaultPresets() {
					t.Errorf("LoadPresets() on error = %+v, expected defaults", presets)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPresets() error = %v", err)
			}
			if presets != tt.expected {
				t.Errorf("LoadPresets() = %+v, expected %+v", presets, tt.expected)
			}
		})
	}
}

func TestLoadPresets_MissingFile(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadPresets() expected error for missing file")
	}
}
