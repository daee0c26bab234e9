// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

const (
	// MaxLogEntries is the number of activity log entries kept, newest first.
	MaxLogEntries = 50
	// MinSanity and MaxSanity bound the sanity counter.
	MinSanity = 0
	MaxSanity = 100
)

// LightState is the logical light toggle shown in the UI.
type LightState string

const (
	LightOn  LightState = "on"
	LightOff LightState = "off"
)

// Evidence maps an evidence id to its value. The schema is owned by the UI.
type Evidence map[string]interface{}

// State is the shared session state. JSON tags match the persisted layout.
type State struct {
	GhostRoom        string     `json:"ghostRoom"`
	SelectedGhost    string     `json:"selectedGhost"`
	LightState       LightState `json:"lightState"`
	UpstairsLights   bool       `json:"upstairsLights"`
	DownstairsLights bool       `json:"downstairsLights"`
	IsHunting        bool       `json:"isHunting"`
	ActivityLog      []LogEntry `json:"activityLog"`
	Sanity           int        `json:"sanity"`
	SanityEnabled    bool       `json:"sanityEnabled"`
	EvidenceState    Evidence   `json:"evidenceState"`
	// Difficulty is a 1-10 scale: X in 10 chance for evidence requests.
	Difficulty int `json:"difficulty"`
}

// LogEntry is a single activity log line. Entries are never modified after creation.
type LogEntry struct {
	Time      string `json:"time"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Patch carries the fields of an Update. Nil fields are left untouched.
type Patch struct {
	GhostRoom        *string     `json:"ghostRoom,omitempty"`
	SelectedGhost    *string     `json:"selectedGhost,omitempty"`
	LightState       *LightState `json:"lightState,omitempty"`
	UpstairsLights   *bool       `json:"upstairsLights,omitempty"`
	DownstairsLights *bool       `json:"downstairsLights,omitempty"`
	IsHunting        *bool       `json:"isHunting,omitempty"`
	ActivityLog      *[]LogEntry `json:"activityLog,omitempty"`
	Sanity           *int        `json:"sanity,omitempty"`
	SanityEnabled    *bool       `json:"sanityEnabled,omitempty"`
	EvidenceState    *Evidence   `json:"evidenceState,omitempty"`
	Difficulty       *int        `json:"difficulty,omitempty"`
}

// ChangeEvent reports that key was set to NewValue by another store instance.
// Revision is the key's revision after the write; zero when unknown.
type ChangeEvent struct {
	Origin   string `json:"origin"`
	Key      string `json:"key"`
	NewValue string `json:"newValue"`
	Revision int64  `json:"revision,omitempty"`
}
