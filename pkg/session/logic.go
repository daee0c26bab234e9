// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	logTimeLayout      = "03:04:05 PM"
	logTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// DefaultState returns the state used when nothing usable is persisted.
func DefaultState() State {
	return State{
		GhostRoom:        "",
		SelectedGhost:    "",
		LightState:       LightOff,
		UpstairsLights:   true,
		DownstairsLights: true,
		IsHunting:        false,
		ActivityLog:      []LogEntry{},
		Sanity:           MaxSanity,
		SanityEnabled:    false,
		EvidenceState:    Evidence{},
		Difficulty:       10,
	}
}

// Clone returns a copy that shares no slices or maps with s.
// Evidence values are copied shallowly.
func (s State) Clone() State {
	out := s
	if s.ActivityLog != nil {
		out.ActivityLog = make([]LogEntry, len(s.ActivityLog))
		copy(out.ActivityLog, s.ActivityLog)
	}
	if s.EvidenceState != nil {
		out.EvidenceState = make(Evidence, len(s.EvidenceState))
		for k, v := range s.EvidenceState {
			out.EvidenceState[k] = v
		}
	}
	return out
}

// normalize enforces the log cap and the sanity bounds.
func (s *State) normalize() {
	if len(s.ActivityLog) > MaxLogEntries {
		s.ActivityLog = s.ActivityLog[:MaxLogEntries]
	}
	if s.Sanity < MinSanity {
		s.Sanity = MinSanity
	}
	if s.Sanity > MaxSanity {
		s.Sanity = MaxSanity
	}
}

// resetSession restores session data to defaults. SanityEnabled and
// Difficulty are preferences and survive the reset.
func (s *State) resetSession() {
	s.GhostRoom = ""
	s.SelectedGhost = ""
	s.LightState = LightOn
	s.UpstairsLights = true
	s.DownstairsLights = true
	s.IsHunting = false
	s.ActivityLog = []LogEntry{}
	s.Sanity = MaxSanity
	s.EvidenceState = Evidence{}
}

// prependLog puts entry at the head of the log.
func (s *State) prependLog(entry LogEntry) {
	log := make([]LogEntry, 0, len(s.ActivityLog)+1)
	log = append(log, entry)
	log = append(log, s.ActivityLog...)
	s.ActivityLog = log
}

// drainSanity lowers sanity by amount when the sanity feature is on.
// Returns false if nothing changed.
func (s *State) drainSanity(amount int) bool {
	if !s.SanityEnabled {
		return false
	}
	next := s.Sanity - amount
	if next < MinSanity {
		next = MinSanity
	}
	if next == s.Sanity {
		return false
	}
	s.Sanity = next
	return true
}

// apply shallow-merges the non-nil fields of p into s.
func (p Patch) apply(s *State) {
	if p.GhostRoom != nil {
		s.GhostRoom = *p.GhostRoom
	}
	if p.SelectedGhost != nil {
		s.SelectedGhost = *p.SelectedGhost
	}
	if p.LightState != nil {
		s.LightState = *p.LightState
	}
	if p.UpstairsLights != nil {
		s.UpstairsLights = *p.UpstairsLights
	}
	if p.DownstairsLights != nil {
		s.DownstairsLights = *p.DownstairsLights
	}
	if p.IsHunting != nil {
		s.IsHunting = *p.IsHunting
	}
	if p.ActivityLog != nil {
		s.ActivityLog = append([]LogEntry{}, (*p.ActivityLog)...)
	}
	if p.Sanity != nil {
		s.Sanity = *p.Sanity
	}
	if p.SanityEnabled != nil {
		s.SanityEnabled = *p.SanityEnabled
	}
	if p.EvidenceState != nil {
		s.EvidenceState = Evidence{}
		for k, v := range *p.EvidenceState {
			s.EvidenceState[k] = v
		}
	}
	if p.Difficulty != nil {
		s.Difficulty = *p.Difficulty
	}
}

// NewLogEntry builds a log entry stamped with t.
func NewLogEntry(message string, t time.Time) LogEntry {
	return LogEntry{
		Time:      t.Format(logTimeLayout),
		Message:   message,
		Timestamp: t.UTC().Format(logTimestampLayout),
	}
}

// Merge applies a persisted payload on top of current and returns the result.
// Top-level keys present in the payload replace the current values wholesale;
// keys that are absent keep their current values and unknown keys are ignored.
// current is never modified.
func Merge(current State, payload []byte) (State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return current, fmt.Errorf("failed to parse state payload: %w", err)
	}

	next := current.Clone()
	// json merges into existing maps and slices; present keys must replace them instead.
	if _, ok := fields["activityLog"]; ok {
		next.ActivityLog = nil
	}
	if _, ok := fields["evidenceState"]; ok {
		next.EvidenceState = nil
	}
	if err := json.Unmarshal(payload, &next); err != nil {
		return current, fmt.Errorf("failed to decode state payload: %w", err)
	}

	if next.ActivityLog == nil {
		next.ActivityLog = []LogEntry{}
	}
	if next.EvidenceState == nil {
		next.EvidenceState = Evidence{}
	}
	next.normalize()
	return next, nil
}
