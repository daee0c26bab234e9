// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/agriardyan/phasmo-larp-companion/pkg/lights"
	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds request bodies; the largest legitimate one is a full state patch.
const maxBodyBytes = 1 << 20

// StateStore is the session surface the UI layer uses.
type StateStore interface {
	Snapshot() session.State
	Update(ctx context.Context, patch session.Patch) session.State
	AddLogEntry(ctx context.Context, message string) session.State
	ResetSession(ctx context.Context) session.State
	DrainSanity(ctx context.Context, amount int) session.State
	Watch(fn func(session.State)) func()
}

// LightController is the lighting surface the UI layer uses.
type LightController interface {
	IsConfigured() bool
	IsFlickering() bool
	TurnOn(ctx context.Context) lights.Result
	TurnOff(ctx context.Context) lights.Result
	TurnRed(ctx context.Context) lights.Result
	RestoreDefault(ctx context.Context) lights.Result
	StartFlicker(ctx context.Context) lights.Result
	StopFlicker()
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
