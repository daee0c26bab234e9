// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"net/http"

	"github.com/agriardyan/phasmo-larp-companion/pkg/common"
	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
)

// State serves the shared session state
type State struct {
	store StateStore
}

// NewState creates the session state handler
func NewState(store StateStore) *State {
	return &State{store: store}
}

type logRequest struct {
	Message string `json:"message"`
}

type drainRequest struct {
	Amount int `json:"amount"`
}

// Register mounts the state routes on mux
func (h *State) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /state", h.get)
	mux.HandleFunc("PATCH /state", h.update)
	mux.HandleFunc("POST /state/log", h.addLog)
	mux.HandleFunc("POST /state/reset", h.reset)
	mux.HandleFunc("POST /state/sanity/drain", h.drainSanity)
	mux.HandleFunc("GET /state/ws", h.feed)
}

func (h *State) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *State) update(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "State.Update")
	defer scope.Finish()

	var patch session.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		scope.Log.Warnf("rejected state update: %v", err)
		writeError(w, http.StatusBadRequest, "invalid state patch")
		return
	}

	writeJSON(w, http.StatusOK, h.store.Update(scope.Ctx, patch))
}

func (h *State) addLog(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "State.AddLogEntry")
	defer scope.Finish()

	var req logRequest
	if err := decodeJSON(w, r, &req); err != nil {
		scope.Log.Warnf("rejected log entry: %v", err)
		writeError(w, http.StatusBadRequest, "invalid log entry")
		return
	}

	writeJSON(w, http.StatusOK, h.store.AddLogEntry(scope.Ctx, req.Message))
}

func (h *State) reset(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "State.ResetSession")
	defer scope.Finish()

	scope.Log.Infof("resetting session")
	writeJSON(w, http.StatusOK, h.store.ResetSession(scope.Ctx))
}

func (h *State) drainSanity(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "State.DrainSanity")
	defer scope.Finish()

	var req drainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		scope.Log.Warnf("rejected sanity drain: %v", err)
		writeError(w, http.StatusBadRequest, "invalid drain request")
		return
	}

	writeJSON(w, http.StatusOK, h.store.DrainSanity(scope.Ctx, req.Amount))
}
