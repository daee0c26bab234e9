// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"net/http"

	"github.com/agriardyan/phasmo-larp-companion/pkg/common"
	"github.com/agriardyan/phasmo-larp-companion/pkg/lights"
)

// Lights forwards UI light commands to the controller
type Lights struct {
	controller LightController
	commands   map[string]func(ctx context.Context) lights.Result
}

// NewLights creates the lights handler
func NewLights(controller LightController) *Lights {
	return &Lights{
		controller: controller,
		commands: map[string]func(ctx context.Context) lights.Result{
			"on":      controller.TurnOn,
			"off":     controller.TurnOff,
			"red":     controller.TurnRed,
			"restore": controller.RestoreDefault,
			"flicker": controller.StartFlicker,
			"stop": func(context.Context) lights.Result {
				controller.StopFlicker()
				return lights.Result{Success: true}
			},
		},
	}
}

type lightsStatus struct {
	Configured bool `json:"configured"`
	Flickering bool `json:"flickering"`
}

// Register mounts the light routes on mux
func (h *Lights) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /lights", h.status)
	mux.HandleFunc("POST /lights/{command}", h.command)
}

func (h *Lights) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lightsStatus{
		Configured: h.controller.IsConfigured(),
		Flickering: h.controller.IsFlickering(),
	})
}

func (h *Lights) command(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("command")
	run, ok := h.commands[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown light command: "+name)
		return
	}

	scope := common.GetScopeFromContext(r.Context(), "Lights."+name)
	defer scope.Finish()

	result := run(scope.Ctx)
	if !result.Success {
		scope.Log.Warnf("light command %s failed: %s", name, result.Error)
		writeJSON(w, http.StatusBadGateway, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
