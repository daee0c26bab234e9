// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	StateLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phasmo_state_loads_total",
			Help: "Session state loads by outcome",
		},
		[]string{"result"},
	)

	StatePersistsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phasmo_state_persists_total",
			Help: "Session state writes by outcome",
		},
		[]string{"result"},
	)

	ReplicationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phasmo_replication_events_total",
			Help: "Cross-instance change events by outcome",
		},
		[]string{"result"},
	)

	LightCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phasmo_light_commands_total",
			Help: "Lighting API commands by command and outcome",
		},
		[]string{"command", "result"},
	)

	FlickerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "phasmo_flicker_active",
			Help: "1 while a flicker sequence is running",
		},
	)
)

// Register adds all application collectors to registry.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		StateLoadsTotal,
		StatePersistsTotal,
		ReplicationEventsTotal,
		LightCommandsTotal,
		FlickerActive,
	)
}

// Result maps a success flag to a metric label.
func Result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
