// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lights

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// recordedRequest is what the fake lighting API saw
type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

// fakeLightAPI starts a test server that records every request
func fakeLightAPI(t *testing.T, status int) (*httptest.Server, <-chan recordedRequest, *int32) {
	t.Helper()
	requests := make(chan recordedRequest, 32)
	var count int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		requests <- recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		}
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"d073d5","status":"ok"}]}`))
	}))
	t.Cleanup(server.Close)

	return server, requests, &count
}

func nextRequest(t *testing.T, requests <-chan recordedRequest) recordedRequest {
	t.Helper()
	select {
	case req := <-requests:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lighting request")
		return recordedRequest{}
	}
}

func newTestController(server *httptest.Server, token string) *Controller {
	return NewController(server.Client(), ControllerConfig{Token: token, BaseURL: server.URL}, DefaultPresets())
}

func TestIsConfigured(t *testing.T) {
	if NewController(nil, ControllerConfig{}, DefaultPresets()).IsConfigured() {
		t.Error("IsConfigured() should be false without a token")
	}
	if !NewController(nil, ControllerConfig{Token: "secret"}, DefaultPresets()).IsConfigured() {
		t.Error("IsConfigured() should be true with a token")
	}
}

func TestCommands_UnconfiguredMakesNoRequest(t *testing.T) {
	server, _, count := fakeLightAPI(t, http.StatusOK)
	controller := newTestController(server, "")
	ctx := context.Background()

	results := map[string]Result{
		"TurnOn":         controller.TurnOn(ctx),
		"TurnOff":        controller.TurnOff(ctx),
		"TurnRed":        controller.TurnRed(ctx),
		"RestoreDefault": controller.RestoreDefault(ctx),
		"SetPower":       controller.SetPower(ctx, PowerOn, ""),
		"StartFlicker":   controller.StartFlicker(ctx),
	}

	for name, result := range results {
		if result.Success {
			t.Errorf("%s() succeeded without a token", name)
		}
	}
	if controller.IsFlickering() {
		t.Error("flicker should not start without a token")
	}
	if n := atomic.LoadInt32(count); n != 0 {
		t.Errorf("lighting API called %d times, expected 0", n)
	}
}

func TestCommands_RequestShape(t *testing.T) {
	tests := []struct {
		name          string
		run           func(c *Controller) Result
		expectedPower string
		expectedColor string
	}{
		{name: "turn on", run: func(c *Controller) Result { return c.TurnOn(context.Background()) }, expectedPower: "on", expectedColor: "kelvin:2500 brightness:0.8"},
		{name: "turn off", run: func(c *Controller) Result { return c.TurnOff(context.Background()) }, expectedPower: "off"},
		{name: "turn red", run: func(c *Controller) Result { return c.TurnRed(context.Background()) }, expectedPower: "on", expectedColor: "hue:0 saturation:1 brightness:0.8"},
		{name: "restore default", run: func(c *Controller) Result { return c.RestoreDefault(context.Background()) }, expectedPower: "on", expectedColor: "kelvin:2500 brightness:0.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, requests, _ := fakeLightAPI(t, http.StatusMultiStatus)
			controller := newTestController(server, "secret")

			result := tt.run(controller)
			if !result.Success {
				t.Fatalf("command failed: %+v", result)
			}
			if len(result.Data) == 0 {
				t.Error("expected response data on success")
			}

			req := nextRequest(t, requests)
			if req.Method != http.MethodPut {
				t.Errorf("Method = %s, expected PUT", req.Method)
			}
			if req.Path != "/lights/all/state" {
				t.Errorf("Path = %s, expected /lights/all/state", req.Path)
			}
			if req.Auth != "Bearer secret" {
				t.Errorf("Authorization = %q, expected %q", req.Auth, "Bearer secret")
			}
			if req.Body["power"] != tt.expectedPower {
				t.Errorf("power = %v, expected %s", req.Body["power"], tt.expectedPower)
			}
			if req.Body["duration"] != 0.5 {
				t.Errorf("duration = %v, expected 0.5", req.Body["duration"])
			}
			color, hasColor := req.Body["color"]
			if tt.expectedColor == "" && hasColor {
				t.Errorf("color = %v, expected none", color)
			}
			if tt.expectedColor != "" && color != tt.expectedColor {
				t.Errorf("color = %v, expected %s", color, tt.expectedColor)
			}
		})
	}
}

func TestSetPower_HTTPError(t *testing.T) {
	server, requests, _ := fakeLightAPI(t, http.StatusUnauthorized)
	controller := newTestController(server, "bad-token")

	result := controller.TurnOn(context.Background())

	if result.Success {
		t.Error("expected failure on 401")
	}
	if result.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, expected %d", result.StatusCode, http.StatusUnauthorized)
	}
	nextRequest(t, requests)
}

func TestSetPower_NetworkError(t *testing.T) {
	server, _, _ := fakeLightAPI(t, http.StatusOK)
	controller := newTestController(server, "secret")
	server.Close()

	result := controller.TurnOff(context.Background())

	if result.Success {
		t.Error("expected failure when the API is unreachable")
	}
	if result.Error == "" {
		t.Error("expected an error message")
	}
}

// fakeTicker is driven by the test instead of the clock
type fakeTicker struct {
	ch      chan time.Time
	stopped int32
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { atomic.StoreInt32(&f.stopped, 1) }
func (f *fakeTicker) isStopped() bool     { return atomic.LoadInt32(&f.stopped) == 1 }

func withFakeTickers(c *Controller) *[]*fakeTicker {
	tickers := &[]*fakeTicker{}
	c.newTicker = func(time.Duration) ticker {
		ft := &fakeTicker{ch: make(chan time.Time)}
		*tickers = append(*tickers, ft)
		return ft
	}
	return tickers
}

func TestStartFlicker_Twice_LeavesOneSequence(t *testing.T) {
	server, requests, _ := fakeLightAPI(t, http.StatusOK)
	controller := newTestController(server, "secret")
	tickers := withFakeTickers(controller)
	ctx := context.Background()

	if result := controller.StartFlicker(ctx); !result.Success {
		t.Fatalf("StartFlicker() = %+v", result)
	}
	if result := controller.StartFlicker(ctx); !result.Success {
		t.Fatalf("StartFlicker() = %+v", result)
	}

	// Each start turns the lights on immediately.
	for i := 0; i < 2; i++ {
		if req := nextRequest(t, requests); req.Body["power"] != "on" {
			t.Errorf("initial request power = %v, expected on", req.Body["power"])
		}
	}

	if len(*tickers) != 2 {
		t.Fatalf("tickers created = %d, expected 2", len(*tickers))
	}
	first, second := (*tickers)[0], (*tickers)[1]
	if !first.isStopped() {
		t.Error("first sequence should be stopped by the second start")
	}
	if second.isStopped() {
		t.Error("second sequence should be running")
	}

	select {
	case first.ch <- time.Now():
		t.Error("first sequence still consumes ticks")
	case <-time.After(50 * time.Millisecond):
	}

	second.ch <- time.Now()
	if req := nextRequest(t, requests); req.Body["power"] != "off" {
		t.Errorf("first toggle power = %v, expected off", req.Body["power"])
	} else if _, ok := req.Body["color"]; ok {
		t.Error("off toggle should not carry a color")
	}

	second.ch <- time.Now()
	req := nextRequest(t, requests)
	if req.Body["power"] != "on" || req.Body["color"] != "kelvin:2500 brightness:0.8" {
		t.Errorf("second toggle = %v, expected on with default color", req.Body)
	}

	select {
	case extra := <-requests:
		t.Errorf("unexpected extra request: %v", extra.Body)
	case <-time.After(50 * time.Millisecond):
	}

	controller.StopFlicker()
	if !second.isStopped() {
		t.Error("StopFlicker() should stop the running sequence")
	}
	if controller.IsFlickering() {
		t.Error("IsFlickering() should be false after StopFlicker()")
	}
}

func TestStopFlicker_SafeWhenIdle(t *testing.T) {
	server, _, count := fakeLightAPI(t, http.StatusOK)
	controller := newTestController(server, "secret")

	controller.StopFlicker()
	controller.StopFlicker()

	if controller.IsFlickering() {
		t.Error("IsFlickering() should be false")
	}
	if n := atomic.LoadInt32(count); n != 0 {
		t.Errorf("lighting API called %d times, expected 0", n)
	}
}

func TestFlicker_SurvivesCallerContext(t *testing.T) {
	server, requests, _ := fakeLightAPI(t, http.StatusOK)
	controller := newTestController(server, "secret")
	tickers := withFakeTickers(controller)

	ctx, cancel := context.WithCancel(context.Background())
	controller.StartFlicker(ctx)
	nextRequest(t, requests)
	cancel()

	(*tickers)[0].ch <- time.Now()
	if req := nextRequest(t, requests); req.Body["power"] != "off" {
		t.Errorf("toggle power = %v, expected off", req.Body["power"])
	}

	controller.StopFlicker()
}

func TestFlicker_RealTicker(t *testing.T) {
	server, requests, _ := fakeLightAPI(t, http.StatusOK)
	presets := DefaultPresets()
	presets.FlickerInterval = 20 * time.Millisecond
	controller := NewController(server.Client(), ControllerConfig{Token: "secret", BaseURL: server.URL}, presets)

	controller.StartFlicker(context.Background())
	defer controller.StopFlicker()

	nextRequest(t, requests)
	nextRequest(t, requests)
	nextRequest(t, requests)
}

func TestFlicker_HangingAPIDoesNotBlockStop(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	controller := newTestController(server, "secret")
	withFakeTickers(controller)

	within := func(what string, fn func()) {
		t.Helper()
		done := make(chan struct{})
		go func() {
			defer close(done)
			fn()
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("%s blocked behind an unanswered lighting request", what)
		}
	}

	within("StartFlicker()", func() {
		if result := controller.StartFlicker(context.Background()); !result.Success {
			t.Errorf("StartFlicker() = %+v", result)
		}
	})
	within("IsFlickering()", func() {
		if !controller.IsFlickering() {
			t.Error("IsFlickering() should be true after StartFlicker()")
		}
	})
	within("StopFlicker()", controller.StopFlicker)
	within("IsFlickering()", func() {
		if controller.IsFlickering() {
			t.Error("IsFlickering() should be false after StopFlicker()")
		}
	})
}
