// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lights

import (
	"context"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// flickerTask is the handle of the running flicker loop.
type flickerTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartFlicker stops any running flicker, turns the lights on and then
// toggles them between off and on every flicker interval until StopFlicker.
// The sequence outlives ctx; only StopFlicker or a new StartFlicker ends it.
// No request is awaited while the flicker handle is locked.
func (c *Controller) StartFlicker(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopFlickerLocked()

	if !c.IsConfigured() {
		metrics.LightCommandsTotal.WithLabelValues("start_flicker", metrics.Result(false)).Inc()
		return failure("No token configured")
	}

	detached := context.WithoutCancel(ctx)
	loopCtx, cancel := context.WithCancel(detached)
	task := &flickerTask{cancel: cancel, done: make(chan struct{})}
	t := c.newTicker(c.presets.FlickerInterval)
	go c.runFlicker(loopCtx, t, task.done)

	go func() {
		if result := c.setPower(detached, "flicker_on", PowerOn, c.presets.DefaultColor); !result.Success {
			logrus.Warnf("flicker: initial on command failed: %s", result.Error)
		}
	}()

	c.flicker = task
	metrics.FlickerActive.Set(1)
	metrics.LightCommandsTotal.WithLabelValues("start_flicker", metrics.Result(true)).Inc()
	logrus.Infof("flicker started (interval %v)", c.presets.FlickerInterval)
	return Result{Success: true}
}

// StopFlicker cancels the running flicker, if any. It is safe to call at any
// time. Requests already in flight are left to finish on their own.
func (c *Controller) StopFlicker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopFlickerLocked()
}

// IsFlickering reports whether a flicker sequence is running.
func (c *Controller) IsFlickering() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flicker != nil
}

// stopFlickerLocked cancels the loop and waits for it to exit so no further
// tick of the old sequence can fire.
func (c *Controller) stopFlickerLocked() {
	if c.flicker == nil {
		return
	}
	c.flicker.cancel()
	<-c.flicker.done
	c.flicker = nil
	metrics.FlickerActive.Set(0)
	logrus.Infof("flicker stopped")
}

func (c *Controller) runFlicker(ctx context.Context, t ticker, done chan<- struct{}) {
	defer close(done)
	defer t.Stop()

	isOn := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			power, color := PowerOff, ""
			if !isOn {
				power, color = PowerOn, c.presets.DefaultColor
			}
			isOn = !isOn

			// Fire and forget: a slow request must not delay the next tick.
			go c.setPower(context.WithoutCancel(ctx), "flicker_toggle", power, color)
		}
	}
}
