// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"errors"

	"github.com/agriardyan/phasmo-larp-companion/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Storage.Get when the key holds no value.
var ErrNotFound = errors.New("session: key not found")

// Storage is the durable key-value store backing the session state.
// Every successful Set bumps the key's revision; revisions order writes
// from all instances sharing the key.
type Storage interface {
	// Get returns the value under key and its revision.
	Get(ctx context.Context, key string) ([]byte, int64, error)
	// Set writes value under key and returns the new revision.
	Set(ctx context.Context, key string, value []byte) (int64, error)
}

// Notifier delivers changes written by other store instances.
type Notifier interface {
	// Subscribe calls ready once the subscription is live, then handler for
	// every change event until ctx is done.
	Subscribe(ctx context.Context, ready func(), handler func(ChangeEvent)) error
}

// Load reads the state stored under key. Missing, unreadable or malformed
// data yields DefaultState; errors are logged and never returned.
func Load(ctx context.Context, storage Storage, key string) State {
	state, _ := load(ctx, storage, key)
	return state
}

func load(ctx context.Context, storage Storage, key string) (State, int64) {
	data, revision, err := storage.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		logrus.Infof("no saved session state under %s, using defaults", key)
		metrics.StateLoadsTotal.WithLabelValues("default").Inc()
		return DefaultState(), 0
	}
	if err != nil {
		logrus.Errorf("failed to load state: %v", err)
		metrics.StateLoadsTotal.WithLabelValues("read_error").Inc()
		return DefaultState(), 0
	}

	// Older payloads may lack fields; start from defaults so they keep sensible values.
	loaded, err := Merge(DefaultState(), data)
	if err != nil {
		logrus.Errorf("failed to load state: %v", err)
		metrics.StateLoadsTotal.WithLabelValues("malformed").Inc()
		return DefaultState(), revision
	}

	logrus.Infof("loaded session state from %s (revision %d)", key, revision)
	metrics.StateLoadsTotal.WithLabelValues("loaded").Inc()
	return loaded, revision
}
